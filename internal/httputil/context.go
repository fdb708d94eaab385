package httputil

import (
	"context"
	"net/http"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	accessTokenKey
)

// WithUserID records the authenticated caller. Set only by the auth
// middleware after the bearer token verifies.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID is "" on public routes
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithAccessToken stores the verified bearer token so logout can revoke it
func WithAccessToken(r *http.Request, token string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), accessTokenKey, token))
}

func GetAccessToken(r *http.Request) string {
	token, _ := r.Context().Value(accessTokenKey).(string)
	return token
}
