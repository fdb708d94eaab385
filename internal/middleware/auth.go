package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"sitetrack/internal/auth"
	"sitetrack/internal/httputil"
)

// logoutRoute still accepts a verified token after it has been revoked, so
// signing out twice is not an error
const logoutRoute = "POST /api/auth/logout"

// AuthMiddleware verifies the bearer token and stores the user ID and the
// token in the request context. Requests matching a public route pass
// through unauthenticated.
//
// Browsers cannot set headers on EventSource, so stream routes also accept
// the token as an access_token query parameter.
func AuthMiddleware(verifier auth.JWTVerifier, denyList auth.TokenDenyList, logger *slog.Logger, publicRoutes ...string) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicRoutes))
	for _, route := range publicRoutes {
		public[route] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(public, r) {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if denyList != nil {
				revoked, err := denyList.IsRevoked(r.Context(), token)
				if err != nil {
					// Fail open: the token signature and expiry were verified
					logger.Warn("deny-list lookup failed", "user_id", claims.GetUserID(), "error", err)
				} else if revoked && r.Method+" "+r.URL.Path != logoutRoute {
					httputil.RespondError(w, http.StatusUnauthorized, "token has been revoked")
					return
				}
			}

			r = httputil.WithUserID(r, claims.GetUserID())
			r = httputil.WithAccessToken(r, token)
			next.ServeHTTP(w, r)
		})
	}
}

// isPublic matches "METHOD /path" and "/path" entries
func isPublic(public map[string]struct{}, r *http.Request) bool {
	if _, ok := public[r.Method+" "+r.URL.Path]; ok {
		return true
	}
	_, ok := public[r.URL.Path]
	return ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if strings.HasSuffix(r.URL.Path, "/stream") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
