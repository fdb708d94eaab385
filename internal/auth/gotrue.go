package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sitetrack/internal/domain"
)

// SupabaseProvider implements IdentityProvider against the GoTrue REST API
type SupabaseProvider struct {
	supabaseURL string
	anonKey     string
	httpClient  *http.Client
}

// NewSupabaseProvider creates a GoTrue client. anonKey is the project's
// public API key.
func NewSupabaseProvider(supabaseURL, anonKey string) *SupabaseProvider {
	return &SupabaseProvider{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type gotrueUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   int64      `json:"expires_at"`
	ExpiresIn   int64      `json:"expires_in"`
	User        gotrueUser `json:"user"`

	// Signup without auto-confirm returns the bare user
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// SignIn exchanges email and password for a session
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var sess gotrueSession
	err := p.post(ctx, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	return sess.identity(), nil
}

// SignUp registers a user. When the project requires email confirmation
// the returned identity has no access token.
func (p *SupabaseProvider) SignUp(ctx context.Context, name, email, password string) (*Identity, error) {
	var sess gotrueSession
	err := p.post(ctx, "/auth/v1/signup", "", map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}, &sess)
	if err != nil {
		return nil, err
	}
	id := sess.identity()
	if id.Name == "" {
		id.Name = name
	}
	return id, nil
}

// SignOut revokes the session; an already revoked token is accepted
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	err := p.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
	var status *statusError
	if errors.As(err, &status) && (status.code == http.StatusUnauthorized || status.code == http.StatusForbidden || status.code == http.StatusNotFound) {
		return nil
	}
	return err
}

func (s *gotrueSession) identity() *Identity {
	u := s.User
	if u.ID == "" {
		u = gotrueUser{ID: s.ID, Email: s.Email}
	}
	id := &Identity{
		UID:         u.ID,
		Email:       u.Email,
		AccessToken: s.AccessToken,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		id.Name = name
	}
	switch {
	case s.ExpiresAt > 0:
		id.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		id.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return id
}

func (p *SupabaseProvider) post(ctx context.Context, path, bearer string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.supabaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return mapGoTrueError(resp.StatusCode, respBody)
	}

	if dest == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	return nil
}

// statusError is an unclassified GoTrue failure
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("auth service returned status %d: %s", e.code, e.body)
}

// mapGoTrueError converts GoTrue error payloads (both the error_code form
// and the older OAuth error form) into AuthError codes.
func mapGoTrueError(status int, body []byte) error {
	var e gotrueError
	_ = json.Unmarshal(body, &e)

	code := e.ErrorCode
	if code == "" {
		code = e.Error
	}

	switch code {
	case "invalid_credentials", "invalid_grant", "email_not_confirmed", "user_not_found":
		return domain.NewAuthError(domain.AuthInvalidCredentials)
	case "user_banned":
		return domain.NewAuthError(domain.AuthAccountDisabled)
	case "over_request_rate_limit", "over_email_send_rate_limit":
		return domain.NewAuthError(domain.AuthTooManyAttempts)
	case "user_already_exists", "email_exists":
		return domain.NewAuthError(domain.AuthEmailInUse)
	case "weak_password":
		ae := domain.NewAuthError(domain.AuthWeakPassword)
		if e.Msg != "" {
			ae.Message = e.Msg
		}
		return ae
	case "email_address_invalid", "validation_failed":
		return domain.NewAuthError(domain.AuthInvalidEmail)
	}

	if status == http.StatusTooManyRequests {
		return domain.NewAuthError(domain.AuthTooManyAttempts)
	}
	return &statusError{code: status, body: string(body)}
}
