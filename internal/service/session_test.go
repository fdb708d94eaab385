package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sitetrack/internal/auth"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/services"
)

const testSecret = "test-secret-with-enough-entropy-123"

type memCredentials struct {
	mu    sync.Mutex
	creds map[string]models.Credential
}

func (c *memCredentials) Create(ctx context.Context, cred *models.Credential) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(cred.Email)
	if _, ok := c.creds[key]; ok {
		return &domain.ConflictError{Message: "email exists", ResourceType: "credential"}
	}
	c.creds[key] = *cred
	return nil
}

func (c *memCredentials) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cred, ok := c.creds[strings.ToLower(email)]
	if !ok {
		return nil, notFound("credential", email)
	}
	return &cred, nil
}

type memLimiter struct {
	mu       sync.Mutex
	max      int
	failures map[string]int
}

func (l *memLimiter) Allowed(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures[key] < l.max, nil
}

func (l *memLimiter) RecordFailure(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key]++
	return nil
}

func (l *memLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
	return nil
}

type memDenyList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (d *memDenyList) Revoke(ctx context.Context, token string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[token] = until
	return nil
}

func (d *memDenyList) IsRevoked(ctx context.Context, token string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[token]
	return ok, nil
}

type sessionFixture struct {
	m       *memStore
	svc     services.SessionService
	denied  *memDenyList
	limiter *memLimiter
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	m := newMemStore()
	creds := &memCredentials{creds: map[string]models.Credential{}}
	provider := auth.NewLocalProvider(creds, testSecret, time.Hour)
	verifier, err := auth.NewHMACVerifier(testSecret, testLogger())
	if err != nil {
		t.Fatalf("NewHMACVerifier: %v", err)
	}
	limiter := &memLimiter{max: 3, failures: map[string]int{}}
	denied := &memDenyList{revoked: map[string]time.Time{}}
	svc := NewSessionService(provider, verifier, limiter, denied, userRepo{m}, m.feed, testLogger())
	return &sessionFixture{m: m, svc: svc, denied: denied, limiter: limiter}
}

func TestRegisterThenLogin_SameUID(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, &services.RegisterRequest{
		Name:     "Grace Site",
		Email:    "Grace@Example.com",
		Password: "Concrete42",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Role != models.RoleUser || registered.User.DisplayName != "Grace Site" {
		t.Errorf("user = %+v", registered.User)
	}

	session, err := f.svc.Login(ctx, &services.LoginRequest{Email: "grace@example.com", Password: "Concrete42"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.User.UID != registered.User.UID {
		t.Errorf("uid = %q, want %q", session.User.UID, registered.User.UID)
	}
	if session.AccessToken == "" || !session.ExpiresAt.After(time.Now()) {
		t.Errorf("session = %+v", session)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		req      services.RegisterRequest
		wantCode domain.AuthErrorCode
		wantMsg  string
	}{
		{"missing name", services.RegisterRequest{Email: "a@b.co", Password: "Abcdefg1"}, "", "Please fill in all fields"},
		{"short password", services.RegisterRequest{Name: "A", Email: "a@b.co", Password: "Ab1"}, domain.AuthWeakPassword, "Password must be at least 8 characters long"},
		{"no digit", services.RegisterRequest{Name: "A", Email: "a@b.co", Password: "Abcdefgh"}, domain.AuthWeakPassword, "Password must contain at least one number"},
		{"bad email", services.RegisterRequest{Name: "A", Email: "not-an-email", Password: "Abcdefg1"}, domain.AuthInvalidEmail, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			req := tt.req
			_, err := f.svc.Register(context.Background(), &req)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantCode != "" {
				var authErr *domain.AuthError
				if !errors.As(err, &authErr) || authErr.Code != tt.wantCode {
					t.Fatalf("err = %v, want code %s", err, tt.wantCode)
				}
			} else if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRegister_EmailInUse(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	req := &services.RegisterRequest{Name: "A", Email: "dup@example.com", Password: "Abcdefg1"}
	if _, err := f.svc.Register(ctx, req); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Register(ctx, req)
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) || authErr.Code != domain.AuthEmailInUse {
		t.Errorf("err = %v, want email_in_use", err)
	}
}

func TestLogin_ThrottlesAfterFailures(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Register(ctx, &services.RegisterRequest{Name: "A", Email: "t@example.com", Password: "Abcdefg1"})

	if _, err := f.svc.Login(ctx, &services.LoginRequest{Email: "", Password: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty email err = %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := f.svc.Login(ctx, &services.LoginRequest{Email: "t@example.com", Password: "wrong"})
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) || authErr.Code != domain.AuthInvalidCredentials {
			t.Fatalf("attempt %d err = %v, want invalid_credentials", i, err)
		}
	}

	_, err := f.svc.Login(ctx, &services.LoginRequest{Email: "t@example.com", Password: "Abcdefg1"})
	var authErr *domain.AuthError
	if !errors.As(err, &authErr) || authErr.Code != domain.AuthTooManyAttempts {
		t.Errorf("err = %v, want too_many_attempts", err)
	}
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()
	s, err := f.svc.Register(ctx, &services.RegisterRequest{Name: "A", Email: "out@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Logout(ctx, s.User.UID, s.AccessToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if revoked, _ := f.denied.IsRevoked(ctx, s.AccessToken); !revoked {
		t.Error("token not revoked")
	}
	if err := f.svc.Logout(ctx, s.User.UID, s.AccessToken); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestSubscribeAuthState(t *testing.T) {
	f := newSessionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := f.svc.Register(context.Background(), &services.RegisterRequest{Name: "Sub", Email: "sub@example.com", Password: "Abcdefg1"})
	if err != nil {
		t.Fatal(err)
	}

	ch, err := f.svc.SubscribeAuthState(ctx, s.User.UID)
	if err != nil {
		t.Fatalf("SubscribeAuthState: %v", err)
	}
	first := receiveSnapshot(t, ch)
	if first.User == nil || first.User.UID != s.User.UID {
		t.Fatalf("first = %+v", first)
	}

	name := "Renamed"
	if _, err := f.svc.UpdateProfile(context.Background(), s.User.UID, &services.UpdateProfileRequest{Name: &name}); err != nil {
		t.Fatal(err)
	}
	updated := receiveSnapshot(t, ch)
	if updated.Type != models.AuthEventUpdated || updated.User.DisplayName != "Renamed" {
		t.Errorf("updated = %+v", updated)
	}

	if err := f.svc.Logout(context.Background(), s.User.UID, s.AccessToken); err != nil {
		t.Fatal(err)
	}
	out := receiveSnapshot(t, ch)
	if out.Type != models.AuthEventSignedOut || out.User != nil {
		t.Errorf("signed out = %+v", out)
	}
	if _, ok := <-ch; ok {
		t.Error("stream should close after sign-out")
	}
}
