package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sitetrack/internal/auth"
	"sitetrack/internal/domain"
	"sitetrack/internal/domain/models"
	"sitetrack/internal/domain/repositories"
	"sitetrack/internal/domain/services"
	"sitetrack/internal/metrics"
)

// authTable is the in-process change table for sign-in and sign-out
const authTable = "auth"

// sessionService implements the SessionService interface
type sessionService struct {
	provider auth.IdentityProvider
	verifier auth.JWTVerifier
	limiter  auth.AttemptLimiter // optional
	denyList auth.TokenDenyList  // optional
	userRepo repositories.UserRepository
	feed     repositories.ChangeFeed
	logger   *slog.Logger
}

// NewSessionService creates the session service. limiter and denyList may
// be nil, which disables login throttling and token revocation.
func NewSessionService(
	provider auth.IdentityProvider,
	verifier auth.JWTVerifier,
	limiter auth.AttemptLimiter,
	denyList auth.TokenDenyList,
	userRepo repositories.UserRepository,
	feed repositories.ChangeFeed,
	logger *slog.Logger,
) services.SessionService {
	return &sessionService{
		provider: provider,
		verifier: verifier,
		limiter:  limiter,
		denyList: denyList,
		userRepo: userRepo,
		feed:     feed,
		logger:   logger,
	}
}

// Login signs in with email and password
func (s *sessionService) Login(ctx context.Context, req *services.LoginRequest) (*models.Session, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &domain.ValidationError{Message: "Please enter both email and password"}
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allowed(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", "error", err)
		} else if !allowed {
			metrics.IncrementLoginAttempt("throttled")
			return nil, domain.NewAuthError(domain.AuthTooManyAttempts)
		}
	}

	identity, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) && authErr.Code == domain.AuthInvalidCredentials && s.limiter != nil {
			if lerr := s.limiter.RecordFailure(ctx, email); lerr != nil {
				s.logger.Warn("failed to record login failure", "error", lerr)
			}
		}
		metrics.IncrementLoginAttempt("failed")
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("failed to reset login attempts", "error", err)
		}
	}
	metrics.IncrementLoginAttempt("success")

	profile, err := s.ensureProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", "user_id", identity.UID)
	s.feed.Publish(repositories.ChangeEvent{Table: authTable, Op: string(models.AuthEventSignedIn), ID: identity.UID})

	return &models.Session{
		AccessToken: identity.AccessToken,
		ExpiresAt:   identity.ExpiresAt,
		User:        models.CurrentUserFromProfile(profile),
	}, nil
}

// Register creates an account and its profile
func (s *sessionService) Register(ctx context.Context, req *services.RegisterRequest) (*models.Session, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, &domain.ValidationError{Message: "Please fill in all fields"}
	}

	if err := auth.ValidatePasswordPolicy(req.Password); err != nil {
		return nil, &domain.AuthError{Code: domain.AuthWeakPassword, Message: err.Error()}
	}

	identity, err := s.provider.SignUp(ctx, name, email, req.Password)
	if err != nil {
		return nil, err
	}
	if identity.Name == "" {
		identity.Name = name
	}

	profile, err := s.ensureProfile(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", identity.UID)
	if identity.AccessToken != "" {
		s.feed.Publish(repositories.ChangeEvent{Table: authTable, Op: string(models.AuthEventSignedIn), ID: identity.UID})
	}

	return &models.Session{
		AccessToken: identity.AccessToken,
		ExpiresAt:   identity.ExpiresAt,
		User:        models.CurrentUserFromProfile(profile),
	}, nil
}

// Logout revokes the access token until it expires and ends the session
// at the provider
func (s *sessionService) Logout(ctx context.Context, userID, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: access token is required", domain.ErrValidation)
	}

	if s.denyList != nil {
		// an already expired token has nothing to revoke
		if claims, err := s.verifier.VerifyToken(accessToken); err == nil && claims.ExpiresAt != nil {
			if err := s.denyList.Revoke(ctx, accessToken, claims.ExpiresAt.Time); err != nil {
				return fmt.Errorf("revoke token: %w", err)
			}
		}
	}

	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.logger.Info("user signed out", "user_id", userID)
	s.feed.Publish(repositories.ChangeEvent{Table: authTable, Op: string(models.AuthEventSignedOut), ID: userID})

	return nil
}

// CurrentUser returns the snapshot for userID
func (s *sessionService) CurrentUser(ctx context.Context, userID string) (*models.CurrentUser, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u := models.CurrentUserFromProfile(profile)
	return &u, nil
}

// UpdateProfile merges name, photo and phone into the profile
func (s *sessionService) UpdateProfile(ctx context.Context, userID string, req *services.UpdateProfileRequest) (*models.CurrentUser, error) {
	profile, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name: cannot be blank", domain.ErrValidation)
		}
		profile.Name = name
	}
	if req.PhotoURL != nil {
		profile.PhotoURL = emptyToNil(*req.PhotoURL)
	}
	if req.Phone != nil {
		profile.Phone = emptyToNil(*req.Phone)
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID)

	u := models.CurrentUserFromProfile(profile)
	return &u, nil
}

// ListMembers returns every profile, ordered by name
func (s *sessionService) ListMembers(ctx context.Context) ([]models.UserProfile, error) {
	return s.userRepo.List(ctx)
}

// SubscribeAuthState streams the user's snapshot on every profile change
// or sign-in and ends with a signed_out event
func (s *sessionService) SubscribeAuthState(ctx context.Context, userID string) (<-chan models.AuthEvent, error) {
	changes := s.feed.Subscribe(ctx, authTable, "users")

	current, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make(chan models.AuthEvent, 1)
	out <- models.AuthEvent{Type: models.AuthEventSignedIn, User: current}

	go func() {
		defer close(out)
		defer metrics.TrackSubscription("auth")()

		for {
			var ev repositories.ChangeEvent
			select {
			case <-ctx.Done():
				return
			case e, ok := <-changes:
				if !ok {
					return
				}
				ev = e
			}
			if ev.ID != userID && ev.Op != repositories.OpResync {
				continue
			}

			next := models.AuthEvent{Type: models.AuthEventUpdated}
			switch {
			case ev.Table == authTable && ev.Op == string(models.AuthEventSignedOut):
				next.Type = models.AuthEventSignedOut
			default:
				if ev.Table == authTable && ev.Op == string(models.AuthEventSignedIn) {
					next.Type = models.AuthEventSignedIn
				}
				user, err := s.CurrentUser(ctx, userID)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.logger.Warn("auth state refresh failed", "user_id", userID, "error", err)
					continue
				}
				next.User = user
			}

			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
			if next.Type == models.AuthEventSignedOut {
				return
			}
		}
	}()

	return out, nil
}

// ensureProfile returns the profile for identity, creating it on first use
func (s *sessionService) ensureProfile(ctx context.Context, identity *auth.Identity) (*models.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, identity.UID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	name := identity.Name
	if name == "" {
		name, _, _ = strings.Cut(identity.Email, "@")
	}
	now := time.Now().UTC()
	profile = &models.UserProfile{
		ID:        identity.UID,
		Email:     normalizeEmail(identity.Email),
		Name:      name,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.userRepo.GetByID(ctx, identity.UID)
		}
		return nil, err
	}

	s.logger.Info("profile created", "user_id", profile.ID)
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
