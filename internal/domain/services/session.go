package services

import (
	"context"

	"sitetrack/internal/domain/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a merge-patch of the caller's profile
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	PhotoURL *string `json:"photo_url"`
	Phone    *string `json:"phone"`
}

// SessionService manages sign-in state and the current-user snapshot
type SessionService interface {
	Login(ctx context.Context, req *LoginRequest) (*models.Session, error)
	Register(ctx context.Context, req *RegisterRequest) (*models.Session, error)

	// Logout revokes the token. Calling it again with the same token succeeds.
	Logout(ctx context.Context, userID, accessToken string) error

	CurrentUser(ctx context.Context, userID string) (*models.CurrentUser, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.CurrentUser, error)

	// ListMembers returns every user profile ordered by name
	ListMembers(ctx context.Context) ([]models.UserProfile, error)

	// SubscribeAuthState emits the current snapshot first, then every
	// change until ctx is done or the user signs out.
	SubscribeAuthState(ctx context.Context, userID string) (<-chan models.AuthEvent, error)
}
