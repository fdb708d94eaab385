package models

import "time"

// RoleUser is the application role assigned to new profiles.
const RoleUser = "user"

// UserProfile is the application-side record for an identity.
type UserProfile struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"photo_url"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CurrentUser is the snapshot of the signed-in user handed to clients.
type CurrentUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Role        string `json:"role"`
}

// CurrentUserFromProfile builds the snapshot, defaulting role to "user".
func CurrentUserFromProfile(p *UserProfile) CurrentUser {
	u := CurrentUser{
		UID:         p.ID,
		Email:       p.Email,
		DisplayName: p.Name,
		Role:        p.Role,
	}
	if p.PhotoURL != nil {
		u.PhotoURL = *p.PhotoURL
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return u
}

// Session is returned by login and registration.
type Session struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        CurrentUser `json:"user"`
}

// AuthEventType describes a change in authentication state.
type AuthEventType string

const (
	AuthEventSignedIn  AuthEventType = "signed_in"
	AuthEventUpdated   AuthEventType = "updated"
	AuthEventSignedOut AuthEventType = "signed_out"
)

// AuthEvent is pushed to auth-state subscribers. User is nil on sign-out.
type AuthEvent struct {
	Type AuthEventType `json:"type"`
	User *CurrentUser  `json:"user"`
}

// Credential is a locally managed password login.
type Credential struct {
	UserID       string    `db:"user_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Disabled     bool      `db:"disabled"`
	CreatedAt    time.Time `db:"created_at"`
}
