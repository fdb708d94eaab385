package models

import "github.com/golang-jwt/jwt/v5"

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// The local identity provider mints tokens with the same shape so a single
// verifier path serves both.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	Phone                string                 `json:"phone,omitempty"`
	UserMetadata         map[string]interface{} `json:"user_metadata,omitempty"`
	Role                 string                 `json:"role"` // "authenticated" or "anon"
	SessionID            string                 `json:"session_id,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// DisplayName returns the name stored in user metadata, if any.
func (c *SupabaseClaims) DisplayName() string {
	if c.UserMetadata == nil {
		return ""
	}
	name, _ := c.UserMetadata["name"].(string)
	return name
}
