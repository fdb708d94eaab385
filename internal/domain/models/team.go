package models

import "time"

type MemberRole string

const (
	MemberAdmin  MemberRole = "admin"
	MemberMember MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	return r == MemberAdmin || r == MemberMember
}

type TeamMember struct {
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Avatar   string     `json:"avatar,omitempty"`
}

type TeamSettings struct {
	AllowMemberInvites bool       `json:"allow_member_invites"`
	DefaultRole        MemberRole `json:"default_role"`
}

// DefaultTeamSettings returns settings applied to new teams
func DefaultTeamSettings() TeamSettings {
	return TeamSettings{AllowMemberInvites: true, DefaultRole: MemberMember}
}

type Team struct {
	ID          string       `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description string       `json:"description" db:"description"`
	Members     []TeamMember `json:"members" db:"members"`
	Projects    []string     `json:"projects" db:"projects"`
	Settings    TeamSettings `json:"settings" db:"settings"`
	CreatedBy   string       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Member returns the membership entry for userID, or nil.
func (t *Team) Member(userID string) *TeamMember {
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			return &t.Members[i]
		}
	}
	return nil
}

// IsAdmin reports whether userID holds the admin role
func (t *Team) IsAdmin(userID string) bool {
	m := t.Member(userID)
	return m != nil && m.Role == MemberAdmin
}

// AdminCount returns the number of admin members
func (t *Team) AdminCount() int {
	n := 0
	for _, m := range t.Members {
		if m.Role == MemberAdmin {
			n++
		}
	}
	return n
}
