// Package domain holds the entities shared by every layer and the small
// rules that read only their own fields.
package domain

const DefaultDisplayName = "Participant"

type UserID string

// User is the persisted profile the connection gate backfills from.
type User struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Identity is the authenticated principal behind a connection.
// Resolved once at handshake and never mutated afterwards.
type Identity struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

// NeedsProfile reports whether the credential lacked display fields.
func (i Identity) NeedsProfile() bool {
	return i.Name == "" || i.Avatar == "" || i.Role == ""
}

// WithProfile fills empty fields from the stored user.
func (i Identity) WithProfile(u *User) Identity {
	if i.Name == "" {
		i.Name = u.Name
	}
	if i.Email == "" {
		i.Email = u.Email
	}
	if i.Avatar == "" {
		i.Avatar = u.Avatar
	}
	if i.Role == "" {
		i.Role = u.Role
	}
	return i
}

// DisplayName falls back to the email, then to a generic label.
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return DefaultDisplayName
	}
}
