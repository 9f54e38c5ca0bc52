package models

import "time"

// Role controls what a user can see and change.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserProfile is the per-user record holding the role flag.
type UserProfile struct {
	UID       string    `bson:"_id" json:"uid"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u UserProfile) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials holds the sign-in secret for an identity.
type Credentials struct {
	UID          string    `bson:"_id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name,omitempty"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}
