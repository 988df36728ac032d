package models

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization tag controlling access to gated endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an authenticated principal. Email and username are globally unique.
// CreatedBy and ModifiedBy are uuid.Nil while unset; signup self-heals them to
// the user's own ID right after insert so no account keeps a permanently
// absent creator.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedBy    uuid.UUID
	ModifiedBy   uuid.UUID
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// PublicUser is the client-visible projection of a User. The password hash
// and audit columns never leave the service.
type PublicUser struct {
	ID       uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

// Public returns the sanitized view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// RolePolicy decides which role a fresh signup receives. Keeping it a named,
// injectable function makes the assignment testable and swappable.
type RolePolicy func() Role

// FixedRolePolicy always assigns the given role.
func FixedRolePolicy(role Role) RolePolicy {
	return func() Role { return role }
}

// RandomRolePolicy assigns admin or user with equal probability using the
// given source. Tests substitute a seeded source for determinism.
func RandomRolePolicy(rng *rand.Rand) RolePolicy {
	return func() Role {
		if rng.Float64() < 0.5 {
			return RoleAdmin
		}
		return RoleUser
	}
}
