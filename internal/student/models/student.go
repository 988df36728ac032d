package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a managed student record. created_by/modified_by reference the
// administrator who last touched the row.
type Student struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      string    `json:"email"`
	Age        int       `json:"age"`
	CreatedBy  uuid.UUID `json:"-"`
	ModifiedBy uuid.UUID `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Snapshot renders the record as an audit before/after payload.
func (s *Student) Snapshot() map[string]any {
	return map[string]any{
		"id":         s.ID.String(),
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"email":      s.Email,
		"age":        s.Age,
	}
}

// StudentInput carries the mutable fields for create/update along with the
// acting administrator.
type StudentInput struct {
	FirstName string
	LastName  string
	Email     string
	Age       int
	ActorID   uuid.UUID
}
