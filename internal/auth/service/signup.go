package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"studentdesk/internal/audit"
	"studentdesk/internal/auth/models"
	"studentdesk/internal/auth/passwords"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/sentinel"
)

// Signup registers a new account and returns it with a freshly minted token.
//
// The email/username lookups are advisory pre-checks: two concurrent signups
// can both pass them, and the store's unique constraints are the real
// enforcement boundary. A constraint hit on insert maps to the same conflict
// errors as the pre-checks.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*AuthResult, error) {
	s.logInfo(ctx, "attempting signup", "email", email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.logWarn(ctx, "signup failed: email already exists", "email", email)
		return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		s.logWarn(ctx, "signup failed: username already exists", "username", username)
		return nil, dErrors.New(dErrors.CodeConflict, "Username already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}

	hash, err := passwords.Hash(password, s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         s.rolePolicy(),
		// Public signup: the actor does not exist yet, so the audit
		// columns start empty and are healed right after insert.
		CreatedBy:  uuid.Nil,
		ModifiedBy: uuid.Nil,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrDuplicateEmail):
			return nil, dErrors.New(dErrors.CodeConflict, "User already exists")
		case errors.Is(err, sentinel.ErrDuplicateUsername):
			return nil, dErrors.New(dErrors.CodeConflict, "Username already exists")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
	}

	// Self-heal the audit columns: the user created themselves.
	if err := s.users.UpdateAuditInfo(ctx, user.ID, user.ID, user.ID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user audit info")
	}
	user.CreatedBy = user.ID
	user.ModifiedBy = user.ID

	s.logInfo(ctx, "user created", "user_id", user.ID.String(), "username", username)
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}

	s.record(ctx, audit.Event{
		ActorID: user.ID,
		Action:  audit.ActionSignupSuccess,
		Detail:  map[string]any{"username": username, "email": email},
	})

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Username, string(user.Role))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &AuthResult{User: user.Public(), Token: token}, nil
}
