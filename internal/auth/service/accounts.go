package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"studentdesk/internal/audit"
	"studentdesk/internal/auth/models"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/sentinel"
)

// Logout has no server-side session to tear down; tokens expire by their
// embedded deadline. It only records who left, when an identity is attached.
func (s *Service) Logout(ctx context.Context, actorID uuid.UUID) {
	if actorID == uuid.Nil {
		return
	}
	s.logInfo(ctx, "user logged out", "user_id", actorID.String())
	s.record(ctx, audit.Event{
		ActorID: actorID,
		Action:  audit.ActionLogout,
	})
}

// ListUsers returns all accounts; access itself is a recorded event.
func (s *Service) ListUsers(ctx context.Context, actorID uuid.UUID) ([]models.PublicUser, error) {
	s.logInfo(ctx, "accessed all users list", "actor_id", actorID.String())
	s.record(ctx, audit.Event{
		ActorID: actorID,
		Action:  audit.ActionAccessUsers,
	})

	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch users")
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	return public, nil
}

// DeleteUser removes an account (administrative path). The deletion is
// itself audited.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	s.logInfo(ctx, "attempting account deletion", "user_id", userID.String())

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	s.record(ctx, audit.Event{
		ActorID: actorID,
		Action:  audit.ActionDeleteAccount,
		Detail:  map[string]any{"deleted_user_id": userID.String()},
	})
	return nil
}
