package service

import (
	"context"
	"errors"

	"studentdesk/internal/audit"
	"studentdesk/internal/auth/passwords"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/sentinel"
)

// Login authenticates email/password credentials and mints a token.
//
// The client-facing error is identical whether the email is unknown or the
// password is wrong; the audit detail keeps the distinguishing reason for
// forensics.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logInfo(ctx, "login attempt", "email", email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		}
		s.logWarn(ctx, "login failed: user not found", "email", email)
		if s.metrics != nil {
			s.metrics.IncrementLoginFailures()
		}
		s.record(ctx, audit.Event{
			Action: audit.ActionLoginFailure,
			Detail: map[string]any{"email": email, "reason": "User not found"},
		})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	if !passwords.Verify(password, user.PasswordHash) {
		s.logWarn(ctx, "login failed: incorrect password", "email", email)
		if s.metrics != nil {
			s.metrics.IncrementLoginFailures()
		}
		s.record(ctx, audit.Event{
			ActorID: user.ID,
			Action:  audit.ActionLoginFailure,
			Detail:  map[string]any{"email": email, "reason": "Incorrect password"},
		})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	s.logInfo(ctx, "login successful", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementLoginSuccesses()
	}
	s.record(ctx, audit.Event{
		ActorID: user.ID,
		Action:  audit.ActionLoginSuccess,
	})

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Username, string(user.Role))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	return &AuthResult{User: user.Public(), Token: token}, nil
}
