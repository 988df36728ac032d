package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"studentdesk/internal/audit"
	"studentdesk/internal/auth/models"
	"studentdesk/internal/platform/metrics"
)

// UserStore is the credential store consumed by the service. Stores return
// sentinel errors; the service translates them into domain errors.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	UpdateAuditInfo(ctx context.Context, userID, createdBy, modifiedBy uuid.UUID) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// TokenIssuer mints access tokens for authenticated identities.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email, username, role string) (string, error)
}

// AuditRecorder is the dual-sink audit pipeline. Record never reports
// failure; auditing is best-effort with respect to the primary operation.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

// AuthResult bundles what the auth endpoints return on success.
type AuthResult struct {
	User  models.PublicUser
	Token string
}

// Service orchestrates signup, login, logout and account administration.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	recorder   AuditRecorder
	logger     *slog.Logger
	metrics    *metrics.Metrics
	rolePolicy models.RolePolicy
	bcryptCost int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRolePolicy overrides the default fixed "user" assignment.
func WithRolePolicy(policy models.RolePolicy) Option {
	return func(s *Service) {
		s.rolePolicy = policy
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// New constructs a Service.
func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		rolePolicy: models.FixedRolePolicy(models.RoleUser),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.recorder != nil {
		s.recorder.Record(ctx, event)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, attrs...)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, attrs...)
	}
}
