// Package service implements student record management. Every operation
// emits an audit event naming the acting administrator; writes carry
// before/after snapshots of the record.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"studentdesk/internal/audit"
	"studentdesk/internal/platform/metrics"
	"studentdesk/internal/student/models"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/sentinel"
)

// StudentStore is the persistence surface the service depends on.
type StudentStore interface {
	Create(ctx context.Context, student models.Student) error
	Update(ctx context.Context, student models.Student) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	FindAll(ctx context.Context) ([]models.Student, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRecorder mirrors audit.Recorder. Recording never fails the caller.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event)
}

type Service struct {
	students StudentStore
	recorder AuditRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(students StudentStore, opts ...Option) *Service {
	s := &Service{
		students: students,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all student records, newest first.
func (s *Service) List(ctx context.Context, actorID uuid.UUID) ([]models.Student, error) {
	students, err := s.students.FindAll(ctx)
	if err != nil {
		s.logError(ctx, "listing students failed", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list students")
	}

	s.record(ctx, audit.Event{
		ActorID: actorID,
		Action:  audit.ActionListStudents,
		Detail:  map[string]any{"count": len(students)},
	})
	return students, nil
}

// Get returns a single student record by ID.
func (s *Service) Get(ctx context.Context, actorID, studentID uuid.UUID) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Student not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}

	s.record(ctx, audit.Event{
		ActorID:   actorID,
		Action:    audit.ActionViewStudent,
		StudentID: student.ID,
		After:     student.Snapshot(),
	})
	return student, nil
}

// Create inserts a new student record. The email must be unused.
func (s *Service) Create(ctx context.Context, input models.StudentInput) (*models.Student, error) {
	if _, err := s.students.FindByEmail(ctx, input.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "Student with this email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check student email")
	}

	now := s.now().UTC()
	student := models.Student{
		ID:         uuid.New(),
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Age:        input.Age,
		CreatedBy:  input.ActorID,
		ModifiedBy: input.ActorID,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateEmail) {
			return nil, dErrors.New(dErrors.CodeConflict, "Student with this email already exists")
		}
		s.logError(ctx, "creating student failed", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create student")
	}

	if s.metrics != nil {
		s.metrics.IncrementStudentsCreated()
	}
	s.record(ctx, audit.Event{
		ActorID:   input.ActorID,
		Action:    audit.ActionCreateStudent,
		StudentID: student.ID,
		After:     student.Snapshot(),
	})
	return &student, nil
}

// Update replaces the mutable fields of an existing record.
func (s *Service) Update(ctx context.Context, studentID uuid.UUID, input models.StudentInput) (*models.Student, error) {
	current, err := s.students.FindByID(ctx, studentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Student not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}

	updated := *current
	updated.FirstName = input.FirstName
	updated.LastName = input.LastName
	updated.Email = input.Email
	updated.Age = input.Age
	updated.ModifiedBy = input.ActorID
	updated.ModifiedAt = s.now().UTC()

	if err := s.students.Update(ctx, updated); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "Student not found")
		case errors.Is(err, sentinel.ErrDuplicateEmail):
			return nil, dErrors.New(dErrors.CodeConflict, "Student with this email already exists")
		}
		s.logError(ctx, "updating student failed", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update student")
	}

	s.record(ctx, audit.Event{
		ActorID:   input.ActorID,
		Action:    audit.ActionUpdateStudent,
		StudentID: updated.ID,
		Before:    current.Snapshot(),
		After:     updated.Snapshot(),
	})
	return &updated, nil
}

// Delete removes a student record, auditing its final state.
func (s *Service) Delete(ctx context.Context, actorID, studentID uuid.UUID) error {
	current, err := s.students.FindByID(ctx, studentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "Student not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load student")
	}

	if err := s.students.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "Student not found")
		}
		s.logError(ctx, "deleting student failed", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete student")
	}

	s.record(ctx, audit.Event{
		ActorID:   actorID,
		Action:    audit.ActionDeleteStudent,
		StudentID: studentID,
		Before:    current.Snapshot(),
	})
	return nil
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, event)
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.ErrorContext(ctx, msg, "error", err)
}
