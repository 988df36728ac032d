package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"studentdesk/internal/platform/metrics"
	"studentdesk/pkg/requestcontext"
)

// Store is the durable sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]Event, error)
}

// Recorder is the dual-sink audit pipeline: every event goes to the
// structured log stream unconditionally, then to the durable store
// best-effort. A store failure is logged with the original payload and
// swallowed - the caller's primary operation already succeeded and must not
// be rolled back because auditing failed. Record therefore returns nothing.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type RecorderOption func(*Recorder)

func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder constructs a Recorder. The store may be nil, in which case
// events only reach the log stream.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record emits the event to both sinks. IP and User-Agent default to the
// request context values when unset; the timestamp defaults to now.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}

	attrs := r.logAttrs(ctx, event)
	if r.logger != nil {
		r.logger.InfoContext(ctx, string(event.Action), attrs...)
	}

	if r.store == nil {
		return
	}
	if err := r.store.Append(ctx, event); err != nil {
		if r.metrics != nil {
			r.metrics.IncrementAuditStoreFailures()
		}
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "audit store write failed",
				append([]any{"error", err.Error()}, attrs...)...,
			)
		}
	}
}

// ListRecent returns the most recent durable events, newest first. A
// log-only Recorder has no history and returns an empty slice.
func (r *Recorder) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if r.store == nil {
		return []Event{}, nil
	}
	return r.store.ListRecent(ctx, limit)
}

// ListByActor returns the durable events recorded for one actor. A
// log-only Recorder has no history and returns an empty slice.
func (r *Recorder) ListByActor(ctx context.Context, actorID uuid.UUID) ([]Event, error) {
	if r.store == nil {
		return []Event{}, nil
	}
	return r.store.ListByActor(ctx, actorID)
}

func (r *Recorder) logAttrs(ctx context.Context, event Event) []any {
	attrs := []any{
		"log_type", "audit",
		"action", string(event.Action),
		"category", string(event.Action.Category()),
		"ip", event.IP,
	}
	if event.ActorID != uuid.Nil {
		attrs = append(attrs, "actor_id", event.ActorID.String())
	}
	if event.StudentID != uuid.Nil {
		attrs = append(attrs, "student_id", event.StudentID.String())
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	if event.UserAgent != "" {
		ua := useragent.New(event.UserAgent)
		browser, version := ua.Browser()
		attrs = append(attrs,
			"user_agent", event.UserAgent,
			"ua_browser", browser+" "+version,
			"ua_os", ua.OS(),
		)
	}
	if len(event.Detail) > 0 {
		attrs = append(attrs, "detail", event.Detail)
	}
	return attrs
}
