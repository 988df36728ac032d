package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studentdesk/internal/audit"
)

// Store persists audit events in PostgreSQL. Account-level events land in
// audit_events; student-record events land in student_audit_events with
// before/after snapshots. Both tables are append-only.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes a single audit event. The actor column is NULL for
// unauthenticated events (e.g. failed login for an unknown email).
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.StudentScoped() {
		return s.appendStudent(ctx, event)
	}
	return s.appendAccount(ctx, event)
}

func (s *Store) appendAccount(ctx context.Context, event audit.Event) error {
	detail, err := marshalNullable(event.Detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, actor_id, action, category, detail, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		nullableUUID(event.ActorID),
		string(event.Action),
		string(event.Action.Category()),
		detail,
		event.IP,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) appendStudent(ctx context.Context, event audit.Event) error {
	before, err := marshalNullable(event.Before)
	if err != nil {
		return fmt.Errorf("marshal before snapshot: %w", err)
	}
	after, err := marshalNullable(event.After)
	if err != nil {
		return fmt.Errorf("marshal after snapshot: %w", err)
	}

	query := `
		INSERT INTO student_audit_events
			(id, student_id, action, performed_by, old_data, new_data, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		nullableUUID(event.StudentID),
		string(event.Action),
		nullableUUID(event.ActorID),
		before,
		after,
		event.IP,
		event.UserAgent,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert student audit event: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent account-level events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT actor_id, action, detail, ip_address, user_agent, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListByActor returns account-level events for a specific actor.
func (s *Store) ListByActor(ctx context.Context, actorID uuid.UUID) ([]audit.Event, error) {
	query := `
		SELECT actor_id, action, detail, ip_address, user_agent, created_at
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("query audit events by actor: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			event   audit.Event
			actorID uuid.NullUUID
			action  string
			detail  []byte
			created time.Time
		)

		err := rows.Scan(&actorID, &action, &detail, &event.IP, &event.UserAgent, &created)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Action = audit.Action(action)
		event.Timestamp = created
		event.ActorID = actorID.UUID
		if len(detail) > 0 {
			var m map[string]any
			if err := json.Unmarshal(detail, &m); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
			event.Detail = m
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}

func marshalNullable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
