package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"studentdesk/internal/auth/models"
	"studentdesk/pkg/platform/sentinel"
)

// PostgresStore persists users in the users table. Unique-violation errors
// from the email/username constraints surface as sentinel duplicates so the
// service maps races the same way as its advisory pre-checks.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `user_id, username, email, password_hash, role, created_by, modified_by, created_at, modified_at`

// Create inserts a new user row. created_by/modified_by may be uuid.Nil and
// are stored as NULL; signup heals them in a second write.
func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, username, email, password_hash, role, created_by, modified_by, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullableUUID(user.CreatedBy),
		nullableUUID(user.ModifiedBy),
		user.CreatedAt,
		user.ModifiedAt,
	)
	if err != nil {
		if dup := duplicateSentinel(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateAuditInfo sets the created_by/modified_by audit columns.
func (s *PostgresStore) UpdateAuditInfo(ctx context.Context, userID, createdBy, modifiedBy uuid.UUID) error {
	query := `
		UPDATE users
		SET created_by = $2, modified_by = $3, modified_at = now()
		WHERE user_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, userID, nullableUUID(createdBy), nullableUUID(modifiedBy))
	if err != nil {
		return fmt.Errorf("update user audit info: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user audit info: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByEmail returns the user with the given email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByUsername returns the user with the given username.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByID returns the user with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

// FindAll returns every user, newest first.
func (s *PostgresStore) FindAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// Delete removes a user row; ErrNotFound when nothing was affected.
func (s *PostgresStore) Delete(ctx context.Context, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user       models.User
		role       string
		createdBy  uuid.NullUUID
		modifiedBy uuid.NullUUID
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&createdBy,
		&modifiedBy,
		&user.CreatedAt,
		&user.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.Role(role)
	user.CreatedBy = createdBy.UUID
	user.ModifiedBy = modifiedBy.UUID
	return &user, nil
}

// duplicateSentinel translates a unique_violation (23505) into the matching
// sentinel, keyed off the constraint name.
func duplicateSentinel(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return sentinel.ErrDuplicateEmail
	case strings.Contains(pqErr.Constraint, "username"):
		return sentinel.ErrDuplicateUsername
	default:
		return sentinel.ErrConflict
	}
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
