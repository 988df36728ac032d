package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"studentdesk/internal/student/models"
	"studentdesk/pkg/platform/sentinel"
)

const studentColumns = `id, first_name, last_name, email, age, created_by, modified_by, created_at, modified_at`

// PostgresStore persists student records in the students table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, student models.Student) error {
	query := `
		INSERT INTO students (id, first_name, last_name, email, age, created_by, modified_by, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Age,
		nullableUUID(student.CreatedBy),
		nullableUUID(student.ModifiedBy),
		student.CreatedAt,
		student.ModifiedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicateEmail
		}
		return fmt.Errorf("inserting student: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, student models.Student) error {
	query := `
		UPDATE students
		SET first_name = $2, last_name = $3, email = $4, age = $5, modified_by = $6, modified_at = $7
		WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query,
		student.ID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.Age,
		nullableUUID(student.ModifiedBy),
		student.ModifiedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicateEmail
		}
		return fmt.Errorf("updating student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return s.findOne(ctx, query, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return s.findOne(ctx, query, email)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating students: %w", err)
	}
	return students, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Student, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return student, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		student    models.Student
		createdBy  uuid.NullUUID
		modifiedBy uuid.NullUUID
	)
	err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Age,
		&createdBy,
		&modifiedBy,
		&student.CreatedAt,
		&student.ModifiedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning student row: %w", err)
	}
	student.CreatedBy = createdBy.UUID
	student.ModifiedBy = modifiedBy.UUID
	return &student, nil
}

func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
