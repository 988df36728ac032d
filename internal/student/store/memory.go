package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"studentdesk/internal/student/models"
	"studentdesk/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed student store for tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	students map[uuid.UUID]models.Student
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{students: make(map[uuid.UUID]models.Student)}
}

func (s *InMemoryStore) Create(_ context.Context, student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.students {
		if existing.Email == student.Email {
			return sentinel.ErrDuplicateEmail
		}
	}
	s.students[student.ID] = student
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, student models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.students[student.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	for id, existing := range s.students {
		if id != student.ID && existing.Email == student.Email {
			return sentinel.ErrDuplicateEmail
		}
	}
	student.CreatedBy = current.CreatedBy
	student.CreatedAt = current.CreatedAt
	s.students[student.ID] = student
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &student, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, student := range s.students {
		if student.Email == email {
			out := student
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]models.Student, 0, len(s.students))
	for _, student := range s.students {
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].CreatedAt.After(students[j].CreatedAt)
	})
	return students, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.students[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.students, id)
	return nil
}
