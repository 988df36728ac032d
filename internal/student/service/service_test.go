package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdesk/internal/audit"
	auditmemory "studentdesk/internal/audit/store/memory"
	"studentdesk/internal/student/models"
	"studentdesk/internal/student/store"
	dErrors "studentdesk/pkg/domain-errors"
)

func newTestService(t *testing.T) (*Service, *store.InMemoryStore, *auditmemory.InMemoryStore) {
	t.Helper()

	students := store.NewInMemoryStore()
	events := auditmemory.NewInMemoryStore()
	recorder := audit.NewRecorder(events)
	svc := New(students, WithAuditRecorder(recorder))
	return svc, students, events
}

func Test_Create(t *testing.T) {
	svc, _, events := newTestService(t)
	actorID := uuid.New()

	student, err := svc.Create(context.Background(), models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   actorID,
	})
	require.NoError(t, err)
	require.NotNil(t, student)

	assert.NotEqual(t, uuid.Nil, student.ID)
	assert.Equal(t, "ada@example.com", student.Email)
	assert.Equal(t, actorID, student.CreatedBy)
	assert.Equal(t, actorID, student.ModifiedBy)
	assert.WithinDuration(t, time.Now(), student.CreatedAt, time.Minute)

	recorded := events.All()
	require.Len(t, recorded, 1)
	assert.Equal(t, audit.ActionCreateStudent, recorded[0].Action)
	assert.Equal(t, student.ID, recorded[0].StudentID)
	assert.Equal(t, actorID, recorded[0].ActorID)
	require.NotNil(t, recorded[0].After)
	assert.Nil(t, recorded[0].Before)
}

func Test_Create_DuplicateEmail(t *testing.T) {
	svc, students, _ := newTestService(t)

	input := models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   uuid.New(),
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	input.FirstName = "Grace"
	_, err = svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, "Student with this email already exists", dErrors.MessageOf(err))

	all, err := students.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func Test_Update(t *testing.T) {
	svc, _, events := newTestService(t)
	creatorID := uuid.New()
	editorID := uuid.New()

	student, err := svc.Create(context.Background(), models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   creatorID,
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), student.ID, models.StudentInput{
		FirstName: "Ada",
		LastName:  "King",
		Email:     "ada@example.com",
		Age:       21,
		ActorID:   editorID,
	})
	require.NoError(t, err)

	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, 21, updated.Age)
	assert.Equal(t, creatorID, updated.CreatedBy)
	assert.Equal(t, editorID, updated.ModifiedBy)

	recorded := events.All()
	require.Len(t, recorded, 2)
	event := recorded[1]
	assert.Equal(t, audit.ActionUpdateStudent, event.Action)
	require.NotNil(t, event.Before)
	require.NotNil(t, event.After)
	before := event.Before.(map[string]any)
	after := event.After.(map[string]any)
	assert.Equal(t, "Lovelace", before["last_name"])
	assert.Equal(t, "King", after["last_name"])
}

func Test_Update_NotFound(t *testing.T) {
	svc, _, events := newTestService(t)

	_, err := svc.Update(context.Background(), uuid.New(), models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Equal(t, "Student not found", dErrors.MessageOf(err))
	assert.Empty(t, events.All())
}

func Test_Delete(t *testing.T) {
	svc, students, events := newTestService(t)
	actorID := uuid.New()

	student, err := svc.Create(context.Background(), models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   actorID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), actorID, student.ID))

	_, err = students.FindByID(context.Background(), student.ID)
	require.Error(t, err)

	recorded := events.All()
	require.Len(t, recorded, 2)
	event := recorded[1]
	assert.Equal(t, audit.ActionDeleteStudent, event.Action)
	require.NotNil(t, event.Before)
	assert.Nil(t, event.After)
	before := event.Before.(map[string]any)
	assert.Equal(t, "ada@example.com", before["email"])
}

func Test_Delete_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func Test_List(t *testing.T) {
	svc, _, events := newTestService(t)
	actorID := uuid.New()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.Create(context.Background(), models.StudentInput{
			FirstName: "Test",
			LastName:  "Student",
			Email:     email,
			Age:       18,
			ActorID:   actorID,
		})
		require.NoError(t, err)
	}

	students, err := svc.List(context.Background(), actorID)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	recorded := events.All()
	require.Len(t, recorded, 3)
	assert.Equal(t, audit.ActionListStudents, recorded[2].Action)
	assert.Equal(t, 2, recorded[2].Detail["count"])
}

func Test_Get(t *testing.T) {
	svc, _, events := newTestService(t)
	actorID := uuid.New()

	student, err := svc.Create(context.Background(), models.StudentInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Age:       20,
		ActorID:   actorID,
	})
	require.NoError(t, err)

	found, err := svc.Get(context.Background(), actorID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.ID, found.ID)

	recorded := events.All()
	require.Len(t, recorded, 2)
	assert.Equal(t, audit.ActionViewStudent, recorded[1].Action)
	assert.Equal(t, student.ID, recorded[1].StudentID)

	_, err = svc.Get(context.Background(), actorID, uuid.New())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
