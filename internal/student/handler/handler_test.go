package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdesk/internal/audit"
	auditmemory "studentdesk/internal/audit/store/memory"
	jwttoken "studentdesk/internal/jwt_token"
	"studentdesk/internal/student/service"
	"studentdesk/internal/student/store"
)

type studentFixture struct {
	router     *chi.Mux
	events     *auditmemory.InMemoryStore
	adminToken string
	userToken  string
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()

	students := store.NewInMemoryStore()
	events := auditmemory.NewInMemoryStore()
	tokens := jwttoken.NewJWTService("test-secret", "studentdesk-test", time.Hour)

	svc := service.New(students, service.WithAuditRecorder(audit.NewRecorder(events)))

	router := chi.NewRouter()
	New(svc, tokens, nil).Register(router)

	adminToken, err := tokens.GenerateAccessToken(uuid.New(), "root@example.com", "root", "admin")
	require.NoError(t, err)
	userToken, err := tokens.GenerateAccessToken(uuid.New(), "ada@example.com", "ada", "user")
	require.NoError(t, err)

	return &studentFixture{
		router:     router,
		events:     events,
		adminToken: adminToken,
		userToken:  userToken,
	}
}

func (f *studentFixture) do(t *testing.T, method, path string, payload any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *studentFixture) createStudent(t *testing.T, email string) uuid.UUID {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/students/", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"age":        20,
	}, f.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Student struct {
			ID uuid.UUID `json:"id"`
		} `json:"student"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEqual(t, uuid.Nil, resp.Student.ID)
	return resp.Student.ID
}

func TestStudentsRequireToken(t *testing.T) {
	f := newStudentFixture(t)

	rec := f.do(t, http.MethodGet, "/api/students/", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Unauthorized: No token provided", resp.Error)
}

func TestStudentsRequireAdmin(t *testing.T) {
	f := newStudentFixture(t)

	rec := f.do(t, http.MethodGet, "/api/students/", nil, f.userToken)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Forbidden: Insufficient permissions", resp.Error)
}

func TestCreateStudent(t *testing.T) {
	f := newStudentFixture(t)

	rec := f.do(t, http.MethodPost, "/api/students/", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"age":        20,
	}, f.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Student struct {
			ID        uuid.UUID `json:"id"`
			FirstName string    `json:"first_name"`
			Email     string    `json:"email"`
		} `json:"student"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Student created successfully", resp.Message)
	assert.Equal(t, "Ada", resp.Student.FirstName)
	assert.Equal(t, "ada@example.com", resp.Student.Email)

	recorded := f.events.All()
	require.Len(t, recorded, 1)
	assert.Equal(t, audit.ActionCreateStudent, recorded[0].Action)
	assert.Equal(t, resp.Student.ID, recorded[0].StudentID)
}

func TestCreateStudentMissingFields(t *testing.T) {
	f := newStudentFixture(t)

	rec := f.do(t, http.MethodPost, "/api/students/", map[string]any{
		"first_name": "Ada",
	}, f.adminToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "All fields are required", resp.Error)
}

func TestCreateStudentDuplicateEmail(t *testing.T) {
	f := newStudentFixture(t)
	f.createStudent(t, "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/students/", map[string]any{
		"first_name": "Grace",
		"last_name":  "Hopper",
		"email":      "ada@example.com",
		"age":        22,
	}, f.adminToken)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Student with this email already exists", resp.Error)
}

func TestListStudents(t *testing.T) {
	f := newStudentFixture(t)
	f.createStudent(t, "a@example.com")
	f.createStudent(t, "b@example.com")

	rec := f.do(t, http.MethodGet, "/api/students/", nil, f.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Students []struct {
			Email string `json:"email"`
		} `json:"students"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Students, 2)
}

func TestGetStudent(t *testing.T) {
	f := newStudentFixture(t)
	id := f.createStudent(t, "ada@example.com")

	rec := f.do(t, http.MethodGet, "/api/students/"+id.String(), nil, f.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
}

func TestGetStudentNotFound(t *testing.T) {
	f := newStudentFixture(t)

	rec := f.do(t, http.MethodGet, "/api/students/"+uuid.NewString(), nil, f.adminToken)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Student not found", resp.Error)
}

func TestUpdateStudent(t *testing.T) {
	f := newStudentFixture(t)
	id := f.createStudent(t, "ada@example.com")

	rec := f.do(t, http.MethodPut, "/api/students/"+id.String(), map[string]any{
		"first_name": "Ada",
		"last_name":  "King",
		"email":      "ada@example.com",
		"age":        21,
	}, f.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Student struct {
			LastName string `json:"last_name"`
			Age      int    `json:"age"`
		} `json:"student"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Student updated successfully", resp.Message)
	assert.Equal(t, "King", resp.Student.LastName)
	assert.Equal(t, 21, resp.Student.Age)
}

func TestDeleteStudent(t *testing.T) {
	f := newStudentFixture(t)
	id := f.createStudent(t, "ada@example.com")

	rec := f.do(t, http.MethodDelete, "/api/students/"+id.String(), nil, f.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Student deleted successfully"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/students/"+id.String(), nil, f.adminToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
