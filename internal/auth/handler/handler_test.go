package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentdesk/internal/audit"
	auditmemory "studentdesk/internal/audit/store/memory"
	"studentdesk/internal/auth/models"
	"studentdesk/internal/auth/service"
	"studentdesk/internal/auth/store"
	jwttoken "studentdesk/internal/jwt_token"
)

type authFixture struct {
	router *chi.Mux
	events *auditmemory.InMemoryStore
	tokens *jwttoken.JWTService
}

func newAuthFixture(t *testing.T, opts ...service.Option) *authFixture {
	t.Helper()

	users := store.NewInMemoryStore()
	events := auditmemory.NewInMemoryStore()
	tokens := jwttoken.NewJWTService("test-secret", "studentdesk-test", time.Hour)

	base := []service.Option{
		service.WithAuditRecorder(audit.NewRecorder(events)),
		service.WithBcryptCost(4),
	}
	svc := service.New(users, tokens, append(base, opts...)...)

	router := chi.NewRouter()
	New(svc, tokens, nil).Register(router)
	return &authFixture{router: router, events: events, tokens: tokens}
}

func (f *authFixture) do(t *testing.T, method, path string, payload any, token string) *httptest.ResponseRecorder {
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

func (f *authFixture) signup(t *testing.T, username, email string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignup(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "ada",
		"email":    "ada@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message string `json:"message"`
		User    struct {
			UserID   string `json:"user_id"`
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User created successfully", resp.Message)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, "user", resp.User.Role)
	require.NotEmpty(t, resp.Token)

	claims, err := f.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.UserID, claims.UserID)
}

func TestSignupValidation(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t,
		"Username must be at least 3 characters long, Please provide a valid email, Password must be at least 6 characters long",
		resp.Error)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "ada", "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"username": "grace",
		"email":    "ada@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "User already exists", resp.Error)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "ada", "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.NotEmpty(t, resp.Token)
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "ada", "ada@example.com")

	unknown := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	}, "")
	wrongPassword := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-password",
	}, "")

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.JSONEq(t, unknown.Body.String(), wrongPassword.Body.String())
}

func TestLoginValidation(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/login", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Email is required, Password is required", resp.Error)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	token := f.signup(t, "ada", "ada@example.com")

	rec := f.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Logout successful"}`, rec.Body.String())

	recorded := f.events.All()
	require.NotEmpty(t, recorded)
	assert.Equal(t, audit.ActionLogout, recorded[len(recorded)-1].Action)
}

func TestLogoutWithoutToken(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "Logout successful"}`, rec.Body.String())
	assert.Empty(t, f.events.All())
}

func TestGetUsersRequiresAuth(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodGet, "/api/auth/", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Unauthorized: No token provided", resp.Error)
}

func TestGetUsers(t *testing.T) {
	f := newAuthFixture(t)
	token := f.signup(t, "ada", "ada@example.com")
	f.signup(t, "grace", "grace@example.com")

	rec := f.do(t, http.MethodGet, "/api/auth/", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string              `json:"message"`
		Users   []models.PublicUser `json:"users"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Users fetched successfully", resp.Message)
	assert.Len(t, resp.Users, 2)
}

func TestDeleteUserRequiresAdmin(t *testing.T) {
	f := newAuthFixture(t)
	token := f.signup(t, "ada", "ada@example.com")
	victim := f.signup(t, "grace", "grace@example.com")

	victimClaims, err := f.tokens.ValidateToken(victim)
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/api/auth/users/"+victimClaims.UserID, nil, token)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Forbidden: Insufficient permissions", resp.Error)
}

func TestDeleteUser(t *testing.T) {
	f := newAuthFixture(t, service.WithRolePolicy(models.FixedRolePolicy(models.RoleAdmin)))
	adminToken := f.signup(t, "root", "root@example.com")
	victim := f.signup(t, "grace", "grace@example.com")

	victimClaims, err := f.tokens.ValidateToken(victim)
	require.NoError(t, err)

	rec := f.do(t, http.MethodDelete, "/api/auth/users/"+victimClaims.UserID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message": "User deleted successfully"}`, rec.Body.String())

	again := f.do(t, http.MethodDelete, "/api/auth/users/"+victimClaims.UserID, nil, adminToken)
	require.Equal(t, http.StatusNotFound, again.Code)
}
