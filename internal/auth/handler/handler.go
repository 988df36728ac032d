// Package handler exposes the authentication endpoints: signup, login,
// logout, the account listing and administrative account deletion.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studentdesk/internal/auth/models"
	"studentdesk/internal/auth/service"
	"studentdesk/internal/platform/middleware"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/httputil"
)

// Service defines the auth operations the handler dispatches to.
type Service interface {
	Signup(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Logout(ctx context.Context, actorID uuid.UUID)
	ListUsers(ctx context.Context, actorID uuid.UUID) ([]models.PublicUser, error)
	DeleteUser(ctx context.Context, actorID, userID uuid.UUID) error
}

// Handler handles the /api/auth endpoints.
type Handler struct {
	logger       *slog.Logger
	auth         Service
	jwtValidator middleware.JWTValidator
	rateLimiter  func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithRateLimiter wraps the credential endpoints (signup, login) with the
// given middleware.
func WithRateLimiter(limiter func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.rateLimiter = limiter
	}
}

// New creates a new auth Handler.
func New(auth Service, jwtValidator middleware.JWTValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		auth:         auth,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		credentials := r
		if h.rateLimiter != nil {
			credentials = r.With(h.rateLimiter)
		}
		credentials.Post("/signup", h.handleSignup)
		credentials.Post("/login", h.handleLogin)

		r.With(middleware.OptionalAuth(h.jwtValidator)).Post("/logout", h.handleLogout)
		r.With(middleware.RequireAuth(h.jwtValidator, h.logger)).Get("/", h.handleGetUsers)
		r.With(
			middleware.RequireAuth(h.jwtValidator, h.logger),
			middleware.RequireRole(h.logger, models.RoleAdmin),
		).Delete("/users/{id}", h.handleDeleteUser)
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.auth.Signup(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, err, "signup failed", "Internal server error during signup")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user":    result.User,
		"token":   result.Token,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(ctx, w, err, "login failed", "Internal server error during login")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    result.User,
		"token":   result.Token,
	})
}

// handleLogout always reports success; there is no server-side session to
// invalidate and the client discards its token either way.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if identity := middleware.GetIdentity(ctx); identity != nil {
		h.auth.Logout(ctx, identity.UserID)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Logout successful",
	})
}

func (h *Handler) handleGetUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := middleware.GetIdentity(ctx)
	if identity == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	users, err := h.auth.ListUsers(ctx, identity.UserID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "listing users failed", "Failed to fetch users")
		return
	}
	if len(users) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Users fetched successfully",
		"users":   users,
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := middleware.GetIdentity(ctx)
	if identity == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user ID"))
		return
	}

	if err := h.auth.DeleteUser(ctx, identity.UserID, userID); err != nil {
		h.writeServiceError(ctx, w, err, "deleting user failed", "Failed to delete user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "User deleted successfully",
	})
}

// writeServiceError passes client-caused errors through untouched and
// replaces internal ones with a stable message, logging the original.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, err error, logMsg, internalMsg string) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		if h.logger != nil {
			h.logger.ErrorContext(ctx, logMsg, "error", err.Error())
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, internalMsg))
		return
	}
	httputil.WriteError(w, err)
}
