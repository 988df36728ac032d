// Package handler exposes the admin-only /api/students CRUD endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authModels "studentdesk/internal/auth/models"
	"studentdesk/internal/platform/middleware"
	"studentdesk/internal/student/models"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/httputil"
)

// Service defines the student operations the handler dispatches to.
type Service interface {
	List(ctx context.Context, actorID uuid.UUID) ([]models.Student, error)
	Get(ctx context.Context, actorID, studentID uuid.UUID) (*models.Student, error)
	Create(ctx context.Context, input models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, studentID uuid.UUID, input models.StudentInput) (*models.Student, error)
	Delete(ctx context.Context, actorID, studentID uuid.UUID) error
}

// Handler handles the /api/students endpoints.
type Handler struct {
	logger       *slog.Logger
	students     Service
	jwtValidator middleware.JWTValidator
}

// New creates a new student Handler.
func New(students Service, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		students:     students,
		jwtValidator: jwtValidator,
	}
}

// Register registers the student routes with the chi router. Every route
// requires an authenticated admin.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/students", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireRole(h.logger, authModels.RoleAdmin))

		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	students, err := h.students.List(ctx, identity.UserID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "listing students failed", "Failed to fetch students")
		return
	}
	if students == nil {
		students = []models.Student{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"students": students,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Student not found"))
		return
	}

	student, err := h.students.Get(ctx, identity.UserID, studentID)
	if err != nil {
		h.writeServiceError(ctx, w, err, "fetching student failed", "Failed to fetch student")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, student)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	req, err := decodeStudentRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	student, err := h.students.Create(ctx, req.toInput(identity.UserID))
	if err != nil {
		h.writeServiceError(ctx, w, err, "creating student failed", "Failed to create student")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Student created successfully",
		"student": student,
	})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Student not found"))
		return
	}

	req, err := decodeStudentRequest(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	student, err := h.students.Update(ctx, studentID, req.toInput(identity.UserID))
	if err != nil {
		h.writeServiceError(ctx, w, err, "updating student failed", "Failed to update student")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Student updated successfully",
		"student": student,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	studentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Student not found"))
		return
	}

	if err := h.students.Delete(ctx, identity.UserID, studentID); err != nil {
		h.writeServiceError(ctx, w, err, "deleting student failed", "Failed to delete student")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Student deleted successfully",
	})
}

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
