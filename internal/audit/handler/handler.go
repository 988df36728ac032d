// Package handler exposes the admin-only audit timeline.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studentdesk/internal/audit"
	authModels "studentdesk/internal/auth/models"
	"studentdesk/internal/platform/middleware"
	dErrors "studentdesk/pkg/domain-errors"
	"studentdesk/pkg/platform/httputil"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Timeline reads back recorded audit events.
type Timeline interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]audit.Event, error)
}

// Handler handles the /api/audit endpoints.
type Handler struct {
	logger       *slog.Logger
	timeline     Timeline
	jwtValidator middleware.JWTValidator
}

// New creates a new audit Handler.
func New(timeline Timeline, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		timeline:     timeline,
		jwtValidator: jwtValidator,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Use(middleware.RequireRole(h.logger, authModels.RoleAdmin))

		r.Get("/events", h.handleListEvents)
	})
}

// handleListEvents returns the most recent events, newest first. An
// actor_id query parameter narrows the timeline to one account.
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if rawActor := r.URL.Query().Get("actor_id"); rawActor != "" {
		actorID, err := uuid.Parse(rawActor)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid actor_id"))
			return
		}
		events, err := h.timeline.ListByActor(ctx, actorID)
		if err != nil {
			h.writeListError(ctx, w, err)
			return
		}
		h.writeEvents(w, events)
		return
	}

	limit := defaultLimit
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = min(parsed, maxLimit)
	}

	events, err := h.timeline.ListRecent(ctx, limit)
	if err != nil {
		h.writeListError(ctx, w, err)
		return
	}
	h.writeEvents(w, events)
}

func (h *Handler) writeEvents(w http.ResponseWriter, events []audit.Event) {
	if events == nil {
		events = []audit.Event{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
	})
}

func (h *Handler) writeListError(ctx context.Context, w http.ResponseWriter, err error) {
	if h.logger != nil {
		h.logger.ErrorContext(ctx, "listing audit events failed", "error", err.Error())
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "Failed to fetch audit events"))
}
