package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memberdesk/internal/entity/models"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/platform/middleware"
	"memberdesk/internal/transport/http/shared"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// Service defines the interface for entity operations.
type Service interface {
	Create(ctx context.Context, name, countryCode string) (*models.Entity, error)
	Get(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
	List(ctx context.Context) ([]*models.Entity, error)
	Update(ctx context.Context, entityID id.EntityID, name, rawStatus string) (*models.Entity, error)
	Delete(ctx context.Context, entityID id.EntityID) error
}

// Handler handles member entity endpoints.
type Handler struct {
	logger       *slog.Logger
	entities     Service
	metrics      *metrics.Metrics
	tokenChecker middleware.TokenValidator
}

func New(entities Service, logger *slog.Logger, m *metrics.Metrics, tokenChecker middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		entities:     entities,
		metrics:      m,
		tokenChecker: tokenChecker,
	}
}

// Register registers the entity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Latency(h.metrics))
		router.Use(middleware.RequireAuth(h.tokenChecker, h.logger))

		router.Post("/entities", h.handleCreate)
		router.Get("/entities", h.handleList)
		router.Get("/entities/{entityID}", h.handleGet)
		router.Put("/entities/{entityID}", h.handleUpdate)
		router.Delete("/entities/{entityID}", h.handleDelete)
	})
}

type entityRequest struct {
	Name             string `json:"name"`
	CountryCode      string `json:"country_code"`
	MembershipStatus string `json:"membership_status"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	entity, err := h.entities.Create(r.Context(), req.Name, req.CountryCode)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, entity)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entities, err := h.entities.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if entities == nil {
		entities = []*models.Entity{}
	}
	shared.WriteJSON(w, http.StatusOK, entities)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	entity, err := h.entities.Get(r.Context(), entityID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entity)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	var req entityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	entity, err := h.entities.Update(r.Context(), entityID, req.Name, req.MembershipStatus)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, entity)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	if err := h.entities.Delete(r.Context(), entityID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
