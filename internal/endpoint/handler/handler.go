package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memberdesk/internal/endpoint/models"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/platform/middleware"
	"memberdesk/internal/transport/http/shared"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// Service defines the interface for webhook endpoint operations.
type Service interface {
	Create(ctx context.Context, entityID id.EntityID, rawURL string, rawEvents []string) (*models.Endpoint, *models.SigningSecretGrant, error)
	Get(ctx context.Context, endpointID id.EndpointID) (*models.Endpoint, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Endpoint, error)
	UpdateSubscription(ctx context.Context, endpointID id.EndpointID, rawEvents []string, enabled bool) (*models.Endpoint, error)
	RotateSecret(ctx context.Context, endpointID id.EndpointID) (*models.SigningSecretGrant, error)
	Delete(ctx context.Context, endpointID id.EndpointID) error
}

// Handler handles webhook endpoint routes.
type Handler struct {
	logger       *slog.Logger
	endpoints    Service
	metrics      *metrics.Metrics
	tokenChecker middleware.TokenValidator
}

func New(endpoints Service, logger *slog.Logger, m *metrics.Metrics, tokenChecker middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		endpoints:    endpoints,
		metrics:      m,
		tokenChecker: tokenChecker,
	}
}

// Register registers the webhook endpoint routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Latency(h.metrics))
		router.Use(middleware.RequireAuth(h.tokenChecker, h.logger))

		router.Post("/entities/{entityID}/endpoints", h.handleCreate)
		router.Get("/entities/{entityID}/endpoints", h.handleList)
		router.Get("/endpoints/{endpointID}", h.handleGet)
		router.Put("/endpoints/{endpointID}/subscription", h.handleUpdateSubscription)
		router.Post("/endpoints/{endpointID}/rotate", h.handleRotate)
		router.Delete("/endpoints/{endpointID}", h.handleDelete)
	})
}

type createEndpointRequest struct {
	URL        string   `json:"url"`
	EventTypes []string `json:"event_types"`
}

type createEndpointResponse struct {
	Endpoint *models.Endpoint           `json:"endpoint"`
	Signing  *models.SigningSecretGrant `json:"signing_secret"`
}

type subscriptionRequest struct {
	EventTypes []string `json:"event_types"`
	Enabled    bool     `json:"enabled"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	var req createEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	endpoint, grant, err := h.endpoints.Create(r.Context(), entityID, req.URL, req.EventTypes)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, createEndpointResponse{Endpoint: endpoint, Signing: grant})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	endpoints, err := h.endpoints.ListByEntity(r.Context(), entityID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if endpoints == nil {
		endpoints = []*models.Endpoint{}
	}
	shared.WriteJSON(w, http.StatusOK, endpoints)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	endpointID, err := id.ParseEndpointID(chi.URLParam(r, "endpointID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid endpoint id"))
		return
	}
	endpoint, err := h.endpoints.Get(r.Context(), endpointID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, endpoint)
}

func (h *Handler) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	endpointID, err := id.ParseEndpointID(chi.URLParam(r, "endpointID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid endpoint id"))
		return
	}
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	endpoint, err := h.endpoints.UpdateSubscription(r.Context(), endpointID, req.EventTypes, req.Enabled)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, endpoint)
}

func (h *Handler) handleRotate(w http.ResponseWriter, r *http.Request) {
	endpointID, err := id.ParseEndpointID(chi.URLParam(r, "endpointID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid endpoint id"))
		return
	}
	grant, err := h.endpoints.RotateSecret(r.Context(), endpointID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	endpointID, err := id.ParseEndpointID(chi.URLParam(r, "endpointID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid endpoint id"))
		return
	}
	if err := h.endpoints.Delete(r.Context(), endpointID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
