package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"memberdesk/internal/m2m/models"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/platform/middleware"
	"memberdesk/internal/transport/http/shared"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/requestcontext"
)

// Service defines the interface for M2M credential operations.
type Service interface {
	Create(ctx context.Context, entityID id.EntityID, name, description string, rawScopes []string) (*models.Client, *models.CredentialGrant, error)
	RotateSecret(ctx context.Context, clientID id.ClientID) (*models.CredentialGrant, error)
	Deactivate(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	Get(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Client, error)
}

// Handler handles M2M client endpoints.
type Handler struct {
	logger       *slog.Logger
	clients      Service
	metrics      *metrics.Metrics
	tokenChecker middleware.TokenValidator
}

func New(clients Service, logger *slog.Logger, m *metrics.Metrics, tokenChecker middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		clients:      clients,
		metrics:      m,
		tokenChecker: tokenChecker,
	}
}

// Register registers the M2M client routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Latency(h.metrics))
		router.Use(middleware.RequireAuth(h.tokenChecker, h.logger))

		router.Get("/m2m/scopes", h.handleCatalog)
		router.Post("/entities/{entityID}/clients", h.handleCreate)
		router.Get("/entities/{entityID}/clients", h.handleList)
		router.Get("/clients/{clientID}", h.handleGet)
		router.Post("/clients/{clientID}/rotate", h.handleRotate)
		router.Post("/clients/{clientID}/deactivate", h.handleDeactivate)
	})
}

type createClientRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Scopes      []string `json:"scopes"`
}

// createClientResponse carries the one-time credential alongside the stored
// metadata. The secret exists only in this response body.
type createClientResponse struct {
	Client     *models.Client          `json:"client"`
	Credential *models.CredentialGrant `json:"credential"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string][]models.Scope{"scopes": models.Catalog()})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	client, grant, err := h.clients.Create(ctx, entityID, req.Name, req.Description, req.Scopes)
	if err != nil {
		h.writeServiceError(ctx, w, "create client", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, createClientResponse{Client: client, Credential: grant})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}

	clients, err := h.clients.ListByEntity(ctx, entityID)
	if err != nil {
		h.writeServiceError(ctx, w, "list clients", err)
		return
	}
	if clients == nil {
		clients = []*models.Client{}
	}
	shared.WriteJSON(w, http.StatusOK, clients)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid client id"))
		return
	}

	client, err := h.clients.Get(ctx, clientID)
	if err != nil {
		h.writeServiceError(ctx, w, "get client", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) handleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid client id"))
		return
	}

	grant, err := h.clients.RotateSecret(ctx, clientID)
	if err != nil {
		h.writeServiceError(ctx, w, "rotate secret", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid client id"))
		return
	}

	client, err := h.clients.Deactivate(ctx, clientID)
	if err != nil {
		h.writeServiceError(ctx, w, "deactivate client", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, client)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.GetCode(err)
	switch code {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "client operation failed",
			"operation", op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, "client operation rejected",
			"operation", op,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}
