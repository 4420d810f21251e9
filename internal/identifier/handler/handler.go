package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	docmodels "memberdesk/internal/document/models"
	"memberdesk/internal/identifier/models"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/platform/middleware"
	"memberdesk/internal/reconcile"
	"memberdesk/internal/transport/http/shared"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/requestcontext"
)

// Service defines the interface for identifier operations.
type Service interface {
	Submit(ctx context.Context, entityID id.EntityID, rawType, value, countryCode string) (*models.Identifier, error)
	RequestLookup(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error)
	Edit(ctx context.Context, identifierID id.IdentifierID, rawType, value, countryCode string) (*models.Identifier, error)
	Get(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Identifier, error)
	Delete(ctx context.Context, identifierID id.IdentifierID) error
	UploadDocument(ctx context.Context, identifierID id.IdentifierID, fileName, enteredName, enteredNumber string) (*docmodels.SupportingDocument, error)
	Reconcile(ctx context.Context, identifierID id.IdentifierID) (reconcile.Result, error)
}

// Handler handles identifier verification endpoints.
type Handler struct {
	logger       *slog.Logger
	identifiers  Service
	metrics      *metrics.Metrics
	tokenChecker middleware.TokenValidator
}

func New(identifiers Service, logger *slog.Logger, m *metrics.Metrics, tokenChecker middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		identifiers:  identifiers,
		metrics:      m,
		tokenChecker: tokenChecker,
	}
}

// Register registers the identifier routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Latency(h.metrics))
		router.Use(middleware.RequireAuth(h.tokenChecker, h.logger))

		router.Post("/entities/{entityID}/identifiers", h.handleSubmit)
		router.Get("/entities/{entityID}/identifiers", h.handleList)
		router.Get("/identifiers/{identifierID}", h.handleGet)
		router.Put("/identifiers/{identifierID}", h.handleEdit)
		router.Delete("/identifiers/{identifierID}", h.handleDelete)
		router.Post("/identifiers/{identifierID}/lookup", h.handleLookup)
		router.Post("/identifiers/{identifierID}/document", h.handleUploadDocument)
		router.Get("/identifiers/{identifierID}/reconciliation", h.handleReconcile)
	})
}

type identifierRequest struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	CountryCode string `json:"country_code"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}

	var req identifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	identifier, err := h.identifiers.Submit(ctx, entityID, req.Type, req.Value, req.CountryCode)
	if err != nil {
		h.writeServiceError(ctx, w, "submit identifier", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, identifier)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}

	identifiers, err := h.identifiers.ListByEntity(ctx, entityID)
	if err != nil {
		h.writeServiceError(ctx, w, "list identifiers", err)
		return
	}
	if identifiers == nil {
		identifiers = []*models.Identifier{}
	}
	shared.WriteJSON(w, http.StatusOK, identifiers)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	identifier, err := h.identifiers.Get(ctx, identifierID)
	if err != nil {
		h.writeServiceError(ctx, w, "get identifier", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, identifier)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	var req identifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	identifier, err := h.identifiers.Edit(ctx, identifierID, req.Type, req.Value, req.CountryCode)
	if err != nil {
		h.writeServiceError(ctx, w, "edit identifier", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, identifier)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	if err := h.identifiers.Delete(ctx, identifierID); err != nil {
		h.writeServiceError(ctx, w, "delete identifier", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	identifier, err := h.identifiers.RequestLookup(ctx, identifierID)
	if err != nil {
		h.writeServiceError(ctx, w, "registry lookup", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, identifier)
}

type uploadDocumentRequest struct {
	FileName                  string `json:"file_name"`
	EnteredCompanyName        string `json:"entered_company_name"`
	EnteredRegistrationNumber string `json:"entered_registration_number"`
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	var req uploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	doc, err := h.identifiers.UploadDocument(ctx, identifierID,
		req.FileName, req.EnteredCompanyName, req.EnteredRegistrationNumber)
	if err != nil {
		h.writeServiceError(ctx, w, "upload document", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifierID, err := id.ParseIdentifierID(chi.URLParam(r, "identifierID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identifier id"))
		return
	}

	result, err := h.identifiers.Reconcile(ctx, identifierID)
	if err != nil {
		h.writeServiceError(ctx, w, "reconcile identifier", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

// writeServiceError logs unexpected failures and writes the mapped error.
// Client-caused errors pass through without the error log.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.GetCode(err)
	switch code {
	case dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "identifier operation failed",
			"operation", op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, "identifier operation rejected",
			"operation", op,
			"code", string(code),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	shared.WriteError(w, err)
}
