package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"memberdesk/internal/contact/models"
	"memberdesk/internal/contact/store"
	"memberdesk/internal/platform/metrics"
	"memberdesk/internal/platform/middleware"
	"memberdesk/internal/transport/http/shared"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/requestcontext"
)

// Handler handles entity contact endpoints. Contacts have no behavior of
// their own, so the handler talks to the store directly.
type Handler struct {
	logger       *slog.Logger
	contacts     store.Store
	metrics      *metrics.Metrics
	tokenChecker middleware.TokenValidator
}

func New(contacts store.Store, logger *slog.Logger, m *metrics.Metrics, tokenChecker middleware.TokenValidator) *Handler {
	return &Handler{
		logger:       logger,
		contacts:     contacts,
		metrics:      m,
		tokenChecker: tokenChecker,
	}
}

// Register registers the contact routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Use(middleware.Latency(h.metrics))
		router.Use(middleware.RequireAuth(h.tokenChecker, h.logger))

		router.Post("/entities/{entityID}/contacts", h.handleCreate)
		router.Get("/entities/{entityID}/contacts", h.handleList)
		router.Put("/contacts/{contactID}", h.handleUpdate)
		router.Delete("/contacts/{contactID}", h.handleDelete)
	})
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	contact, err := models.NewContact(
		id.ContactID(uuid.New()), entityID,
		req.Name, req.Email, req.Phone, req.Role,
		requestcontext.Now(ctx),
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.contacts.Create(ctx, contact); err != nil {
		h.logger.ErrorContext(ctx, "failed to create contact", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact"))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, contact)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID, err := id.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid entity id"))
		return
	}
	contacts, err := h.contacts.ListByEntity(ctx, entityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list contacts", "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list contacts"))
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	shared.WriteJSON(w, http.StatusOK, contacts)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid contact id"))
		return
	}
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "contact name cannot be empty"))
		return
	}
	email := strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		shared.WriteError(w, dErrors.Newf(dErrors.CodeInvalidInput, "invalid email address %q", email))
		return
	}

	contact, err := h.contacts.FindByID(ctx, contactID)
	if err != nil {
		shared.WriteError(w, mapStoreErr(err))
		return
	}
	contact.ApplyUpdate(name, email, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Role), requestcontext.Now(ctx))
	if err := h.contacts.Update(ctx, contact); err != nil {
		shared.WriteError(w, mapStoreErr(err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, contact)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	contactID, err := id.ParseContactID(chi.URLParam(r, "contactID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid contact id"))
		return
	}
	if err := h.contacts.Delete(r.Context(), contactID); err != nil {
		shared.WriteError(w, mapStoreErr(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "contact not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "contact store failure")
}
