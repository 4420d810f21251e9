package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"memberdesk/internal/audit"
	docmodels "memberdesk/internal/document/models"
	docstore "memberdesk/internal/document/store"
	identifiermetrics "memberdesk/internal/identifier/metrics"
	"memberdesk/internal/identifier/models"
	"memberdesk/internal/identifier/store"
	"memberdesk/internal/reconcile"
	"memberdesk/internal/registry"
	"memberdesk/internal/registry/cache"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/requestcontext"
)

// RegistryLookup is the engine's view of the registry adapter boundary.
// *registry.Set satisfies it; tests substitute stubs.
type RegistryLookup interface {
	Lookup(ctx context.Context, source registry.Source, value, countryCode string) (registry.Record, error)
}

// Service owns identifier lifecycle and validation_status transitions.
type Service struct {
	identifiers store.Store
	documents   docstore.Store
	registries  RegistryLookup

	recordCache cache.Store
	auditor     *audit.Publisher
	metrics     *identifiermetrics.Metrics
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *identifiermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRecordCache(c cache.Store) Option {
	return func(s *Service) { s.recordCache = c }
}

func New(identifiers store.Store, documents docstore.Store, registries RegistryLookup, opts ...Option) *Service {
	s := &Service{
		identifiers: identifiers,
		documents:   documents,
		registries:  registries,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the value against its type-specific pattern and creates
// the identifier as UNVALIDATED. Syntactic failure creates nothing.
func (s *Service) Submit(ctx context.Context, entityID id.EntityID, rawType, value, countryCode string) (*models.Identifier, error) {
	t, err := models.ParseType(rawType)
	if err != nil {
		return nil, err
	}

	identifier, err := models.NewIdentifier(
		id.IdentifierID(uuid.New()), entityID, t, value, countryCode,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.identifiers.Create(ctx, identifier); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "identifier already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identifier")
	}

	s.metrics.IncrementSubmitted()
	s.emit(ctx, audit.ActionIdentifierSubmitted, identifier, nil)
	return identifier, nil
}

// RequestLookup verifies the identifier against its registry.
//
// The transition into PENDING is a store-level compare-and-set: a second
// request while one is in flight fails with a lookup-in-progress error
// instead of being queued. The outcome is persisted on a context detached
// from the caller, so abandoning the request never loses the result. A
// transport failure reverts the status to its pre-lookup value; only
// definitive registry answers move it.
func (s *Service) RequestLookup(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error) {
	current, err := s.identifiers.FindByID(ctx, identifierID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	source, ok := current.Type.RegistrySource()
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"identifier type %s has no registry lookup", current.Type)
	}

	prior, err := s.identifiers.BeginLookup(ctx, identifierID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeLookupInProgress,
				"a lookup is already in progress for this identifier")
		}
		return nil, wrapStoreErr(err)
	}

	// The caller may go away mid-lookup; persistence must not be tied to
	// its cancellation.
	persistCtx := context.WithoutCancel(ctx)

	record, lookupErr := s.registries.Lookup(ctx, source, prior.Value, prior.CountryCode)
	switch {
	case lookupErr == nil:
		return s.applyLookupRecord(persistCtx, identifierID, record)

	case registry.IsNotFound(lookupErr):
		return s.applyLookupFailed(persistCtx, identifierID, "not_found")

	case registry.IsRetryable(lookupErr):
		s.revertLookup(persistCtx, identifierID, prior)
		s.metrics.IncrementLookup("retryable_error")
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeUnavailable,
			"registry unavailable, lookup may be retried")

	default:
		// Adapter misbehavior (bad data, internal). Not a statement about
		// the identifier, so the status must not move.
		s.revertLookup(persistCtx, identifierID, prior)
		s.metrics.IncrementLookup("error")
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "registry lookup failed")
	}
}

func (s *Service) applyLookupRecord(ctx context.Context, identifierID id.IdentifierID, record registry.Record) (*models.Identifier, error) {
	now := requestcontext.Now(ctx)

	var outcome string
	updated, err := s.identifiers.FinishLookup(ctx, identifierID, func(identifier *models.Identifier) {
		if record.Activity == registry.ActivityActive {
			identifier.ApplyValidated(now)
			outcome = "validated"
		} else {
			// Inactive or unclassifiable status: the registry answered, and
			// the answer is not a demonstrably active registration.
			identifier.ApplyFailed(now)
			outcome = "failed"
		}
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Edited while the lookup ran; the result describes a value that
			// is no longer stored. Discard it.
			s.metrics.IncrementLookup("superseded")
			return updated, nil
		}
		return nil, wrapStoreErr(err)
	}

	if s.recordCache != nil {
		if err := s.recordCache.Put(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "registry record cache put failed", "error", err)
		}
	}

	s.metrics.IncrementLookup(outcome)
	action := audit.ActionIdentifierValidated
	if outcome == "failed" {
		action = audit.ActionIdentifierFailed
	}
	s.emit(ctx, action, updated, map[string]string{"registry_status": record.Status})
	return updated, nil
}

func (s *Service) applyLookupFailed(ctx context.Context, identifierID id.IdentifierID, reason string) (*models.Identifier, error) {
	now := requestcontext.Now(ctx)
	updated, err := s.identifiers.FinishLookup(ctx, identifierID, func(identifier *models.Identifier) {
		identifier.ApplyFailed(now)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			s.metrics.IncrementLookup("superseded")
			return updated, nil
		}
		return nil, wrapStoreErr(err)
	}
	s.metrics.IncrementLookup(reason)
	s.emit(ctx, audit.ActionIdentifierFailed, updated, map[string]string{"reason": reason})
	return updated, nil
}

// revertLookup restores the pre-lookup status after a transport failure so
// no identifier is left misleadingly PENDING.
func (s *Service) revertLookup(ctx context.Context, identifierID id.IdentifierID, prior *models.Identifier) {
	_, err := s.identifiers.FinishLookup(ctx, identifierID, func(identifier *models.Identifier) {
		identifier.ValidationStatus = prior.ValidationStatus
		identifier.LastValidatedAt = prior.LastValidatedAt
		identifier.ModifiedAt = requestcontext.Now(ctx)
	})
	if err != nil && !errors.Is(err, sentinel.ErrInvalidState) {
		s.logger.ErrorContext(ctx, "failed to revert lookup status",
			"identifier_id", identifierID, "error", err)
	}
}

// Edit changes value and/or type. Any edit resets the identifier to
// UNVALIDATED regardless of its prior state; a lookup result in flight for
// the old value is discarded by the store's FinishLookup guard.
func (s *Service) Edit(ctx context.Context, identifierID id.IdentifierID, rawType, value, countryCode string) (*models.Identifier, error) {
	t, err := models.ParseType(rawType)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateValue(t, value); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.identifiers.Execute(ctx, identifierID, nil,
		func(identifier *models.Identifier) {
			identifier.ApplyEdit(t, value, countryCode, now)
		})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	// Claims entered against the old value no longer apply.
	if err := s.documents.DeleteByIdentifier(ctx, identifierID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to clear supporting document after edit",
			"identifier_id", identifierID, "error", err)
	}

	s.emit(ctx, audit.ActionIdentifierEdited, updated, nil)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error) {
	identifier, err := s.identifiers.FindByID(ctx, identifierID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return identifier, nil
}

func (s *Service) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Identifier, error) {
	identifiers, err := s.identifiers.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identifiers")
	}
	return identifiers, nil
}

// Delete removes the identifier and its supporting document. Terminal; no
// soft delete.
func (s *Service) Delete(ctx context.Context, identifierID id.IdentifierID) error {
	identifier, err := s.identifiers.FindByID(ctx, identifierID)
	if err != nil {
		return wrapStoreErr(err)
	}
	if err := s.identifiers.Delete(ctx, identifierID); err != nil {
		return wrapStoreErr(err)
	}
	if err := s.documents.DeleteByIdentifier(ctx, identifierID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to delete supporting document",
			"identifier_id", identifierID, "error", err)
	}
	s.emit(ctx, audit.ActionIdentifierDeleted, identifier, nil)
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, identifier *models.Identifier, details map[string]string) {
	if s.auditor == nil {
		return
	}
	if details == nil {
		details = map[string]string{}
	}
	details["type"] = string(identifier.Type)
	details["status"] = string(identifier.ValidationStatus)
	s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		Subject: identifier.ID.String(),
		Details: details,
	})
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "identifier not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "identifier store failure")
}

// UploadDocument attaches user-entered claims from a supporting document.
// Only document-bearing identifier types accept one; a re-upload replaces
// the previous document, clearing any comparison derived from it (results
// are always recomputed, never stored).
func (s *Service) UploadDocument(ctx context.Context, identifierID id.IdentifierID, fileName, enteredName, enteredNumber string) (*docmodels.SupportingDocument, error) {
	identifier, err := s.identifiers.FindByID(ctx, identifierID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !identifier.Type.RequiresDocument() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"identifier type %s does not take supporting documents", identifier.Type)
	}

	doc, err := docmodels.NewSupportingDocument(
		id.DocumentID(uuid.New()), identifierID, fileName,
		enteredName, enteredNumber, requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		return nil, err
	}
	if err := s.documents.Replace(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
	}

	s.emit(ctx, audit.ActionDocumentUploaded, identifier, map[string]string{"document_id": doc.ID.String()})
	return doc, nil
}

// Reconcile compares the identifier's supporting document against the
// current registry record. The comparison is recomputed on every call from
// current inputs; nothing is cached between document and record changes
// except the registry record itself (TTL-bounded).
func (s *Service) Reconcile(ctx context.Context, identifierID id.IdentifierID) (reconcile.Result, error) {
	identifier, err := s.identifiers.FindByID(ctx, identifierID)
	if err != nil {
		return reconcile.Result{}, wrapStoreErr(err)
	}
	doc, err := s.documents.FindByIdentifier(ctx, identifierID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return reconcile.Result{}, dErrors.New(dErrors.CodeNotFound,
				"no supporting document uploaded for this identifier")
		}
		return reconcile.Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}

	record, err := s.currentRecord(ctx, identifier)
	if err != nil {
		return reconcile.Result{}, err
	}
	return reconcile.Compare(*doc, record), nil
}

// currentRecord fetches the registry record for comparison, serving from
// cache when fresh. A definitive not-found yields nil (reconciliation
// reports NOT_APPLICABLE); transport failures propagate as retryable.
func (s *Service) currentRecord(ctx context.Context, identifier *models.Identifier) (*registry.Record, error) {
	source, ok := identifier.Type.RegistrySource()
	if !ok {
		return nil, nil
	}

	if s.recordCache != nil {
		if record, hit, err := s.recordCache.Get(ctx, source, identifier.Value); err == nil && hit {
			return &record, nil
		}
	}

	record, err := s.registries.Lookup(ctx, source, identifier.Value, identifier.CountryCode)
	if err != nil {
		if registry.IsNotFound(err) {
			return nil, nil
		}
		if registry.IsRetryable(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "registry unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed")
	}

	if s.recordCache != nil {
		if err := s.recordCache.Put(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "registry record cache put failed", "error", err)
		}
	}
	return &record, nil
}
