package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberdesk/internal/audit"
	docstore "memberdesk/internal/document/store"
	"memberdesk/internal/identifier/models"
	"memberdesk/internal/identifier/store"
	"memberdesk/internal/reconcile"
	"memberdesk/internal/registry"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/testutil"
)

type fixture struct {
	service     *Service
	identifiers *store.InMemory
	documents   *docstore.InMemory
	kvk         *registry.StubClient
	auditStore  *audit.InMemoryStore
	ctx         context.Context
	entityID    id.EntityID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	kvk := registry.NewStubClient(registry.SourceKVK, 0)
	kvk.Seed("12345678", "Acme B.V.", "Actief", "NL")
	kvk.Seed("87654321", "Oud Holding B.V.", "Ontbonden", "NL")
	kvk.Seed("11112222", "Raadsel B.V.", "status-onbekend", "NL")

	identifiers := store.NewInMemory()
	documents := docstore.NewInMemory()
	auditStore := audit.NewInMemoryStore()

	svc := New(identifiers, documents, registry.NewSet(kvk),
		WithAuditPublisher(audit.NewPublisher(auditStore)),
	)
	return &fixture{
		service:     svc,
		identifiers: identifiers,
		documents:   documents,
		kvk:         kvk,
		auditStore:  auditStore,
		ctx:         testutil.ContextWithActor("staff@example.test"),
		entityID:    id.EntityID(uuid.New()),
	}
}

func (f *fixture) submit(t *testing.T, value string) *models.Identifier {
	t.Helper()
	identifier, err := f.service.Submit(f.ctx, f.entityID, "KVK", value, "NL")
	require.NoError(t, err)
	return identifier
}

func TestSubmitCreatesUnvalidated(t *testing.T) {
	f := newFixture(t)

	identifier := f.submit(t, "12345678")
	assert.Equal(t, models.StatusUnvalidated, identifier.ValidationStatus)
	assert.Equal(t, testutil.FixedClock, identifier.CreatedAt)

	events, err := f.auditStore.ListBySubject(f.ctx, identifier.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionIdentifierSubmitted, events[0].Action)
	assert.Equal(t, "staff@example.test", events[0].Actor)
}

func TestSubmitRejectsMalformedValueWithoutCreating(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(f.ctx, f.entityID, "KVK", "12-34", "NL")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedValue))

	listed, err := f.service.ListByEntity(f.ctx, f.entityID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestLookupActiveRecordValidates(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	updated, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, updated.ValidationStatus)
	require.NotNil(t, updated.LastValidatedAt)
	assert.Equal(t, testutil.FixedClock, *updated.LastValidatedAt)
}

func TestLookupInactiveRecordFails(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "87654321")

	updated, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, updated.ValidationStatus)
	assert.Nil(t, updated.LastValidatedAt)
}

func TestLookupUnclassifiableStatusFails(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "11112222")

	updated, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)
	// An unrecognized status is not a demonstrably active registration.
	assert.Equal(t, models.StatusFailed, updated.ValidationStatus)
}

func TestLookupNotFoundFails(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "99999999")

	updated, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, updated.ValidationStatus)
}

func TestLookupTransportErrorRevertsStatus(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	// First validate it, then make the registry unreachable: a failed
	// transport must not disturb the VALIDATED status.
	_, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)

	f.kvk.Fail = registry.NewLookupError(registry.ErrorOutage, registry.SourceKVK, "registry down", nil)
	_, err = f.service.RequestLookup(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	assert.True(t, dErrors.IsRetryable(err))

	current, err := f.service.Get(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, current.ValidationStatus)
	assert.NotNil(t, current.LastValidatedAt)
}

func TestLookupRejectedWhileInFlight(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	// Force the stored status to PENDING as if another lookup were running.
	_, err := f.identifiers.BeginLookup(f.ctx, identifier.ID, testutil.FixedClock)
	require.NoError(t, err)

	_, err = f.service.RequestLookup(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLookupInProgress))
}

func TestLookupUnsupportedTypeRejected(t *testing.T) {
	f := newFixture(t)
	identifier, err := f.service.Submit(f.ctx, f.entityID, "EUID", "NLNHR.12345678", "NL")
	require.NoError(t, err)

	_, err = f.service.RequestLookup(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEditResetsStatusAndClearsDocument(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	_, err := f.service.RequestLookup(f.ctx, identifier.ID)
	require.NoError(t, err)
	_, err = f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Acme B.V.", "12345678")
	require.NoError(t, err)

	updated, err := f.service.Edit(f.ctx, identifier.ID, "KVK", "87654321", "NL")
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnvalidated, updated.ValidationStatus)
	assert.Nil(t, updated.LastValidatedAt)
	assert.Equal(t, "87654321", updated.Value)

	// Claims entered against the old value are gone with it.
	_, err = f.documents.FindByIdentifier(f.ctx, identifier.ID)
	require.Error(t, err)
}

func TestEditRejectsMalformedValue(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	_, err := f.service.Edit(f.ctx, identifier.ID, "KVK", "bad", "NL")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedValue))

	current, err := f.service.Get(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678", current.Value)
}

func TestUploadDocumentOnlyForDocumentBackedTypes(t *testing.T) {
	f := newFixture(t)
	identifier, err := f.service.Submit(f.ctx, f.entityID, "VAT", "NL812345678B01", "NL")
	require.NoError(t, err)

	_, err = f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Acme B.V.", "NL812345678B01")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestUploadDocumentReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	first, err := f.service.UploadDocument(f.ctx, identifier.ID, "old.pdf", "Acme", "12345678")
	require.NoError(t, err)
	second, err := f.service.UploadDocument(f.ctx, identifier.ID, "new.pdf", "Acme B.V.", "12345678")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	stored, err := f.documents.FindByIdentifier(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, "new.pdf", stored.FileName)
}

func TestReconcileMatchesDocumentAgainstRegistry(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")
	_, err := f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Acme BV", "1234.5678")
	require.NoError(t, err)

	result, err := f.service.Reconcile(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.Match, result.Classification)
}

func TestReconcileNotApplicableWhenRegistryHasNoRecord(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "99999999")
	_, err := f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Ghost B.V.", "99999999")
	require.NoError(t, err)

	result, err := f.service.Reconcile(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.NotApplicable, result.Classification)
}

func TestReconcileWithoutDocumentIsNotFound(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	_, err := f.service.Reconcile(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestReconcileRegistryOutageIsRetryable(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")
	_, err := f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Acme B.V.", "12345678")
	require.NoError(t, err)

	f.kvk.Fail = registry.NewLookupError(registry.ErrorTimeout, registry.SourceKVK, "deadline exceeded", context.DeadlineExceeded)
	_, err = f.service.Reconcile(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.IsRetryable(err))
}

func TestDeleteRemovesIdentifierAndDocument(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")
	_, err := f.service.UploadDocument(f.ctx, identifier.ID, "extract.pdf", "Acme B.V.", "12345678")
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(f.ctx, identifier.ID))

	_, err = f.service.Get(f.ctx, identifier.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = f.documents.FindByIdentifier(f.ctx, identifier.ID)
	require.Error(t, err)
}

func TestLookupPersistsWhenCallerAbandonsRequest(t *testing.T) {
	f := newFixture(t)
	identifier := f.submit(t, "12345678")

	// The caller's context is already cancelled when the outcome lands;
	// persistence must still happen.
	cancelled, cancel := context.WithCancel(f.ctx)
	cancel()

	updated, err := f.service.RequestLookup(cancelled, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, updated.ValidationStatus)

	current, err := f.service.Get(f.ctx, identifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidated, current.ValidationStatus)
}
