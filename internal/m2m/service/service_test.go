package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberdesk/internal/audit"
	"memberdesk/internal/m2m/idp"
	"memberdesk/internal/m2m/models"
	"memberdesk/internal/m2m/store"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/secrets"
	"memberdesk/pkg/testutil"
)

type fixture struct {
	service    *Service
	clients    *store.InMemory
	provider   *idp.Local
	auditStore *audit.InMemoryStore
	ctx        context.Context
	entityID   id.EntityID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clients := store.NewInMemory()
	provider := idp.NewLocal()
	auditStore := audit.NewInMemoryStore()
	svc := New(clients, provider,
		WithAuditPublisher(audit.NewPublisher(auditStore)),
	)
	return &fixture{
		service:    svc,
		clients:    clients,
		provider:   provider,
		auditStore: auditStore,
		ctx:        testutil.ContextWithActor("staff@example.test"),
		entityID:   id.EntityID(uuid.New()),
	}
}

func (f *fixture) create(t *testing.T) (*models.Client, *models.CredentialGrant) {
	t.Helper()
	client, grant, err := f.service.Create(f.ctx, f.entityID,
		"Integration worker", "Nightly sync", []string{"ETA.Read", "Members.Read"})
	require.NoError(t, err)
	return client, grant
}

func TestCreateReturnsOneTimeSecret(t *testing.T) {
	f := newFixture(t)
	client, grant := f.create(t)

	assert.True(t, client.Active)
	assert.Equal(t, []models.Scope{models.ScopeETARead, models.ScopeMembersRead}, client.Scopes)
	require.NotEmpty(t, grant.Secret)
	assert.Equal(t, client.ID, grant.ClientID)
	assert.Equal(t, client.ExternalClientID, grant.ExternalClientID)

	// Only the hash is persisted, and it verifies against the grant.
	stored, err := f.clients.FindByID(f.ctx, client.ID)
	require.NoError(t, err)
	assert.NotEqual(t, grant.Secret, stored.SecretHash)
	assert.NoError(t, secrets.Verify(grant.Secret, stored.SecretHash))
}

func TestCreateRejectsEmptyScopes(t *testing.T) {
	f := newFixture(t)

	for _, scopes := range [][]string{nil, {}, {"", "  "}} {
		_, _, err := f.service.Create(f.ctx, f.entityID, "worker", "", scopes)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNoScopes))
	}

	listed, err := f.service.ListByEntity(f.ctx, f.entityID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCreateRejectsUnknownScope(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.Create(f.ctx, f.entityID, "worker", "", []string{"ETA.Read", "Admin.Everything"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCreateDeduplicatesScopes(t *testing.T) {
	f := newFixture(t)

	client, _, err := f.service.Create(f.ctx, f.entityID, "worker", "",
		[]string{"ETA.Read", "ETA.Read", "Members.Read"})
	require.NoError(t, err)
	assert.Equal(t, []models.Scope{models.ScopeETARead, models.ScopeMembersRead}, client.Scopes)
}

func TestGetNeverExposesSecretMaterial(t *testing.T) {
	f := newFixture(t)
	client, _ := f.create(t)

	fetched, err := f.service.Get(f.ctx, client.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, fetched.SecretHash) // hash present internally

	listed, err := f.service.ListByEntity(f.ctx, f.entityID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestRotateSecretIssuesFreshGrant(t *testing.T) {
	f := newFixture(t)
	client, created := f.create(t)

	rotated, err := f.service.RotateSecret(f.ctx, client.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Secret)
	assert.NotEqual(t, created.Secret, rotated.Secret)

	stored, err := f.clients.FindByID(f.ctx, client.ID)
	require.NoError(t, err)
	assert.Error(t, secrets.Verify(created.Secret, stored.SecretHash))
	assert.NoError(t, secrets.Verify(rotated.Secret, stored.SecretHash))
}

func TestRotateSecretUnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.RotateSecret(f.ctx, id.ClientID(uuid.New()))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRotateSecretDeactivatedClient(t *testing.T) {
	f := newFixture(t)
	client, _ := f.create(t)
	_, err := f.service.Deactivate(f.ctx, client.ID)
	require.NoError(t, err)

	_, err = f.service.RotateSecret(f.ctx, client.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDeactivateIsTerminalAndIdempotent(t *testing.T) {
	f := newFixture(t)
	client, _ := f.create(t)

	first, err := f.service.Deactivate(f.ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, first.Active)

	// A repeated deactivation succeeds without error.
	second, err := f.service.Deactivate(f.ctx, client.ID)
	require.NoError(t, err)
	assert.False(t, second.Active)

	events, err := f.auditStore.ListBySubject(f.ctx, client.ID.String())
	require.NoError(t, err)
	var deactivations int
	for _, e := range events {
		if e.Action == audit.ActionClientDeactivated {
			deactivations++
		}
	}
	// The provider revocation and its audit record happen exactly once.
	assert.Equal(t, 1, deactivations)
}

func TestCreateAuditsWithoutSecret(t *testing.T) {
	f := newFixture(t)
	client, grant := f.create(t)

	events, err := f.auditStore.ListBySubject(f.ctx, client.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionClientCreated, events[0].Action)
	for _, v := range events[0].Details {
		assert.NotContains(t, v, grant.Secret)
	}
}
