package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

func TestParseScopes(t *testing.T) {
	scopes, err := ParseScopes([]string{"ETA.Read", " Members.Write ", "ETA.Read"})
	require.NoError(t, err)
	assert.Equal(t, []Scope{ScopeETARead, ScopeMembersWrite}, scopes)

	_, err = ParseScopes([]string{"ETA.Read", "Nope"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	scopes, err = ParseScopes([]string{"", "   "})
	require.NoError(t, err)
	assert.Empty(t, scopes)
}

func TestCatalogIsSorted(t *testing.T) {
	catalog := Catalog()
	require.NotEmpty(t, catalog)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1], catalog[i])
	}
}

func TestNewClientInvariants(t *testing.T) {
	now := time.Now()
	clientID := id.ClientID(uuid.New())
	entityID := id.EntityID(uuid.New())

	_, err := NewClient(clientID, entityID, "ext-1", "  ", "", []Scope{ScopeETARead}, "hash", now)
	assert.Error(t, err)

	_, err = NewClient(clientID, entityID, "ext-1", "worker", "", nil, "hash", now)
	assert.Error(t, err)

	_, err = NewClient(clientID, entityID, "ext-1", "worker", "", []Scope{ScopeETARead}, "", now)
	assert.Error(t, err)

	client, err := NewClient(clientID, entityID, "ext-1", "worker", " sync ", []Scope{ScopeETARead}, "hash", now)
	require.NoError(t, err)
	assert.True(t, client.Active)
	assert.Equal(t, "sync", client.Description)
}

func TestSecretHashNeverSerializes(t *testing.T) {
	client, err := NewClient(
		id.ClientID(uuid.New()), id.EntityID(uuid.New()),
		"ext-1", "worker", "", []Scope{ScopeETARead}, "bcrypt-hash-material", time.Now(),
	)
	require.NoError(t, err)

	payload, err := json.Marshal(client)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "bcrypt-hash-material")
	assert.NotContains(t, string(payload), "secret")
}
