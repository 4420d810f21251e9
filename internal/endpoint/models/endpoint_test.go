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

func TestParseEventTypes(t *testing.T) {
	events, err := ParseEventTypes([]string{"identifier.validated", " client.created ", "identifier.validated"})
	require.NoError(t, err)
	assert.Equal(t, []EventType{EventIdentifierValidated, EventClientCreated}, events)

	_, err = ParseEventTypes([]string{"identifier.validated", "identifier.exploded"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseEventTypes(nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestEventCatalogIsSorted(t *testing.T) {
	catalog := EventCatalog()
	require.NotEmpty(t, catalog)
	for i := 1; i < len(catalog); i++ {
		assert.Less(t, catalog[i-1], catalog[i])
	}
}

func TestNewEndpointRequiresHTTPS(t *testing.T) {
	endpointID := id.EndpointID(uuid.New())
	entityID := id.EntityID(uuid.New())
	events := []EventType{EventIdentifierValidated}
	now := time.Now()

	for _, rawURL := range []string{
		"http://hooks.example.test/in",
		"not a url",
		"",
		"https://",
	} {
		_, err := NewEndpoint(endpointID, entityID, rawURL, events, "hash", now)
		assert.Error(t, err, "url %q", rawURL)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}

	endpoint, err := NewEndpoint(endpointID, entityID, " https://hooks.example.test/in ", events, "hash", now)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.test/in", endpoint.URL)
	assert.True(t, endpoint.Enabled)
}

func TestNewEndpointRequiresEventsAndHash(t *testing.T) {
	endpointID := id.EndpointID(uuid.New())
	entityID := id.EntityID(uuid.New())
	now := time.Now()

	_, err := NewEndpoint(endpointID, entityID, "https://hooks.example.test/in", nil, "hash", now)
	assert.Error(t, err)

	_, err = NewEndpoint(endpointID, entityID, "https://hooks.example.test/in", []EventType{EventEntityUpdated}, "", now)
	assert.Error(t, err)
}

func TestSecretHashNeverSerializes(t *testing.T) {
	endpoint, err := NewEndpoint(
		id.EndpointID(uuid.New()), id.EntityID(uuid.New()),
		"https://hooks.example.test/in", []EventType{EventEntityUpdated},
		"bcrypt-hash-material", time.Now(),
	)
	require.NoError(t, err)

	payload, err := json.Marshal(endpoint)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "bcrypt-hash-material")
}
