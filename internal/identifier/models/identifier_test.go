package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   string
		wantErr bool
	}{
		{"kvk eight digits", TypeKVK, "12345678", false},
		{"kvk too short", TypeKVK, "1234567", true},
		{"kvk letters rejected", TypeKVK, "1234567a", true},
		{"lei twenty alphanumeric", TypeLEI, "529900T8BM49AURSDO55", false},
		{"lei lowercase input normalized", TypeLEI, "529900t8bm49aursdo55", false},
		{"lei nineteen chars", TypeLEI, "529900T8BM49AURSDO5", true},
		{"vat with country prefix", TypeVAT, "NL812345678B01", false},
		{"vat missing prefix", TypeVAT, "812345678B01", true},
		{"eori", TypeEORI, "NL123456789", false},
		{"euid", TypeEUID, "NLNHR.12345678", false},
		{"handelsregister HRB", TypeHandelsregister, "HRB86891", false},
		{"handelsregister with space", TypeHandelsregister, "HRA 12345", false},
		{"handelsregister bad prefix", TypeHandelsregister, "HRC86891", true},
		{"kbo ten digits", TypeKBO, "0417497106", false},
		{"kbo must start 0 or 1", TypeKBO, "2417497106", true},
		{"other is free-form", TypeOther, "anything-goes-7", false},
		{"empty value always rejected", TypeOther, "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateValue(tt.typ, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedValue))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	parsed, err := ParseType(" kvk ")
	require.NoError(t, err)
	assert.Equal(t, TypeKVK, parsed)

	_, err = ParseType("PASSPORT")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRegistrySource(t *testing.T) {
	_, ok := TypeKVK.RegistrySource()
	assert.True(t, ok)
	_, ok = TypeEUID.RegistrySource()
	assert.False(t, ok)
	_, ok = TypeOther.RegistrySource()
	assert.False(t, ok)
}

func TestNewIdentifierNormalizesValue(t *testing.T) {
	now := time.Now()
	identifier, err := NewIdentifier(
		id.IdentifierID(uuid.New()), id.EntityID(uuid.New()),
		TypeLEI, " 529900t8bm49aursdo55 ", "nl", now,
	)
	require.NoError(t, err)
	assert.Equal(t, "529900T8BM49AURSDO55", identifier.Value)
	assert.Equal(t, "NL", identifier.CountryCode)
	assert.Equal(t, StatusUnvalidated, identifier.ValidationStatus)
	assert.Nil(t, identifier.LastValidatedAt)
}

func TestNewIdentifierRejectsMalformedValue(t *testing.T) {
	_, err := NewIdentifier(
		id.IdentifierID(uuid.New()), id.EntityID(uuid.New()),
		TypeKVK, "not-a-kvk", "NL", time.Now(),
	)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedValue))
}

func TestApplyEditResetsValidation(t *testing.T) {
	now := time.Now()
	identifier, err := NewIdentifier(
		id.IdentifierID(uuid.New()), id.EntityID(uuid.New()),
		TypeKVK, "12345678", "NL", now,
	)
	require.NoError(t, err)

	identifier.ApplyValidated(now)
	require.Equal(t, StatusValidated, identifier.ValidationStatus)
	require.NotNil(t, identifier.LastValidatedAt)

	later := now.Add(time.Hour)
	identifier.ApplyEdit(TypeKVK, "87654321", "", later)
	assert.Equal(t, StatusUnvalidated, identifier.ValidationStatus)
	assert.Nil(t, identifier.LastValidatedAt)
	assert.Equal(t, "87654321", identifier.Value)
	assert.Equal(t, later, identifier.ModifiedAt)
}

func TestCanStartLookup(t *testing.T) {
	for _, status := range []ValidationStatus{StatusUnvalidated, StatusValidated, StatusFailed, StatusExpired} {
		assert.True(t, status.CanStartLookup(), string(status))
	}
	assert.False(t, StatusPending.CanStartLookup())
}
