package models

import (
	"regexp"
	"strings"
	"time"

	"memberdesk/internal/registry"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// Type enumerates the supported legal identifier kinds.
type Type string

const (
	TypeKVK             Type = "KVK"
	TypeLEI             Type = "LEI"
	TypeVAT             Type = "VAT"
	TypeEORI            Type = "EORI"
	TypeEUID            Type = "EUID"
	TypeHandelsregister Type = "HANDELSREGISTER"
	TypeKBO             Type = "KBO"
	TypeOther           Type = "OTHER"
)

func ParseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case TypeKVK, TypeLEI, TypeVAT, TypeEORI, TypeEUID, TypeHandelsregister, TypeKBO, TypeOther:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown identifier type %q", raw)
}

// RegistrySource maps an identifier type to the registry that can verify
// it. EUID and OTHER have no lookup source; they stay UNVALIDATED until a
// registry integration exists for them.
func (t Type) RegistrySource() (registry.Source, bool) {
	switch t {
	case TypeKVK:
		return registry.SourceKVK, true
	case TypeLEI:
		return registry.SourceGLEIF, true
	case TypeVAT:
		return registry.SourceVIES, true
	case TypeEORI:
		return registry.SourceEORI, true
	case TypeHandelsregister:
		return registry.SourceHandelsregister, true
	case TypeKBO:
		return registry.SourceKBO, true
	}
	return "", false
}

// RequiresDocument reports whether this identifier type needs document-backed
// verification. Currently only KVK extracts are reconciled.
func (t Type) RequiresDocument() bool {
	return t == TypeKVK
}

// ValidationStatus is the verification state of an identifier. Values are
// stable strings exposed as-is to the UI/API layer.
type ValidationStatus string

const (
	StatusUnvalidated ValidationStatus = "UNVALIDATED"
	StatusPending     ValidationStatus = "PENDING"
	StatusValidated   ValidationStatus = "VALIDATED"
	StatusFailed      ValidationStatus = "FAILED"
	StatusExpired     ValidationStatus = "EXPIRED"
)

// CanStartLookup reports whether a lookup may begin from this status.
// PENDING is excluded: at most one lookup is in flight per identifier.
func (s ValidationStatus) CanStartLookup() bool {
	return s != StatusPending
}

// Syntactic patterns per identifier type. These gate creation: a value that
// cannot possibly be valid is rejected before any record exists.
var valuePatterns = map[Type]*regexp.Regexp{
	TypeKVK:             regexp.MustCompile(`^[0-9]{8}$`),
	TypeLEI:             regexp.MustCompile(`^[A-Z0-9]{20}$`),
	TypeVAT:             regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{2,12}$`),
	TypeEORI:            regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{1,15}$`),
	TypeEUID:            regexp.MustCompile(`^[A-Z]{2}[A-Z0-9.\-]{1,62}$`),
	TypeHandelsregister: regexp.MustCompile(`^HR[AB] ?[0-9]{1,6}$`),
	TypeKBO:             regexp.MustCompile(`^[01][0-9]{9}$`),
}

// ValidateValue checks a value against its type-specific pattern. Values
// are matched uppercase; callers should store the normalized form.
func ValidateValue(t Type, value string) error {
	value = NormalizeValue(value)
	if value == "" {
		return dErrors.New(dErrors.CodeMalformedValue, "identifier value cannot be empty")
	}
	pattern, ok := valuePatterns[t]
	if !ok {
		// OTHER has no registry-defined shape; non-empty is enough.
		return nil
	}
	if !pattern.MatchString(value) {
		return dErrors.Newf(dErrors.CodeMalformedValue, "value does not match the %s format", t)
	}
	return nil
}

// NormalizeValue trims and uppercases an identifier value for storage.
func NormalizeValue(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Identifier is a typed legal identifier attached to a member entity.
//
// Invariants:
//   - Value matches the type-specific syntactic pattern
//   - ValidationStatus is UNVALIDATED until a lookup was attempted
//   - StatusValidated implies LastValidatedAt is non-nil
//   - Editing Value or Type resets to UNVALIDATED and clears LastValidatedAt
type Identifier struct {
	ID          id.IdentifierID `json:"id"`
	EntityID    id.EntityID     `json:"entity_id"`
	Type        Type            `json:"type"`
	Value       string          `json:"value"`
	CountryCode string          `json:"country_code"`

	ValidationStatus ValidationStatus `json:"validation_status"`
	LastValidatedAt  *time.Time       `json:"last_validated_at,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

func NewIdentifier(
	identifierID id.IdentifierID,
	entityID id.EntityID,
	t Type,
	value string,
	countryCode string,
	now time.Time,
) (*Identifier, error) {
	if entityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity id is required")
	}
	if err := ValidateValue(t, value); err != nil {
		return nil, err
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if len(countryCode) != 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "country code must be ISO 3166-1 alpha-2")
	}
	return &Identifier{
		ID:               identifierID,
		EntityID:         entityID,
		Type:             t,
		Value:            NormalizeValue(value),
		CountryCode:      countryCode,
		ValidationStatus: StatusUnvalidated,
		CreatedAt:        now,
		ModifiedAt:       now,
	}, nil
}

// ApplyEdit changes type and/or value. Any edit resets the identifier to
// UNVALIDATED and clears LastValidatedAt: trust never carries over to a
// changed value.
func (i *Identifier) ApplyEdit(newType Type, newValue, newCountry string, now time.Time) {
	i.Type = newType
	i.Value = NormalizeValue(newValue)
	if newCountry != "" {
		i.CountryCode = strings.ToUpper(strings.TrimSpace(newCountry))
	}
	i.ValidationStatus = StatusUnvalidated
	i.LastValidatedAt = nil
	i.ModifiedAt = now
}

// ApplyValidated records a successful active registry match.
func (i *Identifier) ApplyValidated(now time.Time) {
	i.ValidationStatus = StatusValidated
	validatedAt := now
	i.LastValidatedAt = &validatedAt
	i.ModifiedAt = now
}

// ApplyFailed records a definitive negative outcome (not found, or the
// registration is no longer active).
func (i *Identifier) ApplyFailed(now time.Time) {
	i.ValidationStatus = StatusFailed
	i.ModifiedAt = now
}
