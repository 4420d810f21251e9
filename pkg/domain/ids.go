// Package domain defines the typed identifiers shared across memberdesk.
//
// IDs are distinct named types over uuid.UUID so that an EntityID can never
// be passed where an IdentifierID is expected. Parse helpers enforce the
// trust-boundary invariant that IDs are valid, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "memberdesk/pkg/domain-errors"
)

type (
	// EntityID identifies a member organization.
	EntityID uuid.UUID

	// IdentifierID identifies a legal identifier attached to an entity.
	IdentifierID uuid.UUID

	// DocumentID identifies an uploaded supporting document.
	DocumentID uuid.UUID

	// ClientID identifies an M2M credential record (not the external
	// client_id issued by the identity provider).
	ClientID uuid.UUID

	// ContactID identifies an entity contact.
	ContactID uuid.UUID

	// EndpointID identifies an outbound webhook endpoint.
	EndpointID uuid.UUID
)

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be the nil UUID")
	}
	return id, nil
}

func ParseEntityID(raw string) (EntityID, error) {
	id, err := parseUUID(raw, "entity id")
	return EntityID(id), err
}

func ParseIdentifierID(raw string) (IdentifierID, error) {
	id, err := parseUUID(raw, "identifier id")
	return IdentifierID(id), err
}

func ParseDocumentID(raw string) (DocumentID, error) {
	id, err := parseUUID(raw, "document id")
	return DocumentID(id), err
}

func ParseClientID(raw string) (ClientID, error) {
	id, err := parseUUID(raw, "client id")
	return ClientID(id), err
}

func ParseContactID(raw string) (ContactID, error) {
	id, err := parseUUID(raw, "contact id")
	return ContactID(id), err
}

func ParseEndpointID(raw string) (EndpointID, error) {
	id, err := parseUUID(raw, "endpoint id")
	return EndpointID(id), err
}

func (id EntityID) String() string     { return uuid.UUID(id).String() }
func (id IdentifierID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string   { return uuid.UUID(id).String() }
func (id ClientID) String() string     { return uuid.UUID(id).String() }
func (id ContactID) String() string    { return uuid.UUID(id).String() }
func (id EndpointID) String() string   { return uuid.UUID(id).String() }

func (id EntityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id IdentifierID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ContactID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EndpointID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshalling delegates to uuid so typed IDs serialize as canonical
// UUID strings in JSON payloads rather than as byte arrays.

func (id EntityID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id IdentifierID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id ClientID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ContactID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id EndpointID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *EntityID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *IdentifierID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DocumentID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClientID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ContactID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EndpointID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
