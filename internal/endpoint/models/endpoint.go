package models

import (
	"net/url"
	"sort"
	"strings"
	"time"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// EventType names a webhook event an endpoint can subscribe to.
type EventType string

const (
	EventIdentifierValidated EventType = "identifier.validated"
	EventIdentifierFailed    EventType = "identifier.failed"
	EventClientCreated       EventType = "client.created"
	EventClientDeactivated   EventType = "client.deactivated"
	EventEntityUpdated       EventType = "entity.updated"
)

var eventCatalog = map[EventType]struct{}{
	EventIdentifierValidated: {},
	EventIdentifierFailed:    {},
	EventClientCreated:       {},
	EventClientDeactivated:   {},
	EventEntityUpdated:       {},
}

// EventCatalog returns all subscribable event types, sorted.
func EventCatalog() []EventType {
	out := make([]EventType, 0, len(eventCatalog))
	for e := range eventCatalog {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseEventTypes validates raw event names against the catalog,
// deduplicating while preserving first-seen order.
func ParseEventTypes(raw []string) ([]EventType, error) {
	seen := make(map[EventType]struct{}, len(raw))
	var out []EventType
	for _, r := range raw {
		e := EventType(strings.TrimSpace(r))
		if e == "" {
			continue
		}
		if _, ok := eventCatalog[e]; !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown event type %q", r)
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one event type is required")
	}
	return out, nil
}

// Endpoint is a per-entity outbound webhook target. SecretHash holds the
// bcrypt hash of the signing secret; the plaintext is revealed once at
// creation or rotation, like M2M client secrets.
type Endpoint struct {
	ID         id.EndpointID `json:"endpoint_id"`
	EntityID   id.EntityID   `json:"entity_id"`
	URL        string        `json:"url"`
	EventTypes []EventType   `json:"event_types"`
	Enabled    bool          `json:"enabled"`
	SecretHash string        `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	ModifiedAt time.Time     `json:"modified_at"`
}

func NewEndpoint(endpointID id.EndpointID, entityID id.EntityID, rawURL string, eventTypes []EventType, secretHash string, now time.Time) (*Endpoint, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "endpoint url must be a valid https URL")
	}
	if len(eventTypes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one event type is required")
	}
	if secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "secret hash cannot be empty")
	}
	return &Endpoint{
		ID:         endpointID,
		EntityID:   entityID,
		URL:        parsed.String(),
		EventTypes: eventTypes,
		Enabled:    true,
		SecretHash: secretHash,
		CreatedAt:  now,
		ModifiedAt: now,
	}, nil
}

// ApplySubscription replaces the event subscription and enabled flag.
func (e *Endpoint) ApplySubscription(eventTypes []EventType, enabled bool, now time.Time) {
	e.EventTypes = eventTypes
	e.Enabled = enabled
	e.ModifiedAt = now
}

// ApplyRotation records the hash of a freshly issued signing secret.
func (e *Endpoint) ApplyRotation(secretHash string, now time.Time) {
	e.SecretHash = secretHash
	e.ModifiedAt = now
}

// SigningSecretGrant is the one-time disclosure of an endpoint's signing
// secret, returned only from create and rotate.
type SigningSecretGrant struct {
	EndpointID id.EndpointID `json:"endpoint_id"`
	Secret     string        `json:"secret"`
}
