package models

import (
	"sort"
	"strings"
	"time"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// Scope is a named API permission an M2M client may hold. The catalog is
// fixed; credentials can never be granted a scope outside it.
type Scope string

const (
	ScopeETARead        Scope = "ETA.Read"
	ScopeETAWrite       Scope = "ETA.Write"
	ScopeMembersRead    Scope = "Members.Read"
	ScopeMembersWrite   Scope = "Members.Write"
	ScopeWebhooksManage Scope = "Webhooks.Manage"
)

var scopeCatalog = map[Scope]struct{}{
	ScopeETARead:        {},
	ScopeETAWrite:       {},
	ScopeMembersRead:    {},
	ScopeMembersWrite:   {},
	ScopeWebhooksManage: {},
}

// Catalog returns all grantable scopes, sorted.
func Catalog() []Scope {
	out := make([]Scope, 0, len(scopeCatalog))
	for s := range scopeCatalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseScopes validates raw scope strings against the catalog, deduplicating
// while preserving first-seen order. An empty result is the caller's
// no-scopes error, not this function's.
func ParseScopes(raw []string) ([]Scope, error) {
	seen := make(map[Scope]struct{}, len(raw))
	var out []Scope
	for _, r := range raw {
		s := Scope(strings.TrimSpace(r))
		if s == "" {
			continue
		}
		if _, ok := scopeCatalog[s]; !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown scope %q", r)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Client is an M2M (client-credentials) API credential scoped to an entity.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Scopes is non-empty and drawn from the catalog
//   - SecretHash holds a bcrypt hash, never plaintext; it is excluded from
//     serialization so no read or list operation can leak it
//   - Active transitions true -> false exactly once; deactivation is terminal
type Client struct {
	ID               id.ClientID `json:"client_id"`
	EntityID         id.EntityID `json:"entity_id"`
	ExternalClientID string      `json:"external_client_id"`
	Name             string      `json:"name"`
	Description      string      `json:"description,omitempty"`
	Scopes           []Scope     `json:"assigned_scopes"`
	SecretHash       string      `json:"-"`
	Active           bool        `json:"is_active"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func NewClient(
	clientID id.ClientID,
	entityID id.EntityID,
	externalClientID string,
	name string,
	description string,
	scopes []Scope,
	secretHash string,
	now time.Time,
) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "client name must be 128 characters or less")
	}
	if externalClientID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "external client id cannot be empty")
	}
	if len(scopes) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scopes cannot be empty")
	}
	if secretHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "secret hash cannot be empty")
	}
	return &Client{
		ID:               clientID,
		EntityID:         entityID,
		ExternalClientID: externalClientID,
		Name:             name,
		Description:      strings.TrimSpace(description),
		Scopes:           scopes,
		SecretHash:       secretHash,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ApplyDeactivation marks the client inactive. Callers treat a repeated
// deactivation as a no-op; this only records the first transition.
func (c *Client) ApplyDeactivation(now time.Time) {
	c.Active = false
	c.UpdatedAt = now
}

// ApplyRotation records the hash of a freshly issued secret.
func (c *Client) ApplyRotation(secretHash string, now time.Time) {
	c.SecretHash = secretHash
	c.UpdatedAt = now
}

// CredentialGrant is the one-time secret disclosure. It is constructed only
// by Create and RotateSecret and never persisted: once the response
// carrying it is gone, the plaintext is unrecoverable by design.
type CredentialGrant struct {
	ClientID         id.ClientID `json:"client_id"`
	ExternalClientID string      `json:"external_client_id"`
	Secret           string      `json:"secret"`
}
