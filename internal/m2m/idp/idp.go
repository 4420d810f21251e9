// Package idp defines the identity-provider boundary for M2M credentials.
// Registration, rotation, and revocation happen at the provider; this
// service only orchestrates them and stores non-secret metadata.
package idp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/secrets"
)

// Registration is the provider's answer to a client registration: the
// public client id plus the only copy of the plaintext secret.
type Registration struct {
	ExternalClientID string
	Secret           string
}

// Provider is the external identity provider contract. RotateSecret must
// invalidate the previous secret atomically with issuing the new one; that
// no-overlap guarantee is the provider's, requested here, not enforceable
// locally.
type Provider interface {
	RegisterClient(ctx context.Context, name string, scopes []string) (Registration, error)
	RotateSecret(ctx context.Context, externalClientID string) (string, error)
	Revoke(ctx context.Context, externalClientID string) error
}

// Local is an in-process provider for development and tests. It issues
// random secrets and tracks revocations; unknown or revoked ids fail with
// sentinel.ErrNotFound, mirroring a real provider's 404.
type Local struct {
	mu         sync.Mutex
	registered map[string]bool // external id -> active
}

func NewLocal() *Local {
	return &Local{registered: make(map[string]bool)}
}

func (l *Local) RegisterClient(_ context.Context, _ string, _ []string) (Registration, error) {
	secret, err := secrets.Generate()
	if err != nil {
		return Registration{}, fmt.Errorf("issue secret: %w", err)
	}
	externalID := "m2m_" + uuid.NewString()

	l.mu.Lock()
	l.registered[externalID] = true
	l.mu.Unlock()

	return Registration{ExternalClientID: externalID, Secret: secret}, nil
}

func (l *Local) RotateSecret(_ context.Context, externalClientID string) (string, error) {
	l.mu.Lock()
	active, ok := l.registered[externalClientID]
	l.mu.Unlock()
	if !ok || !active {
		return "", sentinel.ErrNotFound
	}
	// The moment a new secret is issued the old one stops validating;
	// there is never a window where both are accepted.
	secret, err := secrets.Generate()
	if err != nil {
		return "", fmt.Errorf("issue secret: %w", err)
	}
	return secret, nil
}

func (l *Local) Revoke(_ context.Context, externalClientID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.registered[externalClientID]; !ok {
		return sentinel.ErrNotFound
	}
	l.registered[externalClientID] = false
	return nil
}
