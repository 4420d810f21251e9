package store

import (
	"context"
	"time"

	"memberdesk/internal/identifier/models"
	id "memberdesk/pkg/domain"
)

// Store persists identifiers and owns the atomicity of status transitions.
//
// BeginLookup is the concurrency guard from the engine's contract: it
// compare-and-sets validation_status into PENDING and fails with
// sentinel.ErrInvalidState when a lookup is already in flight, so two
// concurrent lookups can never both proceed. FinishLookup applies the
// outcome only while the identifier is still PENDING; if an edit reset the
// identifier in the meantime the stale result is discarded rather than
// stamped over the new value.
type Store interface {
	Create(ctx context.Context, identifier *models.Identifier) error
	FindByID(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Identifier, error)
	Delete(ctx context.Context, identifierID id.IdentifierID) error

	// Execute atomically runs validate then mutate under the store's lock
	// (mutex or FOR UPDATE), returning the mutated identifier.
	Execute(ctx context.Context, identifierID id.IdentifierID,
		validate func(*models.Identifier) error,
		mutate func(*models.Identifier)) (*models.Identifier, error)

	// BeginLookup CAS-transitions the identifier into PENDING and returns
	// the pre-lookup snapshot (needed to revert on transport failure).
	BeginLookup(ctx context.Context, identifierID id.IdentifierID, now time.Time) (*models.Identifier, error)

	// FinishLookup applies the outcome if and only if the identifier is
	// still PENDING. Returns sentinel.ErrInvalidState (with the current
	// snapshot) when the result arrives too late to apply.
	FinishLookup(ctx context.Context, identifierID id.IdentifierID,
		apply func(*models.Identifier)) (*models.Identifier, error)
}
