package store

import (
	"context"

	"memberdesk/internal/m2m/models"
	id "memberdesk/pkg/domain"
)

// Store persists M2M clients. Execute runs validate-then-mutate under the
// store's lock so state checks and transitions are atomic.
type Store interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Client, error)
	Execute(ctx context.Context, clientID id.ClientID,
		validate func(*models.Client) error,
		mutate func(*models.Client)) (*models.Client, error)
}
