package store

import (
	"context"

	"memberdesk/internal/endpoint/models"
	id "memberdesk/pkg/domain"
)

// Store persists webhook endpoints.
type Store interface {
	Create(ctx context.Context, endpoint *models.Endpoint) error
	FindByID(ctx context.Context, endpointID id.EndpointID) (*models.Endpoint, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Endpoint, error)
	Update(ctx context.Context, endpoint *models.Endpoint) error
	Delete(ctx context.Context, endpointID id.EndpointID) error
}
