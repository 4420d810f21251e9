package store

import (
	"context"

	"memberdesk/internal/entity/models"
	id "memberdesk/pkg/domain"
)

// Store persists member entities.
type Store interface {
	Create(ctx context.Context, entity *models.Entity) error
	FindByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
	List(ctx context.Context) ([]*models.Entity, error)
	Update(ctx context.Context, entity *models.Entity) error
	Delete(ctx context.Context, entityID id.EntityID) error
}
