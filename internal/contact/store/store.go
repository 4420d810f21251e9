package store

import (
	"context"

	"memberdesk/internal/contact/models"
	id "memberdesk/pkg/domain"
)

// Store persists entity contacts.
type Store interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error)
	ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, contactID id.ContactID) error
}
