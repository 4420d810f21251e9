package store

import (
	"context"
	"sort"
	"sync"

	"memberdesk/internal/contact/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	contacts map[id.ContactID]models.Contact
}

func NewInMemory() *InMemory {
	return &InMemory{contacts: make(map[id.ContactID]models.Contact)}
}

func (s *InMemory) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contacts[contact.ID]; exists {
		return sentinel.ErrConflict
	}
	s.contacts[contact.ID] = *contact
	return nil
}

func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := contact
	return &copied, nil
}

func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Contact
	for _, contact := range s.contacts {
		if contact.EntityID == entityID {
			copied := contact
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[contact.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.contacts[contact.ID] = *contact
	return nil
}

func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contacts, contactID)
	return nil
}
