package store

import (
	"context"
	"sync"

	"memberdesk/internal/m2m/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu      sync.RWMutex
	clients map[id.ClientID]models.Client
}

func NewInMemory() *InMemory {
	return &InMemory{clients: make(map[id.ClientID]models.Client)}
}

func (s *InMemory) Create(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.clients[client.ID]; exists {
		return sentinel.ErrConflict
	}
	s.clients[client.ID] = *client
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := client
	return &copied, nil
}

func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Client
	for _, client := range s.clients {
		if client.EntityID == entityID {
			copied := client
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, clientID id.ClientID,
	validate func(*models.Client) error,
	mutate func(*models.Client)) (*models.Client, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	client, ok := s.clients[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(&client); err != nil {
			return nil, err
		}
	}
	mutate(&client)
	s.clients[clientID] = client
	copied := client
	return &copied, nil
}
