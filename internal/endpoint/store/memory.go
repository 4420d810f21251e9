package store

import (
	"context"
	"sort"
	"sync"

	"memberdesk/internal/endpoint/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu        sync.RWMutex
	endpoints map[id.EndpointID]models.Endpoint
}

func NewInMemory() *InMemory {
	return &InMemory{endpoints: make(map[id.EndpointID]models.Endpoint)}
}

func (s *InMemory) Create(_ context.Context, endpoint *models.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.endpoints[endpoint.ID]; exists {
		return sentinel.ErrConflict
	}
	s.endpoints[endpoint.ID] = *endpoint
	return nil
}

func (s *InMemory) FindByID(_ context.Context, endpointID id.EndpointID) (*models.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	endpoint, ok := s.endpoints[endpointID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := endpoint
	return &copied, nil
}

func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Endpoint
	for _, endpoint := range s.endpoints {
		if endpoint.EntityID == entityID {
			copied := endpoint
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, endpoint *models.Endpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[endpoint.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.endpoints[endpoint.ID] = *endpoint
	return nil
}

func (s *InMemory) Delete(_ context.Context, endpointID id.EndpointID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[endpointID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.endpoints, endpointID)
	return nil
}
