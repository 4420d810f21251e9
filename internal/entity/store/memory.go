package store

import (
	"context"
	"sort"
	"sync"

	"memberdesk/internal/entity/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	entities map[id.EntityID]models.Entity
}

func NewInMemory() *InMemory {
	return &InMemory{entities: make(map[id.EntityID]models.Entity)}
}

func (s *InMemory) Create(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entities[entity.ID]; exists {
		return sentinel.ErrConflict
	}
	s.entities[entity.ID] = *entity
	return nil
}

func (s *InMemory) FindByID(_ context.Context, entityID id.EntityID) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.entities[entityID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := entity
	return &copied, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		copied := entity
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, entity *models.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entity.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.entities[entity.ID] = *entity
	return nil
}

func (s *InMemory) Delete(_ context.Context, entityID id.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entityID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entities, entityID)
	return nil
}
