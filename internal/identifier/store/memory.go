package store

import (
	"context"
	"sync"
	"time"

	"memberdesk/internal/identifier/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

// InMemory is the mutex-guarded default store. All transition methods hold
// the write lock across validate-and-mutate so transitions are atomic.
type InMemory struct {
	mu          sync.RWMutex
	identifiers map[id.IdentifierID]models.Identifier
}

func NewInMemory() *InMemory {
	return &InMemory{identifiers: make(map[id.IdentifierID]models.Identifier)}
}

func (s *InMemory) Create(_ context.Context, identifier *models.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.identifiers[identifier.ID]; exists {
		return sentinel.ErrConflict
	}
	s.identifiers[identifier.ID] = *identifier
	return nil
}

func (s *InMemory) FindByID(_ context.Context, identifierID id.IdentifierID) (*models.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identifier, ok := s.identifiers[identifierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := identifier
	return &copied, nil
}

func (s *InMemory) ListByEntity(_ context.Context, entityID id.EntityID) ([]*models.Identifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Identifier
	for _, identifier := range s.identifiers {
		if identifier.EntityID == entityID {
			copied := identifier
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, identifierID id.IdentifierID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identifiers[identifierID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.identifiers, identifierID)
	return nil
}

func (s *InMemory) Execute(_ context.Context, identifierID id.IdentifierID,
	validate func(*models.Identifier) error,
	mutate func(*models.Identifier)) (*models.Identifier, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	identifier, ok := s.identifiers[identifierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(&identifier); err != nil {
			return nil, err
		}
	}
	mutate(&identifier)
	s.identifiers[identifierID] = identifier
	copied := identifier
	return &copied, nil
}

func (s *InMemory) BeginLookup(_ context.Context, identifierID id.IdentifierID, now time.Time) (*models.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identifier, ok := s.identifiers[identifierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !identifier.ValidationStatus.CanStartLookup() {
		return nil, sentinel.ErrInvalidState
	}
	prior := identifier
	identifier.ValidationStatus = models.StatusPending
	identifier.ModifiedAt = now
	s.identifiers[identifierID] = identifier
	return &prior, nil
}

func (s *InMemory) FinishLookup(_ context.Context, identifierID id.IdentifierID,
	apply func(*models.Identifier)) (*models.Identifier, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	identifier, ok := s.identifiers[identifierID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if identifier.ValidationStatus != models.StatusPending {
		// The identifier was edited (and reset) while the lookup ran; the
		// result no longer describes the stored value.
		copied := identifier
		return &copied, sentinel.ErrInvalidState
	}
	apply(&identifier)
	s.identifiers[identifierID] = identifier
	copied := identifier
	return &copied, nil
}
