package store

import (
	"context"
	"sync"

	"memberdesk/internal/document/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

// Store persists supporting documents. At most one document exists per
// identifier: Replace swaps the previous upload out atomically so stale
// claims can never linger next to fresh ones.
type Store interface {
	Replace(ctx context.Context, doc *models.SupportingDocument) error
	FindByIdentifier(ctx context.Context, identifierID id.IdentifierID) (*models.SupportingDocument, error)
	DeleteByIdentifier(ctx context.Context, identifierID id.IdentifierID) error
}

type InMemory struct {
	mu   sync.RWMutex
	docs map[id.IdentifierID]models.SupportingDocument
}

func NewInMemory() *InMemory {
	return &InMemory{docs: make(map[id.IdentifierID]models.SupportingDocument)}
}

func (s *InMemory) Replace(_ context.Context, doc *models.SupportingDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.IdentifierID] = *doc
	return nil
}

func (s *InMemory) FindByIdentifier(_ context.Context, identifierID id.IdentifierID) (*models.SupportingDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[identifierID]; ok {
		copied := doc
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) DeleteByIdentifier(_ context.Context, identifierID id.IdentifierID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, identifierID)
	return nil
}
