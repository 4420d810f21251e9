package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"memberdesk/internal/audit"
	"memberdesk/internal/entity/models"
	"memberdesk/internal/entity/store"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/requestcontext"
)

// Service owns member entity CRUD.
type Service struct {
	entities store.Store
	auditor  *audit.Publisher
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func New(entities store.Store, opts ...Option) *Service {
	s := &Service{entities: entities, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, name, countryCode string) (*models.Entity, error) {
	entity, err := models.NewEntity(id.EntityID(uuid.New()), name, countryCode, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.entities.Create(ctx, entity); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "entity already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create entity")
	}
	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionEntityCreated,
			Subject: entity.ID.String(),
			Details: map[string]string{"name": entity.Name, "country": entity.CountryCode},
		})
	}
	return entity, nil
}

func (s *Service) Get(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return entity, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Entity, error) {
	entities, err := s.entities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entities")
	}
	return entities, nil
}

func (s *Service) Update(ctx context.Context, entityID id.EntityID, name, rawStatus string) (*models.Entity, error) {
	status, err := models.ParseMembershipStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity name cannot be empty")
	}
	entity, err := s.entities.FindByID(ctx, entityID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	entity.ApplyUpdate(name, status, requestcontext.Now(ctx))
	if err := s.entities.Update(ctx, entity); err != nil {
		return nil, wrapStoreErr(err)
	}
	return entity, nil
}

func (s *Service) Delete(ctx context.Context, entityID id.EntityID) error {
	if err := s.entities.Delete(ctx, entityID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "entity not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "entity store failure")
}
