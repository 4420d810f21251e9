package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"memberdesk/internal/audit"
	"memberdesk/internal/endpoint/models"
	"memberdesk/internal/endpoint/store"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/requestcontext"
	"memberdesk/pkg/secrets"
)

// Service owns webhook endpoint CRUD and the signing-secret lifecycle.
// The plaintext signing secret follows the same one-time reveal rule as
// M2M client secrets: it appears only in the grant from Create and Rotate.
type Service struct {
	endpoints store.Store
	auditor   *audit.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func New(endpoints store.Store, opts ...Option) *Service {
	s := &Service{endpoints: endpoints, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, entityID id.EntityID, rawURL string, rawEvents []string) (*models.Endpoint, *models.SigningSecretGrant, error) {
	eventTypes, err := models.ParseEventTypes(rawEvents)
	if err != nil {
		return nil, nil, err
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue signing secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash signing secret")
	}

	endpoint, err := models.NewEndpoint(
		id.EndpointID(uuid.New()), entityID, rawURL, eventTypes, hash,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := s.endpoints.Create(ctx, endpoint); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store endpoint")
	}

	if s.auditor != nil {
		s.auditor.Emit(ctx, audit.Event{
			Action:  audit.ActionEndpointCreated,
			Subject: endpoint.ID.String(),
			Details: map[string]string{"entity_id": entityID.String(), "url": endpoint.URL},
		})
	}
	return endpoint, &models.SigningSecretGrant{EndpointID: endpoint.ID, Secret: secret}, nil
}

func (s *Service) Get(ctx context.Context, endpointID id.EndpointID) (*models.Endpoint, error) {
	endpoint, err := s.endpoints.FindByID(ctx, endpointID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return endpoint, nil
}

func (s *Service) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Endpoint, error) {
	endpoints, err := s.endpoints.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list endpoints")
	}
	return endpoints, nil
}

// UpdateSubscription replaces the event subscription and enabled flag.
func (s *Service) UpdateSubscription(ctx context.Context, endpointID id.EndpointID, rawEvents []string, enabled bool) (*models.Endpoint, error) {
	eventTypes, err := models.ParseEventTypes(rawEvents)
	if err != nil {
		return nil, err
	}
	endpoint, err := s.endpoints.FindByID(ctx, endpointID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	endpoint.ApplySubscription(eventTypes, enabled, requestcontext.Now(ctx))
	if err := s.endpoints.Update(ctx, endpoint); err != nil {
		return nil, wrapStoreErr(err)
	}
	return endpoint, nil
}

// RotateSecret issues a replacement signing secret and returns the only
// disclosure of its plaintext.
func (s *Service) RotateSecret(ctx context.Context, endpointID id.EndpointID) (*models.SigningSecretGrant, error) {
	endpoint, err := s.endpoints.FindByID(ctx, endpointID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue signing secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash signing secret")
	}

	endpoint.ApplyRotation(hash, requestcontext.Now(ctx))
	if err := s.endpoints.Update(ctx, endpoint); err != nil {
		return nil, wrapStoreErr(err)
	}
	return &models.SigningSecretGrant{EndpointID: endpoint.ID, Secret: secret}, nil
}

func (s *Service) Delete(ctx context.Context, endpointID id.EndpointID) error {
	if err := s.endpoints.Delete(ctx, endpointID); err != nil {
		return wrapStoreErr(err)
	}
	return nil
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "endpoint not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "endpoint store failure")
}
