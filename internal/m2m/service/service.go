package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"memberdesk/internal/audit"
	"memberdesk/internal/m2m/idp"
	m2mmetrics "memberdesk/internal/m2m/metrics"
	"memberdesk/internal/m2m/models"
	"memberdesk/internal/m2m/store"
	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
	"memberdesk/pkg/platform/sentinel"
	"memberdesk/pkg/requestcontext"
	"memberdesk/pkg/secrets"
)

// Service owns the M2M credential lifecycle: provider registration, the
// one-time secret disclosure, rotation, and terminal deactivation.
type Service struct {
	clients  store.Store
	provider idp.Provider

	auditor *audit.Publisher
	metrics *m2mmetrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *m2mmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(clients store.Store, provider idp.Provider, opts ...Option) *Service {
	s := &Service{
		clients:  clients,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new client with the identity provider and stores its
// metadata. The returned grant is the only disclosure of the plaintext
// secret; only its bcrypt hash survives the call. A request with no valid
// scopes fails before anything is registered or persisted.
func (s *Service) Create(ctx context.Context, entityID id.EntityID, name, description string, rawScopes []string) (*models.Client, *models.CredentialGrant, error) {
	scopes, err := models.ParseScopes(rawScopes)
	if err != nil {
		return nil, nil, err
	}
	if len(scopes) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeNoScopes,
			"a client must be granted at least one scope")
	}

	registration, err := s.provider.RegisterClient(ctx, name, scopeStrings(scopes))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"identity provider registration failed")
	}

	hash, err := secrets.Hash(registration.Secret)
	if err != nil {
		s.rollbackRegistration(ctx, registration.ExternalClientID)
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	now := requestcontext.Now(ctx)
	client, err := models.NewClient(
		id.ClientID(uuid.New()), entityID, registration.ExternalClientID,
		name, description, scopes, hash, now,
	)
	if err != nil {
		s.rollbackRegistration(ctx, registration.ExternalClientID)
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		return nil, nil, err
	}

	if err := s.clients.Create(ctx, client); err != nil {
		// The provider registration must not outlive a failed persist, or an
		// orphaned credential could authenticate with no record of it here.
		s.rollbackRegistration(ctx, registration.ExternalClientID)
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store client")
	}

	s.metrics.IncrementCreated()
	s.emit(ctx, audit.ActionClientCreated, client, map[string]string{
		"scopes": joinScopes(client.Scopes),
	})
	return client, &models.CredentialGrant{
		ClientID:         client.ID,
		ExternalClientID: client.ExternalClientID,
		Secret:           registration.Secret,
	}, nil
}

// RotateSecret issues a replacement secret through the provider. The old
// secret stops validating the moment the new one exists; the new plaintext
// appears once, in the returned grant. Deactivated clients cannot rotate.
func (s *Service) RotateSecret(ctx context.Context, clientID id.ClientID) (*models.CredentialGrant, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !client.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
	}

	secret, err := s.provider.RotateSecret(ctx, client.ExternalClientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"identity provider rotation failed")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.clients.Execute(ctx, clientID,
		func(c *models.Client) error {
			if !c.Active {
				return dErrors.New(dErrors.CodeNotFound, "client not found")
			}
			return nil
		},
		func(c *models.Client) {
			c.ApplyRotation(hash, now)
		})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, wrapStoreErr(err)
	}

	s.metrics.IncrementRotated()
	s.emit(ctx, audit.ActionClientRotated, updated, nil)
	return &models.CredentialGrant{
		ClientID:         updated.ID,
		ExternalClientID: updated.ExternalClientID,
		Secret:           secret,
	}, nil
}

// Deactivate revokes the credential at the provider and marks it inactive.
// The transition is terminal and idempotent: deactivating an already
// inactive client succeeds without touching the provider again.
func (s *Service) Deactivate(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !client.Active {
		return client, nil
	}

	if err := s.provider.Revoke(ctx, client.ExternalClientID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable,
			"identity provider revocation failed")
	}

	now := requestcontext.Now(ctx)
	updated, err := s.clients.Execute(ctx, clientID, nil,
		func(c *models.Client) {
			if c.Active {
				c.ApplyDeactivation(now)
			}
		})
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	s.metrics.IncrementDeactivated()
	s.emit(ctx, audit.ActionClientDeactivated, updated, nil)
	return updated, nil
}

// Get returns client metadata. The secret never appears here in any form.
func (s *Service) Get(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return client, nil
}

func (s *Service) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Client, error) {
	clients, err := s.clients.ListByEntity(ctx, entityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clients")
	}
	return clients, nil
}

func (s *Service) rollbackRegistration(ctx context.Context, externalClientID string) {
	if err := s.provider.Revoke(ctx, externalClientID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke orphaned provider registration",
			"external_client_id", externalClientID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, client *models.Client, details map[string]string) {
	if s.auditor == nil {
		return
	}
	if details == nil {
		details = map[string]string{}
	}
	details["entity_id"] = client.EntityID.String()
	s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		Subject: client.ID.String(),
		Details: details,
	})
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "client store failure")
}

func scopeStrings(scopes []models.Scope) []string {
	out := make([]string, len(scopes))
	for i, sc := range scopes {
		out[i] = string(sc)
	}
	return out
}

func joinScopes(scopes []models.Scope) string {
	return strings.Join(scopeStrings(scopes), " ")
}
