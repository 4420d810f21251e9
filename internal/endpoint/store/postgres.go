package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"memberdesk/internal/endpoint/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const endpointColumns = `id, entity_id, url, event_types, enabled, secret_hash, created_at, modified_at`

func (s *Postgres) Create(ctx context.Context, endpoint *models.Endpoint) error {
	query := `
		INSERT INTO webhook_endpoints (` + endpointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		endpoint.ID.String(), endpoint.EntityID.String(), endpoint.URL,
		pq.Array(eventStrings(endpoint.EventTypes)), endpoint.Enabled,
		endpoint.SecretHash, endpoint.CreatedAt, endpoint.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, endpointID id.EndpointID) (*models.Endpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM webhook_endpoints WHERE id = $1`
	endpoint, err := scanEndpoint(s.db.QueryRowContext(ctx, query, endpointID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find endpoint: %w", err)
	}
	return endpoint, nil
}

func (s *Postgres) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Endpoint, error) {
	query := `SELECT ` + endpointColumns + ` FROM webhook_endpoints WHERE entity_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var out []*models.Endpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, endpoint)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, endpoint *models.Endpoint) error {
	query := `
		UPDATE webhook_endpoints
		SET url = $2, event_types = $3, enabled = $4, secret_hash = $5, modified_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		endpoint.ID.String(), endpoint.URL,
		pq.Array(eventStrings(endpoint.EventTypes)), endpoint.Enabled,
		endpoint.SecretHash, endpoint.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, endpointID id.EndpointID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhook_endpoints WHERE id = $1`, endpointID.String())
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row rowScanner) (*models.Endpoint, error) {
	var (
		endpoint      models.Endpoint
		rawID, rawEnt string
		rawEvents     []string
	)
	err := row.Scan(&rawID, &rawEnt, &endpoint.URL, pq.Array(&rawEvents),
		&endpoint.Enabled, &endpoint.SecretHash, &endpoint.CreatedAt, &endpoint.ModifiedAt)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseEndpointID(rawID)
	if err != nil {
		return nil, err
	}
	parsedEntity, err := id.ParseEntityID(rawEnt)
	if err != nil {
		return nil, err
	}
	endpoint.ID = parsedID
	endpoint.EntityID = parsedEntity
	endpoint.EventTypes = make([]models.EventType, len(rawEvents))
	for i, e := range rawEvents {
		endpoint.EventTypes[i] = models.EventType(e)
	}
	return &endpoint, nil
}

func eventStrings(events []models.EventType) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	return out
}
