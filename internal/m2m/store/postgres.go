package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"memberdesk/internal/m2m/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

// Postgres persists M2M clients. Scopes are stored as a text array; the
// secret hash column is only ever written, never selected into responses —
// the model's json tag keeps it out of payloads either way.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const clientColumns = `id, entity_id, external_client_id, name, description, scopes, secret_hash, is_active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO m2m_clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		client.ID.String(), client.EntityID.String(), client.ExternalClientID,
		client.Name, client.Description, pq.Array(scopeStrings(client.Scopes)),
		client.SecretHash, client.Active, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create m2m client: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM m2m_clients WHERE id = $1`
	client, err := scanClient(s.db.QueryRowContext(ctx, query, clientID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find m2m client: %w", err)
	}
	return client, nil
}

func (s *Postgres) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM m2m_clients WHERE entity_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("list m2m clients: %w", err)
	}
	defer rows.Close()

	var out []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan m2m client: %w", err)
		}
		out = append(out, client)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, clientID id.ClientID,
	validate func(*models.Client) error,
	mutate func(*models.Client)) (*models.Client, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + clientColumns + ` FROM m2m_clients WHERE id = $1 FOR UPDATE`
	client, err := scanClient(tx.QueryRowContext(ctx, query, clientID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock m2m client: %w", err)
	}

	if validate != nil {
		if err := validate(client); err != nil {
			return nil, err
		}
	}
	mutate(client)

	update := `
		UPDATE m2m_clients
		SET name = $2, description = $3, scopes = $4, secret_hash = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		client.ID.String(), client.Name, client.Description,
		pq.Array(scopeStrings(client.Scopes)), client.SecretHash,
		client.Active, client.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update m2m client: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return client, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		client        models.Client
		rawID, rawEnt string
		rawScopes     []string
	)
	err := row.Scan(&rawID, &rawEnt, &client.ExternalClientID, &client.Name,
		&client.Description, pq.Array(&rawScopes), &client.SecretHash,
		&client.Active, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseClientID(rawID)
	if err != nil {
		return nil, err
	}
	parsedEntity, err := id.ParseEntityID(rawEnt)
	if err != nil {
		return nil, err
	}
	client.ID = parsedID
	client.EntityID = parsedEntity
	client.Scopes = make([]models.Scope, len(rawScopes))
	for i, s := range rawScopes {
		client.Scopes[i] = models.Scope(s)
	}
	return &client, nil
}

func scopeStrings(scopes []models.Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}
