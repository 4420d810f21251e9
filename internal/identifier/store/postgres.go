package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"memberdesk/internal/identifier/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

// Postgres persists identifiers in PostgreSQL. This store is pure I/O; all
// domain logic (status rules, value validation) belongs in the service.
// Transitions take a row lock (FOR UPDATE) so validate-and-mutate is atomic
// across replicas, matching the in-memory store's mutex semantics.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const identifierColumns = `id, entity_id, type, value, country_code, validation_status, last_validated_at, created_at, modified_at`

func (s *Postgres) Create(ctx context.Context, identifier *models.Identifier) error {
	query := `
		INSERT INTO identifiers (` + identifierColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		identifier.ID.String(), identifier.EntityID.String(),
		string(identifier.Type), identifier.Value, identifier.CountryCode,
		string(identifier.ValidationStatus), identifier.LastValidatedAt,
		identifier.CreatedAt, identifier.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("create identifier: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, identifierID id.IdentifierID) (*models.Identifier, error) {
	query := `SELECT ` + identifierColumns + ` FROM identifiers WHERE id = $1`
	identifier, err := scanIdentifier(s.db.QueryRowContext(ctx, query, identifierID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identifier: %w", err)
	}
	return identifier, nil
}

func (s *Postgres) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Identifier, error) {
	query := `SELECT ` + identifierColumns + ` FROM identifiers WHERE entity_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("list identifiers: %w", err)
	}
	defer rows.Close()

	var out []*models.Identifier
	for rows.Next() {
		identifier, err := scanIdentifier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identifier: %w", err)
		}
		out = append(out, identifier)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, identifierID id.IdentifierID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identifiers WHERE id = $1`, identifierID.String())
	if err != nil {
		return fmt.Errorf("delete identifier: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identifier: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Execute(ctx context.Context, identifierID id.IdentifierID,
	validate func(*models.Identifier) error,
	mutate func(*models.Identifier)) (*models.Identifier, error) {

	var out *models.Identifier
	err := s.withLockedRow(ctx, identifierID, func(tx *sql.Tx, identifier *models.Identifier) error {
		if validate != nil {
			if err := validate(identifier); err != nil {
				return err
			}
		}
		mutate(identifier)
		out = identifier
		return s.updateLocked(ctx, tx, identifier)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Postgres) BeginLookup(ctx context.Context, identifierID id.IdentifierID, now time.Time) (*models.Identifier, error) {
	var prior *models.Identifier
	err := s.withLockedRow(ctx, identifierID, func(tx *sql.Tx, identifier *models.Identifier) error {
		if !identifier.ValidationStatus.CanStartLookup() {
			return sentinel.ErrInvalidState
		}
		snapshot := *identifier
		prior = &snapshot
		identifier.ValidationStatus = models.StatusPending
		identifier.ModifiedAt = now
		return s.updateLocked(ctx, tx, identifier)
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}

func (s *Postgres) FinishLookup(ctx context.Context, identifierID id.IdentifierID,
	apply func(*models.Identifier)) (*models.Identifier, error) {

	var out *models.Identifier
	var stale bool
	err := s.withLockedRow(ctx, identifierID, func(tx *sql.Tx, identifier *models.Identifier) error {
		if identifier.ValidationStatus != models.StatusPending {
			snapshot := *identifier
			out = &snapshot
			stale = true
			return nil
		}
		apply(identifier)
		out = identifier
		return s.updateLocked(ctx, tx, identifier)
	})
	if err != nil {
		return nil, err
	}
	if stale {
		return out, sentinel.ErrInvalidState
	}
	return out, nil
}

// withLockedRow runs fn against the row selected FOR UPDATE inside a
// transaction, committing only when fn succeeds.
func (s *Postgres) withLockedRow(ctx context.Context, identifierID id.IdentifierID,
	fn func(tx *sql.Tx, identifier *models.Identifier) error) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + identifierColumns + ` FROM identifiers WHERE id = $1 FOR UPDATE`
	identifier, err := scanIdentifier(tx.QueryRowContext(ctx, query, identifierID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("lock identifier: %w", err)
	}

	if err := fn(tx, identifier); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Postgres) updateLocked(ctx context.Context, tx *sql.Tx, identifier *models.Identifier) error {
	query := `
		UPDATE identifiers
		SET type = $2, value = $3, country_code = $4,
		    validation_status = $5, last_validated_at = $6, modified_at = $7
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query,
		identifier.ID.String(), string(identifier.Type), identifier.Value,
		identifier.CountryCode, string(identifier.ValidationStatus),
		identifier.LastValidatedAt, identifier.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update identifier: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentifier(row rowScanner) (*models.Identifier, error) {
	var (
		identifier      models.Identifier
		rawID, rawEnt   string
		typ, status     string
		lastValidatedAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawEnt, &typ, &identifier.Value, &identifier.CountryCode,
		&status, &lastValidatedAt, &identifier.CreatedAt, &identifier.ModifiedAt)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseIdentifierID(rawID)
	if err != nil {
		return nil, err
	}
	parsedEntity, err := id.ParseEntityID(rawEnt)
	if err != nil {
		return nil, err
	}
	identifier.ID = parsedID
	identifier.EntityID = parsedEntity
	identifier.Type = models.Type(typ)
	identifier.ValidationStatus = models.ValidationStatus(status)
	if lastValidatedAt.Valid {
		t := lastValidatedAt.Time
		identifier.LastValidatedAt = &t
	}
	return &identifier, nil
}
