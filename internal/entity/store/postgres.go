package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"memberdesk/internal/entity/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const entityColumns = `id, name, country_code, membership_status, created_at, modified_at`

func (s *Postgres) Create(ctx context.Context, entity *models.Entity) error {
	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entity.ID.String(), entity.Name, entity.CountryCode,
		string(entity.MembershipStatus), entity.CreatedAt, entity.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("create entity: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE id = $1`
	entity, err := scanEntity(s.db.QueryRowContext(ctx, query, entityID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find entity: %w", err)
	}
	return entity, nil
}

func (s *Postgres) List(ctx context.Context) ([]*models.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var out []*models.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, entity *models.Entity) error {
	query := `
		UPDATE entities
		SET name = $2, country_code = $3, membership_status = $4, modified_at = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		entity.ID.String(), entity.Name, entity.CountryCode,
		string(entity.MembershipStatus), entity.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update entity: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, entityID id.EntityID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = $1`, entityID.String())
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
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

func scanEntity(row rowScanner) (*models.Entity, error) {
	var (
		entity    models.Entity
		rawID     string
		rawStatus string
	)
	err := row.Scan(&rawID, &entity.Name, &entity.CountryCode, &rawStatus,
		&entity.CreatedAt, &entity.ModifiedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseEntityID(rawID)
	if err != nil {
		return nil, err
	}
	entity.ID = parsed
	entity.MembershipStatus = models.MembershipStatus(rawStatus)
	return &entity, nil
}
