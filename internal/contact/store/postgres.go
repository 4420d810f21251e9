package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"memberdesk/internal/contact/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const contactColumns = `id, entity_id, name, email, phone, role, created_at, modified_at`

func (s *Postgres) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		contact.ID.String(), contact.EntityID.String(), contact.Name,
		contact.Email, contact.Phone, contact.Role,
		contact.CreatedAt, contact.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	contact, err := scanContact(s.db.QueryRowContext(ctx, query, contactID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return contact, nil
}

func (s *Postgres) ListByEntity(ctx context.Context, entityID id.EntityID) ([]*models.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE entity_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, entityID.String())
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, contact)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, contact *models.Contact) error {
	query := `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, role = $5, modified_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		contact.ID.String(), contact.Name, contact.Email,
		contact.Phone, contact.Role, contact.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, contactID id.ContactID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, contactID.String())
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
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

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		contact       models.Contact
		rawID, rawEnt string
	)
	err := row.Scan(&rawID, &rawEnt, &contact.Name, &contact.Email,
		&contact.Phone, &contact.Role, &contact.CreatedAt, &contact.ModifiedAt)
	if err != nil {
		return nil, err
	}
	parsedID, err := id.ParseContactID(rawID)
	if err != nil {
		return nil, err
	}
	parsedEntity, err := id.ParseEntityID(rawEnt)
	if err != nil {
		return nil, err
	}
	contact.ID = parsedID
	contact.EntityID = parsedEntity
	return &contact, nil
}
