package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"memberdesk/internal/document/models"
	id "memberdesk/pkg/domain"
	"memberdesk/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Replace upserts on identifier_id so re-uploads swap the previous document
// in one statement.
func (s *Postgres) Replace(ctx context.Context, doc *models.SupportingDocument) error {
	query := `
		INSERT INTO supporting_documents
			(id, identifier_id, file_name, entered_company_name, entered_registration_number, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identifier_id) DO UPDATE SET
			id = EXCLUDED.id,
			file_name = EXCLUDED.file_name,
			entered_company_name = EXCLUDED.entered_company_name,
			entered_registration_number = EXCLUDED.entered_registration_number,
			uploaded_at = EXCLUDED.uploaded_at
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID.String(), doc.IdentifierID.String(), doc.FileName,
		doc.EnteredCompanyName, doc.EnteredRegistrationNumber, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByIdentifier(ctx context.Context, identifierID id.IdentifierID) (*models.SupportingDocument, error) {
	query := `
		SELECT id, identifier_id, file_name, entered_company_name, entered_registration_number, uploaded_at
		FROM supporting_documents WHERE identifier_id = $1
	`
	var (
		doc           models.SupportingDocument
		rawID, rawIdn string
	)
	err := s.db.QueryRowContext(ctx, query, identifierID.String()).Scan(
		&rawID, &rawIdn, &doc.FileName,
		&doc.EnteredCompanyName, &doc.EnteredRegistrationNumber, &doc.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	parsedID, err := id.ParseDocumentID(rawID)
	if err != nil {
		return nil, err
	}
	parsedIdentifier, err := id.ParseIdentifierID(rawIdn)
	if err != nil {
		return nil, err
	}
	doc.ID = parsedID
	doc.IdentifierID = parsedIdentifier
	return &doc, nil
}

func (s *Postgres) DeleteByIdentifier(ctx context.Context, identifierID id.IdentifierID) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM supporting_documents WHERE identifier_id = $1`, identifierID.String())
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
