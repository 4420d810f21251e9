package models

import (
	"strings"
	"time"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// SupportingDocument is an uploaded artifact (e.g. a KvK extract) together
// with the claims the uploader entered about it. Documents are immutable
// after creation; a re-upload creates a new document that replaces the
// previous one for the same identifier.
type SupportingDocument struct {
	ID           id.DocumentID   `json:"id"`
	IdentifierID id.IdentifierID `json:"identifier_id"`
	FileName     string          `json:"file_name"`

	EnteredCompanyName        string `json:"entered_company_name"`
	EnteredRegistrationNumber string `json:"entered_registration_number"`

	UploadedAt time.Time `json:"uploaded_at"`
}

func NewSupportingDocument(
	docID id.DocumentID,
	identifierID id.IdentifierID,
	fileName string,
	enteredCompanyName string,
	enteredRegistrationNumber string,
	now time.Time,
) (*SupportingDocument, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "file name cannot be empty")
	}
	if strings.TrimSpace(enteredCompanyName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entered company name cannot be empty")
	}
	if strings.TrimSpace(enteredRegistrationNumber) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entered registration number cannot be empty")
	}
	return &SupportingDocument{
		ID:                        docID,
		IdentifierID:              identifierID,
		FileName:                  fileName,
		EnteredCompanyName:        enteredCompanyName,
		EnteredRegistrationNumber: enteredRegistrationNumber,
		UploadedAt:                now,
	}, nil
}
