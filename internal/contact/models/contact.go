package models

import (
	"net/mail"
	"strings"
	"time"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// Contact is a per-entity administrative contact.
type Contact struct {
	ID         id.ContactID `json:"contact_id"`
	EntityID   id.EntityID  `json:"entity_id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone,omitempty"`
	Role       string       `json:"role,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	ModifiedAt time.Time    `json:"modified_at"`
}

func NewContact(contactID id.ContactID, entityID id.EntityID, name, email, phone, role string, now time.Time) (*Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "contact name cannot be empty")
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid email address %q", email)
	}
	return &Contact{
		ID:         contactID,
		EntityID:   entityID,
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(phone),
		Role:       strings.TrimSpace(role),
		CreatedAt:  now,
		ModifiedAt: now,
	}, nil
}

// ApplyUpdate replaces the mutable fields after the caller has validated them.
func (c *Contact) ApplyUpdate(name, email, phone, role string, now time.Time) {
	c.Name = name
	c.Email = email
	c.Phone = phone
	c.Role = role
	c.ModifiedAt = now
}
