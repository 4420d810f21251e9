package models

import (
	"strings"
	"time"

	id "memberdesk/pkg/domain"
	dErrors "memberdesk/pkg/domain-errors"
)

// MembershipStatus is the entity's standing in the trade network.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipSuspended MembershipStatus = "SUSPENDED"
)

func ParseMembershipStatus(raw string) (MembershipStatus, error) {
	switch MembershipStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case MembershipActive:
		return MembershipActive, nil
	case MembershipSuspended:
		return MembershipSuspended, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown membership status %q", raw)
	}
}

// Entity is a member organization, the owning aggregate for identifiers,
// contacts, webhook endpoints, and M2M clients.
type Entity struct {
	ID               id.EntityID      `json:"entity_id"`
	Name             string           `json:"name"`
	CountryCode      string           `json:"country_code"`
	MembershipStatus MembershipStatus `json:"membership_status"`
	CreatedAt        time.Time        `json:"created_at"`
	ModifiedAt       time.Time        `json:"modified_at"`
}

func NewEntity(entityID id.EntityID, name, countryCode string, now time.Time) (*Entity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity name cannot be empty")
	}
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if len(countryCode) != 2 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "country code must be two letters")
	}
	return &Entity{
		ID:               entityID,
		Name:             name,
		CountryCode:      countryCode,
		MembershipStatus: MembershipActive,
		CreatedAt:        now,
		ModifiedAt:       now,
	}, nil
}

// ApplyUpdate changes the mutable fields.
func (e *Entity) ApplyUpdate(name string, status MembershipStatus, now time.Time) {
	e.Name = name
	e.MembershipStatus = status
	e.ModifiedAt = now
}
