package registry

import (
	"strings"
	"time"
)

// Registries describe company status in their own vocabulary and language.
// classifyStatus maps the raw text onto the 3-way Activity classification;
// anything unrecognized is Unknown, never guessed.
var activeStatuses = map[string]struct{}{
	"actief":      {}, // KvK
	"active":      {},
	"issued":      {}, // GLEIF
	"valid":       {}, // VIES
	"in bedrijf":  {},
	"eingetragen": {}, // Handelsregister
	"aktiv":       {},
	"an":          {}, // KBO activity flag
}

var inactiveStatuses = map[string]struct{}{
	"ontbonden":                {}, // KvK: dissolved
	"opgeheven":                {},
	"uitgeschreven":            {},
	"faillissement":            {},
	"dissolved":                {},
	"inactive":                 {},
	"lapsed":                   {}, // GLEIF
	"retired":                  {},
	"annulled":                 {},
	"merged":                   {},
	"invalid":                  {}, // VIES
	"erloschen":                {}, // Handelsregister: struck off
	"geloescht":                {},
	"aangifte van stopzetting": {}, // KBO
	"stopgezet":                {},
	"geschrapt":                {},
}

func classifyStatus(raw string) Activity {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ActivityUnknown
	}
	if _, ok := activeStatuses[normalized]; ok {
		return ActivityActive
	}
	if _, ok := inactiveStatuses[normalized]; ok {
		return ActivityInactive
	}
	return ActivityUnknown
}

// NewRecord builds a normalized Record, classifying the raw status text.
// Adapters call this so classification never diverges between sources.
func NewRecord(source Source, companyName, registrationNumber, countryCode, status string, fetchedAt time.Time) Record {
	return Record{
		Source:             source,
		CompanyName:        companyName,
		RegistrationNumber: registrationNumber,
		CountryCode:        countryCode,
		Status:             status,
		Activity:           classifyStatus(status),
		FetchedAt:          fetchedAt,
	}
}
