// Package reconcile compares user-entered document claims against
// registry-fetched facts. Compare is a pure function: it is recomputed from
// current inputs on every call and its result is never persisted, so a
// stale comparison can never be displayed after either input changes.
package reconcile

import (
	"strings"
	"unicode"

	"memberdesk/internal/document/models"
	"memberdesk/internal/registry"
)

// Classification is the tri-state (plus not-applicable) display outcome.
type Classification string

const (
	Match Classification = "MATCH"
	// Partial: exactly one of name/number matched.
	Partial Classification = "PARTIAL"
	NoMatch Classification = "NO_MATCH"
	// NotApplicable: no registry record to compare against. "No data" and
	// "data disagrees" are different failure modes and are never conflated.
	NotApplicable Classification = "NOT_APPLICABLE"
)

// Result of one comparison pass.
type Result struct {
	NameMatch      bool           `json:"name_match"`
	NumberMatch    bool           `json:"number_match"`
	Classification Classification `json:"classification"`
}

// Compare checks the document's entered claims against the registry record.
// A nil record yields NotApplicable. Matching is exact after normalization;
// no fuzzy matching, by contract — upstream systems may pre-normalize.
func Compare(doc models.SupportingDocument, record *registry.Record) Result {
	if record == nil {
		return Result{Classification: NotApplicable}
	}

	nameMatch := normalizeName(doc.EnteredCompanyName) == normalizeName(record.CompanyName)
	numberMatch := normalizeNumber(doc.EnteredRegistrationNumber) == normalizeNumber(record.RegistrationNumber)

	return Result{
		NameMatch:      nameMatch,
		NumberMatch:    numberMatch,
		Classification: classify(nameMatch, numberMatch),
	}
}

func classify(nameMatch, numberMatch bool) Classification {
	switch {
	case nameMatch && numberMatch:
		return Match
	case !nameMatch && !numberMatch:
		return NoMatch
	default:
		return Partial
	}
}

// normalizeName lowercases, collapses whitespace, and strips separator
// punctuation so "Acme B.V." equals "acme bv".
func normalizeName(name string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r == '.' || r == ',' || r == '\'':
			// separator punctuation carries no identity
		default:
			if pendingSpace {
				b.WriteRune(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeNumber strips everything that is not a letter or digit, so
// "1234.5678" equals "12345678" and "BE 0417.497.106" equals "BE0417497106".
func normalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(number) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
