package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"memberdesk/internal/document/models"
	"memberdesk/internal/registry"
	id "memberdesk/pkg/domain"
)

func testDocument(name, number string) models.SupportingDocument {
	return models.SupportingDocument{
		ID:                        id.DocumentID(uuid.New()),
		IdentifierID:              id.IdentifierID(uuid.New()),
		FileName:                  "extract.pdf",
		EnteredCompanyName:        name,
		EnteredRegistrationNumber: number,
		UploadedAt:                time.Now(),
	}
}

func testRecord(name, number string) *registry.Record {
	record := registry.NewRecord(registry.SourceKVK, name, number, "NL", "Actief", time.Now())
	return &record
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		doc    models.SupportingDocument
		record *registry.Record
		want   Result
	}{
		{
			name:   "both fields match exactly",
			doc:    testDocument("Acme B.V.", "12345678"),
			record: testRecord("Acme B.V.", "12345678"),
			want:   Result{NameMatch: true, NumberMatch: true, Classification: Match},
		},
		{
			name:   "name matches despite separator dots and case",
			doc:    testDocument("Acme BV", "12345678"),
			record: testRecord("ACME B.V.", "12345678"),
			want:   Result{NameMatch: true, NumberMatch: true, Classification: Match},
		},
		{
			name:   "name matches despite collapsed whitespace",
			doc:    testDocument("  Acme   Trading  BV ", "12345678"),
			record: testRecord("Acme Trading B.V.", "12345678"),
			want:   Result{NameMatch: true, NumberMatch: true, Classification: Match},
		},
		{
			name:   "number matches after stripping formatting",
			doc:    testDocument("Acme B.V.", "1234.5678"),
			record: testRecord("Acme B.V.", "12345678"),
			want:   Result{NameMatch: true, NumberMatch: true, Classification: Match},
		},
		{
			name:   "only number matches",
			doc:    testDocument("Globex Corp", "12345678"),
			record: testRecord("Acme B.V.", "12345678"),
			want:   Result{NameMatch: false, NumberMatch: true, Classification: Partial},
		},
		{
			name:   "only name matches",
			doc:    testDocument("Acme B.V.", "99999999"),
			record: testRecord("Acme B.V.", "12345678"),
			want:   Result{NameMatch: true, NumberMatch: false, Classification: Partial},
		},
		{
			name:   "neither field matches",
			doc:    testDocument("Globex Corp", "99999999"),
			record: testRecord("Acme B.V.", "12345678"),
			want:   Result{NameMatch: false, NumberMatch: false, Classification: NoMatch},
		},
		{
			name:   "no registry record",
			doc:    testDocument("Acme B.V.", "12345678"),
			record: nil,
			want:   Result{Classification: NotApplicable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.doc, tt.record)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	doc := testDocument("Acme BV", "12345678")
	record := testRecord("Acme B.V.", "1234 5678")

	first := Compare(doc, record)
	second := Compare(doc, record)
	assert.Equal(t, first, second)
	assert.Equal(t, Match, first.Classification)
}

func TestNormalizeNumberKeepsCountryPrefix(t *testing.T) {
	doc := testDocument("Voorbeeld NV", "BE 0417.497.106")
	record := testRecord("Voorbeeld NV", "BE0417497106")
	got := Compare(doc, record)
	assert.True(t, got.NumberMatch)
}
