package registry

import (
	"context"
	"time"
)

// StubClient serves canned records for one registry. Mirrors real-world
// behavior closely enough for development wiring and engine tests: known
// values return a record, unknown values return a definitive not-found,
// and an optional failure hook simulates outages.
type StubClient struct {
	source  Source
	latency time.Duration
	records map[string]Record

	// Fail, when set, is returned for every lookup. Used to simulate
	// transport failures in tests.
	Fail error
}

func NewStubClient(source Source, latency time.Duration) *StubClient {
	return &StubClient{
		source:  source,
		latency: latency,
		records: make(map[string]Record),
	}
}

// Seed registers a canned response for an identifier value.
func (c *StubClient) Seed(value, companyName, status, countryCode string) {
	c.records[value] = NewRecord(c.source, companyName, value, countryCode, status, time.Now())
}

func (c *StubClient) Source() Source { return c.source }

func (c *StubClient) Lookup(ctx context.Context, value, countryCode string) (Record, error) {
	if c.latency > 0 {
		select {
		case <-time.After(c.latency):
		case <-ctx.Done():
			return Record{}, NewLookupError(ErrorTimeout, c.source, "lookup cancelled", ctx.Err())
		}
	}
	if c.Fail != nil {
		return Record{}, c.Fail
	}
	record, ok := c.records[value]
	if !ok {
		return Record{}, NewLookupError(ErrorNotFound, c.source, "no registration for value", nil)
	}
	record.FetchedAt = time.Now()
	return record, nil
}

// DefaultStubSet wires one stub client per supported registry with a small
// deterministic dataset, for local development.
func DefaultStubSet() *Set {
	kvk := NewStubClient(SourceKVK, 50*time.Millisecond)
	kvk.Seed("12345678", "Acme B.V.", "Actief", "NL")
	kvk.Seed("87654321", "Oud Holding B.V.", "Ontbonden", "NL")

	gleif := NewStubClient(SourceGLEIF, 80*time.Millisecond)
	gleif.Seed("529900T8BM49AURSDO55", "Acme Global Trading", "ISSUED", "NL")
	gleif.Seed("549300LRWPKE6AC7Y159", "Lapsed Ventures", "LAPSED", "DE")

	vies := NewStubClient(SourceVIES, 120*time.Millisecond)
	vies.Seed("NL812345678B01", "Acme B.V.", "valid", "NL")

	eori := NewStubClient(SourceEORI, 100*time.Millisecond)
	eori.Seed("NL123456789", "Acme B.V.", "active", "NL")

	hr := NewStubClient(SourceHandelsregister, 90*time.Millisecond)
	hr.Seed("HRB86891", "Beispiel GmbH", "eingetragen", "DE")

	kbo := NewStubClient(SourceKBO, 70*time.Millisecond)
	kbo.Seed("0417497106", "Voorbeeld NV", "AN", "BE")
	kbo.Seed("0400000002", "Gestopt BVBA", "AANGIFTE VAN STOPZETTING", "BE")

	return NewSet(kvk, gleif, vies, eori, hr, kbo)
}
