// Package registry defines the lookup boundary against external business
// registries (KvK, GLEIF, VIES, EORI, Handelsregister, KBO).
//
// Each registry gets its own Client; all of them normalize into one Record
// shape so nothing downstream ever branches on source-specific field names.
// Real HTTP/SOAP integrations live outside this module; the stub clients
// here carry deterministic data for development and tests.
package registry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	dErrors "memberdesk/pkg/domain-errors"
)

// Source names the external registry a record came from.
type Source string

const (
	SourceKVK             Source = "kvk"
	SourceGLEIF           Source = "gleif"
	SourceVIES            Source = "vies"
	SourceEORI            Source = "eori"
	SourceHandelsregister Source = "handelsregister"
	SourceKBO             Source = "kbo"
)

// Activity is the 3-way classification of a registry's free-text status.
type Activity string

const (
	ActivityActive   Activity = "active"
	ActivityInactive Activity = "inactive"
	ActivityUnknown  Activity = "unknown"
)

// Record is the normalized projection of a registry response. It is a
// read-only value object: produced here, consumed by the verification
// engine and the reconciliation comparator, never persisted as-is.
type Record struct {
	Source             Source    `json:"source"`
	CompanyName        string    `json:"company_name"`
	RegistrationNumber string    `json:"registration_number"`
	CountryCode        string    `json:"country_code"`
	Status             string    `json:"status"`
	Activity           Activity  `json:"activity"`
	FetchedAt          time.Time `json:"fetched_at"`
}

// Client queries one registry. Implementations must signal "definitively
// not found" and "could not reach registry" through distinct LookupError
// categories; the verification engine's FAILED-versus-retry behavior
// depends on that distinction.
type Client interface {
	Source() Source
	Lookup(ctx context.Context, value, countryCode string) (Record, error)
}

// Set multiplexes lookups over the registered clients.
type Set struct {
	clients map[Source]Client
}

func NewSet(clients ...Client) *Set {
	s := &Set{clients: make(map[Source]Client, len(clients))}
	for _, c := range clients {
		s.clients[c.Source()] = c
	}
	return s
}

// Lookup routes to the client for the given source. An unregistered source
// is a configuration fact, not a transient failure.
func (s *Set) Lookup(ctx context.Context, source Source, value, countryCode string) (Record, error) {
	client, ok := s.clients[source]
	if !ok {
		return Record{}, dErrors.Newf(dErrors.CodeInternal, "no registry client for source %q", source)
	}

	tracer := otel.Tracer("memberdesk/registry")
	ctx, span := tracer.Start(ctx, "registry.lookup")
	span.SetAttributes(
		attribute.String("registry.source", string(source)),
		attribute.String("registry.country", countryCode),
	)
	defer span.End()

	record, err := client.Lookup(ctx, value, countryCode)
	if err != nil {
		span.RecordError(err)
		return Record{}, err
	}
	return record, nil
}

// Sources lists the registered sources; used by health reporting.
func (s *Set) Sources() []Source {
	out := make([]Source, 0, len(s.clients))
	for src := range s.clients {
		out = append(out, src)
	}
	return out
}
