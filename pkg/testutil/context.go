package testutil

import (
	"context"
	"time"

	"memberdesk/pkg/requestcontext"
)

// FixedClock is a convenient pinned timestamp for deterministic tests.
var FixedClock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// ContextAt returns a context whose request time is pinned to t, so service
// code that reads the clock through the context becomes deterministic.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

// ContextWithActor returns a pinned-clock context carrying an authenticated
// staff subject, mirroring what the auth middleware produces.
func ContextWithActor(actor string) context.Context {
	return requestcontext.WithActor(ContextAt(FixedClock), actor)
}
