// Package cache holds recently fetched registry records so repeated
// reconciliation passes don't hammer external registries. Entries expire
// after a configured TTL; a cache miss is never an error, only a reason to
// look up again.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"memberdesk/internal/registry"
)

// Store caches normalized registry records keyed by source and value.
type Store interface {
	Get(ctx context.Context, source registry.Source, value string) (registry.Record, bool, error)
	Put(ctx context.Context, record registry.Record) error
}

// Memory is a mutex-guarded TTL cache, the default when Redis is not
// configured.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	record   registry.Record
	storedAt time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, source registry.Source, value string) (registry.Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[cacheKey(source, value)]
	if !ok || time.Since(entry.storedAt) >= m.ttl {
		return registry.Record{}, false, nil
	}
	return entry.record, true, nil
}

func (m *Memory) Put(_ context.Context, record registry.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(record.Source, record.RegistrationNumber)] = memoryEntry{
		record:   record,
		storedAt: time.Now(),
	}
	return nil
}

// Redis caches records as JSON with a server-side TTL, sharing hits across
// replicas.
type Redis struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedis(client *goredis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, source registry.Source, value string) (registry.Record, bool, error) {
	payload, err := r.client.Get(ctx, cacheKey(source, value)).Bytes()
	if err == goredis.Nil {
		return registry.Record{}, false, nil
	}
	if err != nil {
		return registry.Record{}, false, fmt.Errorf("registry cache get: %w", err)
	}
	var record registry.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		// Treat a corrupt entry as a miss; the next Put overwrites it.
		return registry.Record{}, false, nil
	}
	return record, true, nil
}

func (r *Redis) Put(ctx context.Context, record registry.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("registry cache marshal: %w", err)
	}
	key := cacheKey(record.Source, record.RegistrationNumber)
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("registry cache put: %w", err)
	}
	return nil
}

func cacheKey(source registry.Source, value string) string {
	return fmt.Sprintf("registry:%s:%s", source, value)
}
