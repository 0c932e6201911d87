package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgredis "github.com/harvestconnect/harvestcart/pkg/redis"
)

var _ pkgredis.IdempotencyStore = (*MemoryIdempotencyStore)(nil)

var errIdempotencyMiss = errors.New("idempotency record not found")

type memoryRecord struct {
	value     string
	expiresAt time.Time
}

// MemoryIdempotencyStore keeps idempotency records in process memory for
// deployments without Redis. Expired records are purged lazily on write.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (m *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok || !m.now().Before(rec.expiresAt) {
		return "", errIdempotencyMiss
	}
	return rec.value, nil
}

func (m *MemoryIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, rec := range m.records {
		if !now.Before(rec.expiresAt) {
			delete(m.records, k)
		}
	}
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = memoryRecord{value: fmt.Sprint(value), expiresAt: now.Add(ttl)}
	return true, nil
}

func (m *MemoryIdempotencyStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = memoryRecord{value: fmt.Sprint(value), expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryIdempotencyStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.records, key)
	}
	return nil
}

func (m *MemoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"idempotency", scope, id}, ":")
}
