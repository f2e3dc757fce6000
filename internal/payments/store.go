package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingStore holds payment state between the request and its callback.
// The callbacks can arrive on a different process instance than the one
// that created the record, so the store must be shared across instances.
type PendingStore interface {
	// Put stores record under id with the given lifetime.
	Put(ctx context.Context, id string, record PendingPayment, ttl time.Duration) error
	// TakeIfPresent atomically reads and deletes the record for id.
	// Returns nil without error when no record exists.
	TakeIfPresent(ctx context.Context, id string) (*PendingPayment, error)
	// Delete removes any record for id. Deleting a missing id is a no-op.
	Delete(ctx context.Context, id string) error
}

// RedisStore implements PendingStore on Redis.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed pending payment store.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("payments: redis client cannot be nil")
	}
	return &RedisStore{redis: client}
}

func pendingKey(id string) string {
	return fmt.Sprintf("payment:%s", id)
}

func (s *RedisStore) Put(ctx context.Context, id string, record PendingPayment, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("payments: marshal pending payment: %w", err)
	}
	if err := s.redis.Set(ctx, pendingKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("payments: persist pending payment: %w", err)
	}
	return nil
}

// TakeIfPresent uses GETDEL so a record is consumed exactly once even when
// confirm and cancel callbacks race on different instances.
func (s *RedisStore) TakeIfPresent(ctx context.Context, id string) (*PendingPayment, error) {
	data, err := s.redis.GetDel(ctx, pendingKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("payments: take pending payment: %w", err)
	}
	var record PendingPayment
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("payments: decode pending payment: %w", err)
	}
	return &record, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, pendingKey(id)).Err(); err != nil {
		return fmt.Errorf("payments: delete pending payment: %w", err)
	}
	return nil
}

// MemoryStore is an in-process PendingStore for development and tests.
// It does not survive restarts and is not shared across instances.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	payment   PendingPayment
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory pending payment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

func (s *MemoryStore) Put(_ context.Context, id string, record PendingPayment, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires := time.Time{}
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	s.records[id] = memoryRecord{payment: record, expiresAt: expires}
	return nil
}

func (s *MemoryStore) TakeIfPresent(_ context.Context, id string) (*PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	delete(s.records, id)
	if !rec.expiresAt.IsZero() && time.Now().After(rec.expiresAt) {
		return nil, nil
	}
	payment := rec.payment
	return &payment, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}
