package course

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LastAccessedStore keeps the last visited module per course on the
// device, so the outline can show it before the network answers.
type LastAccessedStore interface {
	Get(ctx context.Context, courseID string) (LastAccessed, bool, error)
	Set(ctx context.Context, courseID string, la LastAccessed) error
}

// MemoryLastAccessedStore is an in-process LastAccessedStore.
type MemoryLastAccessedStore struct {
	mu      sync.RWMutex
	entries map[string]LastAccessed
}

// NewMemoryLastAccessedStore returns an empty store.
func NewMemoryLastAccessedStore() *MemoryLastAccessedStore {
	return &MemoryLastAccessedStore{entries: make(map[string]LastAccessed)}
}

// Get implements LastAccessedStore.
func (s *MemoryLastAccessedStore) Get(_ context.Context, courseID string) (LastAccessed, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	la, ok := s.entries[courseID]
	return la, ok, nil
}

// Set implements LastAccessedStore.
func (s *MemoryLastAccessedStore) Set(_ context.Context, courseID string, la LastAccessed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[courseID] = la
	return nil
}

// RedisLastAccessedStore keeps entries in a Redis hash keyed by course ID.
type RedisLastAccessedStore struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLastAccessedStore stores entries in the hash named key.
func NewRedisLastAccessedStore(client redis.UniversalClient, key string) *RedisLastAccessedStore {
	return &RedisLastAccessedStore{client: client, key: key}
}

// Get implements LastAccessedStore.
func (s *RedisLastAccessedStore) Get(ctx context.Context, courseID string) (LastAccessed, bool, error) {
	data, err := s.client.HGet(ctx, s.key, courseID).Bytes()
	if errors.Is(err, redis.Nil) {
		return LastAccessed{}, false, nil
	}
	if err != nil {
		return LastAccessed{}, false, err
	}
	var la LastAccessed
	if err := json.Unmarshal(data, &la); err != nil {
		return LastAccessed{}, false, err
	}
	return la, true, nil
}

// Set implements LastAccessedStore.
func (s *RedisLastAccessedStore) Set(ctx context.Context, courseID string, la LastAccessed) error {
	data, err := json.Marshal(la)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, courseID, data).Err()
}

const storeTimeout = 2 * time.Second
