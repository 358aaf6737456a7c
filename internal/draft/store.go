package draft

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds the in-progress draft snapshot per company. There is no
// conflict detection: concurrent writers overwrite each other and the last
// write wins.
type Store interface {
	// Load returns the saved snapshot, or ok=false when no draft exists.
	Load(ctx context.Context, companyID string) (*Snapshot, bool, error)
	Save(ctx context.Context, companyID string, snap *Snapshot) error
	Clear(ctx context.Context, companyID string) error
}

const draftKeyPrefix = "careers:draft:"

// RedisStore persists drafts as JSON values with a bounded lifetime, so an
// abandoned editing session expires on its own.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, companyID string) (*Snapshot, bool, error) {
	data, err := s.rdb.Get(ctx, draftKeyPrefix+companyID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Corrupt draft is treated as no draft
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *RedisStore) Save(ctx context.Context, companyID string, snap *Snapshot) error {
	snap.SavedAt = time.Now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, draftKeyPrefix+companyID, data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, companyID string) error {
	return s.rdb.Del(ctx, draftKeyPrefix+companyID).Err()
}

// MemoryStore is a map-backed Store for tests and Redis-less development.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, companyID string) (*Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.drafts[companyID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, companyID string, snap *Snapshot) error {
	snap.SavedAt = time.Now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[companyID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, companyID string) error {
	s.mu.Lock()
	delete(s.drafts, companyID)
	s.mu.Unlock()
	return nil
}
