package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/rome-service/internal/model"
)

const keyPrefix = "rome:batch:"

// RedisStore keeps every batch under its own key for ttl, plus a copy under
// the Latest key. Numbers come back as float64 after a round trip.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store backed by rdb. ttl <= 0 keeps keys forever.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Save writes the table under its ID and under Latest in one transaction.
func (s *RedisStore) Save(ctx context.Context, t *model.Table) error {
	if t.ID == "" {
		return errors.New("session: table has no id")
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+t.ID, data, s.ttl)
		pipe.Set(ctx, keyPrefix+Latest, data, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save batch %s: %w", t.ID, err)
	}
	return nil
}

// Load reads the table stored under id.
func (s *RedisStore) Load(ctx context.Context, id string) (*model.Table, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis load batch %s: %w", id, err)
	}
	var t model.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal batch %s: %w", id, err)
	}
	return &t, nil
}
