package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	platformredis "intake/internal/platform/redis"
	id "intake/pkg/domain"
)

const keyPrefix = "intake:snapshot:"

// RedisStore persists snapshots as JSON documents in Redis. Snapshots are
// session-scoped and hot-path, which is why they live here rather than in
// the relational store.
type RedisStore struct {
	client *platformredis.Client
}

func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, appID id.ApplicationID) (*Snapshot, error) {
	raw, err := s.client.Get(ctx, keyPrefix+appID.String()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *RedisStore) Put(ctx context.Context, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+snap.ApplicationID.String(), raw, 0).Err(); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}
