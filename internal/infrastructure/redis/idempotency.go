package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore backs the notifier's duplicate suppression with SETNX
// under processed:<message_id>.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) MarkProcessed(ctx context.Context, messageID string, retention time.Duration) (bool, error) {
	return s.client.SetNX(ctx, "processed:"+messageID, "1", retention).Result()
}

func (s *IdempotencyStore) Clear(ctx context.Context, messageID string) error {
	return s.client.Del(ctx, "processed:"+messageID).Err()
}
