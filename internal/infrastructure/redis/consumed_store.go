package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/domain"
)

// ConsumedTokenStore records one-time use of signed tokens. The key lives as
// long as the token could still be valid, so a replay inside the expiry
// window is caught and a replay after it fails signature checks anyway.
type ConsumedTokenStore struct {
	client *redis.Client
}

func NewConsumedTokenStore(client *redis.Client) *ConsumedTokenStore {
	return &ConsumedTokenStore{client: client}
}

func (s *ConsumedTokenStore) MarkUsed(ctx context.Context, scope, digest string, ttl time.Duration) (bool, error) {
	first, err := s.client.SetNX(ctx, "used:"+scope+":"+digest, "1", ttl).Result()
	if err != nil {
		return false, domain.ErrSessionStoreUnavailable(err)
	}
	return first, nil
}
