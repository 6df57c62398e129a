package redis

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/domain"
)

// OTPStore keeps issued one-time codes under otp:<purpose>:<uid>. Putting a
// new code replaces any outstanding one for the same purpose.
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

func otpKey(purpose, userID string) string { return "otp:" + purpose + ":" + userID }

func (s *OTPStore) Put(ctx context.Context, purpose, userID, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKey(purpose, userID), code, ttl).Err(); err != nil {
		return domain.ErrSessionStoreUnavailable(err)
	}
	return nil
}

// Consume deletes the code only on a match. Wrong guesses leave the stored
// code in place until its TTL runs out.
func (s *OTPStore) Consume(ctx context.Context, purpose, userID, code string) (bool, error) {
	key := otpKey(purpose, userID)
	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, domain.ErrSessionStoreUnavailable(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return false, domain.ErrSessionStoreUnavailable(err)
	}
	return true, nil
}
