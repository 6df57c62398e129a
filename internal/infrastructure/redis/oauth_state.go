package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/domain"
)

// OAuthStateStore holds one-time state between the social redirect and its
// callback. Consume uses GETDEL so a replayed callback finds nothing.
type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOAuthStateStore(client *redis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{client: client, ttl: ttl}
}

func (s *OAuthStateStore) Create(ctx context.Context, data auth.OAuthStateData) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	body, err := json.Marshal(data)
	if err != nil {
		return "", domain.ErrInternal(err)
	}
	if err := s.client.Set(ctx, "oauthstate:"+token, body, s.ttl).Err(); err != nil {
		return "", domain.ErrSessionStoreUnavailable(err)
	}
	return token, nil
}

func (s *OAuthStateStore) Consume(ctx context.Context, token string) (auth.OAuthStateData, error) {
	body, err := s.client.GetDel(ctx, "oauthstate:"+token).Bytes()
	if err == redis.Nil {
		return auth.OAuthStateData{}, fmt.Errorf("oauth state not found or already used")
	}
	if err != nil {
		return auth.OAuthStateData{}, domain.ErrSessionStoreUnavailable(err)
	}

	var data auth.OAuthStateData
	if err := json.Unmarshal(body, &data); err != nil {
		return auth.OAuthStateData{}, domain.ErrInternal(err)
	}
	return data, nil
}
