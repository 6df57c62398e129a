package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/domain"
)

// SessionStore keeps opaque cookie sessions. Each session value carries the
// user id and the user's session version at creation time; bumping the
// version invalidates every outstanding session at once without scanning.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(sid string) string { return "sess:" + sid }
func versionKey(uid string) string { return "sessver:" + uid }

func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	sid, err := randomSessionID()
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}

	ver, err := s.client.Get(ctx, versionKey(userID)).Int64()
	if err != nil && err != redis.Nil {
		return "", domain.ErrSessionStoreUnavailable(err)
	}

	val := userID + "|" + strconv.FormatInt(ver, 10)
	if err := s.client.Set(ctx, sessionKey(sid), val, ttl).Err(); err != nil {
		return "", domain.ErrSessionStoreUnavailable(err)
	}
	return sid, nil
}

func (s *SessionStore) Resolve(ctx context.Context, sessionID string) (string, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return "", domain.ErrUnauthenticated()
	}
	if err != nil {
		return "", domain.ErrSessionStoreUnavailable(err)
	}

	userID, sessVer, ok := splitSessionValue(val)
	if !ok {
		return "", domain.ErrUnauthenticated()
	}

	curVer, err := s.client.Get(ctx, versionKey(userID)).Int64()
	if err != nil && err != redis.Nil {
		return "", domain.ErrSessionStoreUnavailable(err)
	}
	if sessVer != curVer {
		// Stale session from before a revoke-all; clean it up.
		_ = s.client.Del(ctx, sessionKey(sessionID)).Err()
		return "", domain.ErrUnauthenticated()
	}
	return userID, nil
}

func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return domain.ErrSessionStoreUnavailable(err)
	}
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	if err := s.client.Incr(ctx, versionKey(userID)).Err(); err != nil {
		return domain.ErrSessionStoreUnavailable(err)
	}
	return nil
}

func splitSessionValue(val string) (userID string, version int64, ok bool) {
	i := strings.LastIndexByte(val, '|')
	if i < 0 {
		return "", 0, false
	}
	ver, err := strconv.ParseInt(val[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return val[:i], ver, true
}

func randomSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
