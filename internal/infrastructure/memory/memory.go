// Package memory provides in-process fallbacks used in local development
// when Redis or RabbitMQ are not running, and by handler tests. Not for
// production: nothing here survives a restart or is shared across replicas.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/contracts/event"
	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/logger"
)

// ---- session store ----

type session struct {
	userID    string
	expiresAt time.Time
}

type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]session{}}
}

func (s *SessionStore) Create(_ context.Context, userID string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := uuid.NewString()
	s.sessions[sid] = session{userID: userID, expiresAt: time.Now().Add(ttl)}
	return sid, nil
}

func (s *SessionStore) Resolve(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.sessions, sessionID)
		return "", domain.ErrUnauthenticated()
	}
	return sess.userID, nil
}

func (s *SessionStore) Revoke(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *SessionStore) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, sid)
		}
	}
	return nil
}

// ---- user repo ----

type UserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserRepo() *UserRepo {
	return &UserRepo{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.byID[id], nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *UserRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, dup := r.byEmail[key]; dup {
		return domain.User{}, domain.ErrDuplicateEmail()
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return u, nil
}

func (r *UserRepo) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound()
	}
	u.PasswordHash = newHash
	u.UpdatedAt = time.Now()
	r.byID[userID] = u
	return nil
}

func (r *UserRepo) MarkEmailVerified(_ context.Context, userID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return false, domain.ErrUserNotFound()
	}
	if u.EmailVerified() {
		return false, nil
	}
	u.EmailVerifiedAt = &at
	r.byID[userID] = u
	return true, nil
}

// ---- consumed tokens ----

type ConsumedTokenStore struct {
	mu   sync.Mutex
	used map[string]time.Time
}

func NewConsumedTokenStore() *ConsumedTokenStore {
	return &ConsumedTokenStore{used: map[string]time.Time{}}
}

func (s *ConsumedTokenStore) MarkUsed(_ context.Context, scope, digest string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope + ":" + digest
	if until, ok := s.used[key]; ok && time.Now().Before(until) {
		return false, nil
	}
	s.used[key] = time.Now().Add(ttl)
	return true, nil
}

// ---- otp codes ----

type otpEntry struct {
	code      string
	expiresAt time.Time
}

type OTPStore struct {
	mu    sync.Mutex
	codes map[string]otpEntry
}

func NewOTPStore() *OTPStore {
	return &OTPStore{codes: map[string]otpEntry{}}
}

func (s *OTPStore) Put(_ context.Context, purpose, userID, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[purpose+":"+userID] = otpEntry{code: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *OTPStore) Consume(_ context.Context, purpose, userID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := purpose + ":" + userID
	entry, ok := s.codes[key]
	if !ok || time.Now().After(entry.expiresAt) || entry.code != code {
		return false, nil
	}
	delete(s.codes, key)
	return true, nil
}

// ---- oauth state ----

type stateEntry struct {
	data      auth.OAuthStateData
	expiresAt time.Time
}

type OAuthStateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]stateEntry
}

func NewOAuthStateStore(ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{ttl: ttl, states: map[string]stateEntry{}}
}

func (s *OAuthStateStore) Create(_ context.Context, data auth.OAuthStateData) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.states[token] = stateEntry{data: data, expiresAt: time.Now().Add(s.ttl)}
	return token, nil
}

func (s *OAuthStateStore) Consume(_ context.Context, token string) (auth.OAuthStateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[token]
	delete(s.states, token)
	if !ok || time.Now().After(entry.expiresAt) {
		return auth.OAuthStateData{}, domain.ErrUnauthenticated()
	}
	return entry.data, nil
}

// ---- publisher ----

// LogPublisher stands in for RabbitMQ in local development: envelopes are
// logged instead of queued.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, routingKey string, env event.NotificationEnvelope) error {
	logger.WithCtx(ctx).Info().
		Str("routing_key", routingKey).
		Str("kind", env.Kind).
		Str("recipient", env.Recipient.Email).
		Msg("notification (log publisher)")
	return nil
}
