package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careercompass/auth-service/internal/domain"
)

// ---- user repo ----

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> id

	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]string{},
	}
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return r.byID[id], nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (r *fakeUserRepo) Create(_ context.Context, u domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return domain.User{}, r.createErr
	}
	if _, dup := r.byEmail[u.Email]; dup {
		return domain.User{}, domain.ErrDuplicateEmail()
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, userID, newHash string) error {
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

func (r *fakeUserRepo) MarkEmailVerified(_ context.Context, userID string, at time.Time) (bool, error) {
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

// ---- hasher ----

// fakeHasher is deterministic and cheap; tests do not need real bcrypt.
type fakeHasher struct{}

func (fakeHasher) Hash(pw string) (string, error) { return "hashed:" + pw, nil }

func (fakeHasher) Compare(hash, pw string) error {
	if hash != "hashed:"+pw {
		return fmt.Errorf("mismatch")
	}
	return nil
}

// ---- token signer ----

type fakeTokenSigner struct{}

func (fakeTokenSigner) SignAccessToken(userID, role string, ttl time.Duration) (string, error) {
	return "tok:" + userID + ":" + role, nil
}

func (fakeTokenSigner) VerifyAccessToken(token string) (TokenClaims, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "tok" {
		return TokenClaims{}, domain.ErrUnauthenticated()
	}
	return TokenClaims{UserID: parts[1], Role: parts[2], Exp: time.Now().Add(time.Hour)}, nil
}

// ---- session store ----

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]string // sid -> uid
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]string{}}
}

func (s *fakeSessionStore) Create(_ context.Context, userID string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sid := uuid.NewString()
	s.sessions[sid] = userID
	return sid, nil
}

func (s *fakeSessionStore) Resolve(_ context.Context, sid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.sessions[sid]
	if !ok {
		return "", domain.ErrUnauthenticated()
	}
	return uid, nil
}

func (s *fakeSessionStore) Revoke(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

func (s *fakeSessionStore) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sid, uid := range s.sessions {
		if uid == userID {
			delete(s.sessions, sid)
		}
	}
	return nil
}

func (s *fakeSessionStore) count(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, uid := range s.sessions {
		if uid == userID {
			n++
		}
	}
	return n
}

// ---- link signer ----

// fakeLinkSigner mirrors the real HMAC signer closely enough that flow tests
// exercise real verify-after-sign paths.
type fakeLinkSigner struct{ key []byte }

func newFakeLinkSigner() *fakeLinkSigner { return &fakeLinkSigner{key: []byte("test-key")} }

func (f *fakeLinkSigner) sign(msg string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (f *fakeLinkSigner) SignResetToken(userID, email string, expiresAt time.Time) (string, error) {
	body := userID + "|" + strings.ToLower(email) + "|" + strconv.FormatInt(expiresAt.Unix(), 10)
	enc := base64.RawURLEncoding.EncodeToString([]byte(body))
	return enc + "." + f.sign(enc), nil
}

func (f *fakeLinkSigner) VerifyResetToken(token, email string, now time.Time) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 || !hmac.Equal([]byte(f.sign(parts[0])), []byte(parts[1])) {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	fields := strings.Split(string(raw), "|")
	if len(fields) != 3 {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	exp, _ := strconv.ParseInt(fields[2], 10, 64)
	if now.Unix() > exp || fields[1] != strings.ToLower(email) {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	return fields[0], nil
}

func (f *fakeLinkSigner) EmailHash(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (f *fakeLinkSigner) SignVerificationURL(base, userID, email string, expiresAt time.Time) string {
	hash := f.EmailHash(email)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := f.sign(userID + "|" + hash + "|" + exp)
	return fmt.Sprintf("%s/auth/email/verify/%s/%s?expires=%s&signature=%s", base, userID, hash, exp, sig)
}

func (f *fakeLinkSigner) VerifySignedURL(userID, hash, expires, signature string, now time.Time) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || now.Unix() > exp {
		return domain.ErrInvalidSignature()
	}
	if !hmac.Equal([]byte(f.sign(userID+"|"+hash+"|"+expires)), []byte(signature)) {
		return domain.ErrInvalidSignature()
	}
	return nil
}

// ---- consumed-token store ----

type fakeConsumedStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeConsumedStore() *fakeConsumedStore { return &fakeConsumedStore{seen: map[string]bool{}} }

func (s *fakeConsumedStore) MarkUsed(_ context.Context, scope, digest string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + digest
	if s.seen[k] {
		return false, nil
	}
	s.seen[k] = true
	return true, nil
}

// ---- otp store ----

type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newFakeOTPStore() *fakeOTPStore { return &fakeOTPStore{codes: map[string]string{}} }

func (s *fakeOTPStore) Put(_ context.Context, purpose, userID, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[purpose+":"+userID] = code
	return nil
}

func (s *fakeOTPStore) Consume(_ context.Context, purpose, userID, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := purpose + ":" + userID
	if s.codes[k] != code || code == "" {
		return false, nil
	}
	delete(s.codes, k)
	return true, nil
}

// ---- notifier ----

type sentNotification struct {
	user domain.User
	n    domain.Notification
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) Notify(_ context.Context, user domain.User, n domain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{user: user, n: n})
}

func (f *fakeNotifier) kinds() []domain.NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.n.Kind())
	}
	return out
}

// ---- oauth ----

type fakeProvider struct {
	configured bool
	info       OAuthUserInfo
	exchange   error

	lastState     string
	lastChallenge string
}

func (p *fakeProvider) IsConfigured() bool { return p.configured }

func (p *fakeProvider) AuthURL(state, challenge string) string {
	p.lastState = state
	p.lastChallenge = challenge
	return "https://provider.test/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (OAuthUserInfo, error) {
	if p.exchange != nil {
		return OAuthUserInfo{}, p.exchange
	}
	if code == "" || verifier == "" {
		return OAuthUserInfo{}, fmt.Errorf("missing code or verifier")
	}
	return p.info, nil
}

type fakeStateStore struct {
	mu     sync.Mutex
	states map[string]OAuthStateData
}

func newFakeStateStore() *fakeStateStore { return &fakeStateStore{states: map[string]OAuthStateData{}} }

func (s *fakeStateStore) Create(_ context.Context, data OAuthStateData) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok := uuid.NewString()
	s.states[tok] = data
	return tok, nil
}

func (s *fakeStateStore) Consume(_ context.Context, token string) (OAuthStateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.states[token]
	if !ok {
		return OAuthStateData{}, fmt.Errorf("unknown state")
	}
	delete(s.states, token)
	return data, nil
}

// ---- harness ----

type fixture struct {
	svc      *Service
	users    *fakeUserRepo
	sessions *fakeSessionStore
	links    *fakeLinkSigner
	used     *fakeConsumedStore
	otp      *fakeOTPStore
	notifier *fakeNotifier
}

func newFixture() *fixture {
	users := newFakeUserRepo()
	sessions := newFakeSessionStore()
	links := newFakeLinkSigner()
	used := newFakeConsumedStore()
	otp := newFakeOTPStore()
	notifier := &fakeNotifier{}

	svc := NewService(users, fakeHasher{}, fakeTokenSigner{}, sessions, links, used, otp, notifier, Config{
		AccessTokenTTL:   15 * time.Minute,
		SessionTTL:       24 * time.Hour,
		PasswordResetTTL: time.Hour,
		VerifyEmailTTL:   time.Hour,
		OTPTTL:           10 * time.Minute,
		FrontendURL:      "https://app.test",
		APIBaseURL:       "https://api.test",
	})

	return &fixture{
		svc:      svc,
		users:    users,
		sessions: sessions,
		links:    links,
		used:     used,
		otp:      otp,
		notifier: notifier,
	}
}
