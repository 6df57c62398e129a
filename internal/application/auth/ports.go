package auth

import (
	"context"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

// UserRepo is the persistence port for users. It only describes what the
// auth flows need, not how rows are stored.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
	// MarkEmailVerified stamps email_verified_at once; a second call with a
	// verified user is a no-op returning false.
	MarkEmailVerified(ctx context.Context, userID string, at time.Time) (stamped bool, err error)
}

// PasswordHasher abstracts bcrypt.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

// TokenClaims are the verified contents of a bearer access token.
type TokenClaims struct {
	UserID string
	Role   string
	Exp    time.Time
}

// TokenSigner issues and verifies bearer access tokens (JWT). Used by the
// service and the session-guard middleware.
type TokenSigner interface {
	SignAccessToken(userID string, role string, ttl time.Duration) (string, error)
	VerifyAccessToken(token string) (TokenClaims, error)
}

// SessionStore tracks opaque cookie sessions. Backed by Redis.
type SessionStore interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (sessionID string, err error)
	Resolve(ctx context.Context, sessionID string) (userID string, err error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAll(ctx context.Context, userID string) error
}

// LinkSigner issues and verifies HMAC-signed reset tokens and verification
// URLs with embedded expiry.
type LinkSigner interface {
	SignResetToken(userID, email string, expiresAt time.Time) (string, error)
	VerifyResetToken(token, email string, now time.Time) (userID string, err error)
	SignVerificationURL(base, userID, email string, expiresAt time.Time) string
	VerifySignedURL(userID, hash, expires, signature string, now time.Time) error
	EmailHash(email string) string
}

// ConsumedTokenStore records one-time use of signed tokens. MarkUsed returns
// true exactly once per digest; a second call within ttl returns false.
type ConsumedTokenStore interface {
	MarkUsed(ctx context.Context, scope, digest string, ttl time.Duration) (first bool, err error)
}

// OTPStore keeps issued one-time codes (code, user, expiry, consumed flag).
type OTPStore interface {
	Put(ctx context.Context, purpose, userID, code string, ttl time.Duration) error
	// Consume removes the code when it matches; a wrong or expired code
	// leaves nothing behind to retry against indefinitely because the key
	// TTL still applies.
	Consume(ctx context.Context, purpose, userID, code string) (ok bool, err error)
}

// Notifier hands a notification to the dispatch pipeline. Dispatch is
// queued; failures are logged by the dispatcher and never surfaced to the
// request that triggered them.
type Notifier interface {
	Notify(ctx context.Context, user domain.User, n domain.Notification)
}

// OAuthUserInfo is the provider-agnostic identity returned by a provider.
type OAuthUserInfo struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// OAuthProvider is the contract for an external OAuth client (Google).
type OAuthProvider interface {
	IsConfigured() bool
	AuthURL(state, codeChallenge string) string
	Exchange(ctx context.Context, code, codeVerifier string) (OAuthUserInfo, error)
}

// OAuthStateData is stored one-time between redirect and callback.
type OAuthStateData struct {
	CodeVerifier string `json:"code_verifier"`
	Provider     string `json:"provider"`
}

type OAuthStateStore interface {
	Create(ctx context.Context, state OAuthStateData) (token string, err error)
	Consume(ctx context.Context, token string) (OAuthStateData, error)
}
