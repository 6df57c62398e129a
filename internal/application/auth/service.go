package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

type Service struct {
	users    UserRepo
	hasher   PasswordHasher
	tokens   TokenSigner
	sessions SessionStore
	links    LinkSigner
	used     ConsumedTokenStore
	otp      OTPStore
	notifier Notifier

	accessTTL  time.Duration
	sessionTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
	otpTTL     time.Duration

	frontendURL string
	apiBaseURL  string

	audit func(action string, fields map[string]string)
}

type Config struct {
	AccessTokenTTL   time.Duration
	SessionTTL       time.Duration
	PasswordResetTTL time.Duration
	VerifyEmailTTL   time.Duration
	OTPTTL           time.Duration

	// FrontendURL roots reset-password links; APIBaseURL roots signed
	// verification links (they hit the API route directly).
	FrontendURL string
	APIBaseURL  string
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	tokens TokenSigner,
	sessions SessionStore,
	links LinkSigner,
	used ConsumedTokenStore,
	otp OTPStore,
	notifier Notifier,
	cfg Config,
) *Service {
	resetTTL := cfg.PasswordResetTTL
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	verifyTTL := cfg.VerifyEmailTTL
	if verifyTTL <= 0 {
		verifyTTL = time.Hour
	}
	otpTTL := cfg.OTPTTL
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	apiBase := cfg.APIBaseURL
	if apiBase == "" {
		apiBase = cfg.FrontendURL
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		links:    links,
		used:     used,
		otp:      otp,
		notifier: notifier,

		accessTTL:  cfg.AccessTokenTTL,
		sessionTTL: cfg.SessionTTL,
		resetTTL:   resetTTL,
		verifyTTL:  verifyTTL,
		otpTTL:     otpTTL,

		frontendURL: cfg.FrontendURL,
		apiBaseURL:  apiBase,

		audit: func(string, map[string]string) {},
	}
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// AuthResult is the common output of flows that establish a session.
type AuthResult struct {
	User        domain.User
	SessionID   string
	AccessToken string
	TokenType   string // "Bearer"
	ExpiresIn   int64  // seconds
}

// establishSession creates a cookie session and a bearer access token for
// the user.
func (s *Service) establishSession(ctx context.Context, u domain.User) (AuthResult, error) {
	sid, err := s.sessions.Create(ctx, u.ID, s.sessionTTL)
	if err != nil {
		return AuthResult{}, err
	}

	access, err := s.tokens.SignAccessToken(u.ID, u.Role, s.accessTTL)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		User:        u,
		SessionID:   sid,
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}, nil
}

// ResolveSession maps a cookie session id to its live user. Used by the
// session guard.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (domain.User, error) {
	uid, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		// Session outlived the user row; treat as unauthenticated.
		return domain.User{}, domain.ErrUnauthenticated()
	}
	return u, nil
}

func (s *Service) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func isNotFound(err error) bool {
	var de *domain.Error
	return errors.As(err, &de) && de.Kind == domain.KindNotFound
}

// randomPassword backs accounts created through social login; the user can
// set a real password via the reset flow.
func randomPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
