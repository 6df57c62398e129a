package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

// providers maps the URL segment to a configured OAuth client. Only google
// is wired today; the map keeps the handler agnostic.
type providerSet map[string]OAuthProvider

// SocialService handles the OAuth redirect and callback flows. It is split
// from Service only in construction; it reuses the same user repo, session
// store, and notifier.
type SocialService struct {
	core      *Service
	providers providerSet
	states    OAuthStateStore
}

func NewSocialService(core *Service, states OAuthStateStore, providers map[string]OAuthProvider) *SocialService {
	set := providerSet{}
	for name, p := range providers {
		if p != nil && p.IsConfigured() {
			set[name] = p
		}
	}
	return &SocialService{core: core, providers: set, states: states}
}

type SocialRedirect struct {
	AuthURL string
}

// Redirect starts the provider flow: a one-time state token plus a PKCE
// verifier are stored server-side and the provider auth URL is returned.
func (s *SocialService) Redirect(ctx context.Context, provider string) (SocialRedirect, error) {
	p, ok := s.providers[provider]
	if !ok {
		return SocialRedirect{}, domain.ErrInvalidProvider(provider)
	}

	verifier, err := randomURLToken(32)
	if err != nil {
		return SocialRedirect{}, domain.ErrRandomFailed(err)
	}

	state, err := s.states.Create(ctx, OAuthStateData{
		CodeVerifier: verifier,
		Provider:     provider,
	})
	if err != nil {
		return SocialRedirect{}, err
	}

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])
	return SocialRedirect{AuthURL: p.AuthURL(state, challenge)}, nil
}

type SocialCallbackInput struct {
	Provider string
	State    string
	Code     string
}

// Callback finishes the provider flow. The state token is consumed (a replay
// fails), the code is exchanged, and the user is found or created. Accounts
// created here get a random password and are marked verified when the
// provider vouches for the address.
func (s *SocialService) Callback(ctx context.Context, in SocialCallbackInput) (AuthResult, error) {
	p, ok := s.providers[in.Provider]
	if !ok {
		return AuthResult{}, domain.ErrInvalidProvider(in.Provider)
	}

	st, err := s.states.Consume(ctx, in.State)
	if err != nil || st.Provider != in.Provider {
		return AuthResult{}, domain.ErrSocialAuth(in.Provider, err)
	}

	info, err := p.Exchange(ctx, in.Code, st.CodeVerifier)
	if err != nil {
		return AuthResult{}, domain.ErrSocialAuth(in.Provider, err)
	}
	if info.Email == "" {
		return AuthResult{}, domain.ErrSocialAuth(in.Provider, nil)
	}

	u, err := s.core.users.GetByEmail(ctx, info.Email)
	if err != nil {
		if !isNotFound(err) {
			return AuthResult{}, err
		}
		u, err = s.createSocialUser(ctx, info)
		if err != nil {
			return AuthResult{}, err
		}
	}

	res, err := s.core.establishSession(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.core.audit("user.social_login", map[string]string{
		"user_id":  u.ID,
		"provider": in.Provider,
	})
	return res, nil
}

func (s *SocialService) createSocialUser(ctx context.Context, info OAuthUserInfo) (domain.User, error) {
	pw, err := randomPassword()
	if err != nil {
		return domain.User{}, domain.ErrRandomFailed(err)
	}
	hash, err := s.core.hasher.Hash(pw)
	if err != nil {
		return domain.User{}, domain.ErrHashFailed(err)
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}
	u := domain.User{
		Name:         name,
		Email:        info.Email,
		PasswordHash: hash,
		Role:         string(domain.RoleUser),
	}
	if info.EmailVerified {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}

	created, err := s.core.users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}

	s.core.notifier.Notify(ctx, created, domain.WelcomeNotification{
		DashboardURL: s.core.frontendURL + "/dashboard",
	})
	return created, nil
}

func randomURLToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
