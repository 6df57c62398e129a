package auth

import (
	"context"
	"strings"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates the account, logs the user in, and queues the welcome and
// verification emails. Duplicate emails surface as a validation error shaped
// like any other field failure.
func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, domain.ErrHashFailed(err)
	}

	u, err := s.users.Create(ctx, domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         string(domain.RoleUser),
	})
	if err != nil {
		return AuthResult{}, err
	}

	res, err := s.establishSession(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.notifier.Notify(ctx, u, domain.WelcomeNotification{
		DashboardURL: s.frontendURL + "/dashboard",
	})
	s.notifier.Notify(ctx, u, domain.VerifyEmailNotification{
		VerificationURL: s.links.SignVerificationURL(s.apiBaseURL, u.ID, u.Email, time.Now().Add(s.verifyTTL)),
	})

	s.audit("user.registered", map[string]string{"user_id": u.ID})
	return res, nil
}
