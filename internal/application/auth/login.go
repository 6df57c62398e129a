package auth

import (
	"context"
	"strings"

	"github.com/careercompass/auth-service/internal/domain"
)

type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and establishes a session. Unknown email and
// wrong password return the same error so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, in LoginInput) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			// Burn a hash comparison anyway so the timing of the two
			// failure paths stays close.
			_ = s.hasher.Compare(dummyHash, in.Password)
			return AuthResult{}, domain.ErrInvalidCredentials()
		}
		return AuthResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, in.Password); err != nil {
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	res, err := s.establishSession(ctx, u)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit("user.logged_in", map[string]string{"user_id": u.ID})
	return res, nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, compared
// against when the email is unknown.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
