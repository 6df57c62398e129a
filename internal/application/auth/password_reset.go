package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

const resetTokenScope = "pwreset"

// RequestPasswordReset queues a reset email when the address is known. It
// reports success either way so the endpoint cannot be used to enumerate
// accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	token, err := s.links.SignResetToken(u.ID, u.Email, time.Now().Add(s.resetTTL))
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, u, domain.ForgotPasswordNotification{
		ResetURL: s.frontendURL + "/reset-password?token=" + token + "&email=" + u.Email,
	})
	s.audit("password.reset_requested", map[string]string{"user_id": u.ID})
	return nil
}

type ResetPasswordInput struct {
	Token    string
	Email    string
	Password string
}

// ResetPassword verifies the signed token, consumes it, rotates the password
// hash, and revokes every open session. A token presented twice fails the
// second time even while its expiry window is still open.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	userID, err := s.links.VerifyResetToken(in.Token, email, time.Now())
	if err != nil {
		return err
	}

	first, err := s.used.MarkUsed(ctx, resetTokenScope, tokenDigest(in.Token), s.resetTTL)
	if err != nil {
		return err
	}
	if !first {
		return domain.ErrInvalidOrExpiredToken()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.ErrHashFailed(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	// Every open session is now stale.
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}

	s.audit("password.reset", map[string]string{"user_id": userID})
	return nil
}

// tokenDigest keys the consumed-token store without storing the raw token.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
