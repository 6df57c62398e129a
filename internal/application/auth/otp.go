package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/careercompass/auth-service/internal/domain"
)

// IssueOTP generates a 6-digit code for the given purpose, stores it with a
// TTL, and queues the OTP email. The code is consumed on first successful
// verify; reissuing replaces any outstanding code for the same purpose.
func (s *Service) IssueOTP(ctx context.Context, userID, purpose, action string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	code, err := otpCode()
	if err != nil {
		return domain.ErrRandomFailed(err)
	}

	if err := s.otp.Put(ctx, purpose, u.ID, code, s.otpTTL); err != nil {
		return err
	}

	s.notifier.Notify(ctx, u, domain.OTPNotification{
		Code:          code,
		ExpiryMinutes: int(s.otpTTL.Minutes()),
		Action:        action,
		Purpose:       purpose,
	})
	s.audit("otp.issued", map[string]string{"user_id": u.ID, "purpose": purpose})
	return nil
}

// VerifyOTP consumes the stored code. Wrong or expired codes return a
// validation error; the stored code survives wrong guesses until its TTL.
func (s *Service) VerifyOTP(ctx context.Context, userID, purpose, code string) error {
	ok, err := s.otp.Consume(ctx, purpose, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidOrExpiredToken()
	}
	s.audit("otp.verified", map[string]string{"user_id": userID, "purpose": purpose})
	return nil
}

// otpCode returns a zero-padded 6-digit decimal string.
func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
