package auth

import (
	"context"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

// SendVerification queues a fresh signed verification link for the user.
// Already-verified users get nothing and no error, matching the idempotent
// "resend" semantics of the notification endpoint.
func (s *Service) SendVerification(ctx context.Context, userID string) (sent bool, err error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.EmailVerified() {
		return false, nil
	}

	s.notifier.Notify(ctx, u, domain.VerifyEmailNotification{
		VerificationURL: s.links.SignVerificationURL(s.apiBaseURL, u.ID, u.Email, time.Now().Add(s.verifyTTL)),
	})
	s.audit("verification.sent", map[string]string{"user_id": userID})
	return true, nil
}

// VerifyEmailInput is the decoded signed-link parameters.
type VerifyEmailInput struct {
	UserID    string
	Hash      string
	Expires   string
	Signature string
}

// VerifyEmail validates the signed link and stamps email_verified_at. A
// second click on the same valid link succeeds without restamping.
func (s *Service) VerifyEmail(ctx context.Context, in VerifyEmailInput) (domain.User, error) {
	if err := s.links.VerifySignedURL(in.UserID, in.Hash, in.Expires, in.Signature, time.Now()); err != nil {
		return domain.User{}, err
	}

	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return domain.User{}, err
	}

	// The hash binds the link to the address it was issued for. If the email
	// changed since, the link no longer applies.
	if in.Hash != s.links.EmailHash(u.Email) {
		return domain.User{}, domain.ErrInvalidSignature()
	}

	if u.EmailVerified() {
		return u, nil
	}

	now := time.Now()
	stamped, err := s.users.MarkEmailVerified(ctx, u.ID, now)
	if err != nil {
		return domain.User{}, err
	}
	if stamped {
		u.EmailVerifiedAt = &now
		s.audit("email.verified", map[string]string{"user_id": u.ID})
	}
	return u, nil
}
