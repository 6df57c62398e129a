package auth

import "context"

// Logout revokes the cookie session. The bearer token stays valid until its
// own expiry; revoking all sessions bumps the user's session version instead.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.audit("user.logged_out", map[string]string{"session_id": sessionID})
	return nil
}

// LogoutEverywhere revokes every session the user holds.
func (s *Service) LogoutEverywhere(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.audit("user.logged_out_everywhere", map[string]string{"user_id": userID})
	return nil
}
