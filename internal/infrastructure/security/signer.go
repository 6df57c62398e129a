package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/careercompass/auth-service/internal/domain"
)

// URLSigner issues and verifies HMAC-SHA256 signed tokens and URLs with an
// embedded expiry. Verification recomputes the signature and compares
// constant-time, so no server-side token storage is needed for authenticity;
// one-time semantics are layered on top by the consumed-token store.
type URLSigner struct {
	key []byte
}

func NewURLSigner(key string) *URLSigner {
	return &URLSigner{key: []byte(key)}
}

type resetPayload struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
}

// SignResetToken returns an opaque-looking token of the form
// base64url(payload) "." base64url(signature).
func (s *URLSigner) SignResetToken(userID, email string, expiresAt time.Time) (string, error) {
	body, err := json.Marshal(resetPayload{
		UserID:    userID,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	enc := base64.RawURLEncoding.EncodeToString(body)
	sig := s.sign(enc)
	return enc + "." + sig, nil
}

// VerifyResetToken checks the signature and expiry, and that the token was
// issued for the given email.
func (s *URLSigner) VerifyResetToken(token, email string, now time.Time) (userID string, err error) {
	parts := strings.SplitN(strings.TrimSpace(token), ".", 2)
	if len(parts) != 2 {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	if !hmac.Equal([]byte(s.sign(parts[0])), []byte(parts[1])) {
		return "", domain.ErrInvalidOrExpiredToken()
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	var p resetPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	if now.Unix() > p.ExpiresAt {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	if p.Email != strings.ToLower(strings.TrimSpace(email)) {
		return "", domain.ErrInvalidOrExpiredToken()
	}
	return p.UserID, nil
}

// EmailHash is the hash segment of verification URLs. It commits the link to
// the address it was issued for, so a later email change invalidates it.
func EmailHash(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (s *URLSigner) EmailHash(email string) string { return EmailHash(email) }

// SignVerificationURL builds /auth/email/verify/{id}/{hash}?expires=..&signature=..
// rooted at base.
func (s *URLSigner) SignVerificationURL(base, userID, email string, expiresAt time.Time) string {
	hash := EmailHash(email)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.sign(verifyMessage(userID, hash, exp))

	q := url.Values{}
	q.Set("expires", exp)
	q.Set("signature", sig)
	return fmt.Sprintf("%s/auth/email/verify/%s/%s?%s", strings.TrimRight(base, "/"), userID, hash, q.Encode())
}

// VerifySignedURL validates the signature and expiry of a verification link.
func (s *URLSigner) VerifySignedURL(userID, hash, expires, signature string, now time.Time) error {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature()
	}
	want := s.sign(verifyMessage(userID, hash, expires))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return domain.ErrInvalidSignature()
	}
	if now.Unix() > exp {
		return domain.ErrInvalidSignature()
	}
	return nil
}

func verifyMessage(userID, hash, expires string) string {
	return userID + "|" + hash + "|" + expires
}

func (s *URLSigner) sign(msg string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
