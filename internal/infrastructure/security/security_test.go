package security

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careercompass/auth-service/internal/domain"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4) // minimal cost for test speed

	hash, err := h.Hash("secret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", hash)

	assert.NoError(t, h.Compare(hash, "secret-password"))
	assert.Error(t, h.Compare(hash, "wrong-password"))
}

func TestJWTSigner(t *testing.T) {
	s := NewJWTSigner("test-secret", "careercompass")

	t.Run("sign and verify", func(t *testing.T) {
		tok, err := s.SignAccessToken("u-1", "user", time.Hour)
		require.NoError(t, err)

		claims, err := s.VerifyAccessToken(tok)
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
		assert.Equal(t, "user", claims.Role)
		assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Exp, time.Minute)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		tok, err := s.SignAccessToken("u-1", "user", -time.Minute)
		require.NoError(t, err)

		_, err = s.VerifyAccessToken(tok)
		assert.True(t, domain.Is(err, "UNAUTHENTICATED"))
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		other := NewJWTSigner("other-secret", "careercompass")
		tok, err := other.SignAccessToken("u-1", "user", time.Hour)
		require.NoError(t, err)

		_, err = s.VerifyAccessToken(tok)
		assert.True(t, domain.Is(err, "UNAUTHENTICATED"))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := s.VerifyAccessToken("not.a.jwt")
		assert.True(t, domain.Is(err, "UNAUTHENTICATED"))
	})
}

func TestURLSignerResetToken(t *testing.T) {
	s := NewURLSigner("signing-key")

	t.Run("roundtrip", func(t *testing.T) {
		tok, err := s.SignResetToken("u-1", "Ada@Example.com", time.Now().Add(time.Hour))
		require.NoError(t, err)

		uid, err := s.VerifyResetToken(tok, "ada@example.com", time.Now())
		require.NoError(t, err)
		assert.Equal(t, "u-1", uid)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := s.SignResetToken("u-1", "a@example.com", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = s.VerifyResetToken(tok, "a@example.com", time.Now())
		assert.True(t, domain.Is(err, "INVALID_OR_EXPIRED_TOKEN"))
	})

	t.Run("wrong email", func(t *testing.T) {
		tok, err := s.SignResetToken("u-1", "a@example.com", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = s.VerifyResetToken(tok, "b@example.com", time.Now())
		assert.True(t, domain.Is(err, "INVALID_OR_EXPIRED_TOKEN"))
	})

	t.Run("tampered payload", func(t *testing.T) {
		tok, err := s.SignResetToken("u-1", "a@example.com", time.Now().Add(time.Hour))
		require.NoError(t, err)

		parts := strings.SplitN(tok, ".", 2)
		forged := parts[0] + "x." + parts[1]
		_, err = s.VerifyResetToken(forged, "a@example.com", time.Now())
		assert.True(t, domain.Is(err, "INVALID_OR_EXPIRED_TOKEN"))
	})

	t.Run("wrong key", func(t *testing.T) {
		other := NewURLSigner("other-key")
		tok, err := other.SignResetToken("u-1", "a@example.com", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = s.VerifyResetToken(tok, "a@example.com", time.Now())
		assert.True(t, domain.Is(err, "INVALID_OR_EXPIRED_TOKEN"))
	})
}

func TestURLSignerVerificationURL(t *testing.T) {
	s := NewURLSigner("signing-key")

	t.Run("roundtrip", func(t *testing.T) {
		raw := s.SignVerificationURL("https://api.test", "u-1", "ada@example.com", time.Now().Add(time.Hour))
		parsed, err := url.Parse(raw)
		require.NoError(t, err)

		segs := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
		require.Len(t, segs, 5)
		assert.Equal(t, "u-1", segs[3])
		assert.Equal(t, EmailHash("ada@example.com"), segs[4])

		q := parsed.Query()
		assert.NoError(t, s.VerifySignedURL(segs[3], segs[4], q.Get("expires"), q.Get("signature"), time.Now()))
	})

	t.Run("expired", func(t *testing.T) {
		raw := s.SignVerificationURL("https://api.test", "u-1", "ada@example.com", time.Now().Add(-time.Minute))
		parsed, _ := url.Parse(raw)
		segs := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
		q := parsed.Query()

		err := s.VerifySignedURL(segs[3], segs[4], q.Get("expires"), q.Get("signature"), time.Now())
		assert.True(t, domain.Is(err, "INVALID_SIGNATURE"))
	})

	t.Run("altered expiry invalidates signature", func(t *testing.T) {
		raw := s.SignVerificationURL("https://api.test", "u-1", "ada@example.com", time.Now().Add(time.Hour))
		parsed, _ := url.Parse(raw)
		segs := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")
		q := parsed.Query()

		later := strconv.FormatInt(time.Now().Add(48*time.Hour).Unix(), 10)
		err := s.VerifySignedURL(segs[3], segs[4], later, q.Get("signature"), time.Now())
		assert.True(t, domain.Is(err, "INVALID_SIGNATURE"))
	})

	t.Run("email hash is case insensitive", func(t *testing.T) {
		assert.Equal(t, EmailHash("Ada@Example.com"), EmailHash("ada@example.com"))
	})
}

func TestSessionCookie(t *testing.T) {
	t.Run("secure cookie uses host prefix", func(t *testing.T) {
		rec := httptest.NewRecorder()
		SetSessionCookie(rec, "sid-1", time.Hour, true)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "__Host-"+SessionCookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
	})

	t.Run("read falls back to plain name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sid-2"})

		sid, err := ReadSessionCookie(req)
		require.NoError(t, err)
		assert.Equal(t, "sid-2", sid)
	})

	t.Run("clear expires the cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ClearSessionCookie(rec, false)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}
