package security

import (
	"net/http"
	"time"
)

const SessionCookieName = "compass_session"

func SetSessionCookie(w http.ResponseWriter, sessionID string, ttl time.Duration, secure bool) {
	name := SessionCookieName
	if secure {
		name = "__Host-" + SessionCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	name := SessionCookieName
	if secure {
		name = "__Host-" + SessionCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func ReadSessionCookie(r *http.Request) (string, error) {
	// Prefer the host-locked cookie; fall back for local non-HTTPS dev.
	if c, err := r.Cookie("__Host-" + SessionCookieName); err == nil {
		return c.Value, nil
	}
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return c.Value, nil
}
