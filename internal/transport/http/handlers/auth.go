// Package handlers contains the HTTP endpoint implementations.
package handlers

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/infrastructure/security"
	appctx "github.com/careercompass/auth-service/internal/pkg/context"
	"github.com/careercompass/auth-service/internal/transport/http/dto"
	"github.com/careercompass/auth-service/internal/transport/http/middleware"
	"github.com/careercompass/auth-service/internal/transport/http/response"
)

// RateLimiter is what the handlers need from the fixed-window limiter.
type RateLimiter interface {
	Check(ctx context.Context, scope, key string, limit int, window time.Duration) error
}

const (
	registerLimit     = 5
	loginLimit        = 5
	loginWindow       = time.Minute
	verifyLimit       = 6
	verifyResendLimit = 6
	verifyWindow      = time.Minute
)

type AuthHandler struct {
	svc          *auth.Service
	limiter      RateLimiter
	sessionTTL   time.Duration
	secureCookie bool
	frontendURL  string
}

func NewAuthHandler(svc *auth.Service, limiter RateLimiter, sessionTTL time.Duration, secureCookie bool, frontendURL string) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		limiter:      limiter,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		frontendURL:  frontendURL,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.limiter.Check(r.Context(), "register", clientIP(r), registerLimit, loginWindow); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	middleware.RegistrationsTotal.Inc()
	security.SetSessionCookie(w, res.SessionID, h.sessionTTL, h.secureCookie)
	response.WriteJSON(w, http.StatusCreated, dto.NewAuthResponse(res), "Registration successful. Please verify your email.")
}

// Login handles POST /auth/login. The rate limit key combines the submitted
// email and the caller's IP, so one address cannot lock out an account from
// everywhere.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	key := req.Email + "|" + clientIP(r)
	if err := h.limiter.Check(r.Context(), "login", key, loginLimit, loginWindow); err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues("rate_limited").Inc()
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if domain.Is(err, "INVALID_CREDENTIALS") {
			middleware.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		}
		response.WriteError(w, r, err)
		return
	}

	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()
	security.SetSessionCookie(w, res.SessionID, h.sessionTTL, h.secureCookie)
	response.WriteData(w, http.StatusOK, dto.NewAuthResponse(res))
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := appctx.IdentityFrom(r.Context())
	if id.SessionID != "" {
		if err := h.svc.Logout(r.Context(), id.SessionID); err != nil {
			response.WriteError(w, r, err)
			return
		}
	}

	security.ClearSessionCookie(w, h.secureCookie)
	response.WriteMessage(w, http.StatusOK, "Logged out.")
}

// ForgotPassword handles POST /auth/forgot-password. Responds identically
// whether or not the email exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.WriteMessage(w, http.StatusOK, "We have emailed your password reset link.")
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), auth.ResetPasswordInput{
		Token:    req.Token,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.WriteMessage(w, http.StatusOK, "Your password has been reset.")
}

// VerifyEmail handles GET /auth/email/verify/{id}/{hash}. The link carries a
// signature, but the route also requires a session and the link must belong
// to the signed-in user.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := appctx.IdentityFrom(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}
	if err := h.limiter.Check(r.Context(), "verify", id.User.ID, verifyLimit, verifyWindow); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if chi.URLParam(r, "id") != id.User.ID {
		response.WriteError(w, r, domain.ErrForbidden())
		return
	}

	in := auth.VerifyEmailInput{
		UserID:    chi.URLParam(r, "id"),
		Hash:      chi.URLParam(r, "hash"),
		Expires:   r.URL.Query().Get("expires"),
		Signature: r.URL.Query().Get("signature"),
	}

	u, err := h.svc.VerifyEmail(r.Context(), in)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	// Browser clicks land here directly; send them back to the app.
	if wantsHTML(r) && h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL+"/dashboard?verified=1", http.StatusFound)
		return
	}
	response.WriteJSON(w, http.StatusOK, dto.NewUserResponse(u), "Email verified.")
}

// ResendVerification handles POST /auth/email/verification-notification.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := appctx.IdentityFrom(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrUnauthenticated())
		return
	}

	if err := h.limiter.Check(r.Context(), "resend", id.User.ID, verifyResendLimit, verifyWindow); err != nil {
		response.WriteError(w, r, err)
		return
	}

	sent, err := h.svc.SendVerification(r.Context(), id.User.ID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if !sent {
		response.WriteMessage(w, http.StatusOK, "Email already verified.")
		return
	}
	response.WriteMessage(w, http.StatusOK, "Verification link sent.")
}

func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
