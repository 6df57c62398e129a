package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/infrastructure/security"
	"github.com/careercompass/auth-service/internal/transport/http/dto"
	"github.com/careercompass/auth-service/internal/transport/http/middleware"
	"github.com/careercompass/auth-service/internal/transport/http/response"
)

type SocialHandler struct {
	svc          *auth.SocialService
	sessionTTL   time.Duration
	secureCookie bool
	frontendURL  string
}

func NewSocialHandler(svc *auth.SocialService, sessionTTL time.Duration, secureCookie bool, frontendURL string) *SocialHandler {
	return &SocialHandler{
		svc:          svc,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		frontendURL:  frontendURL,
	}
}

// Redirect handles GET /auth/social/{provider}. Browsers get a 302 to the
// provider; API clients asking for JSON get the URL in the body.
func (h *SocialHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	redir, err := h.svc.Redirect(r.Context(), provider)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	if wantsHTML(r) {
		http.Redirect(w, r, redir.AuthURL, http.StatusFound)
		return
	}
	response.WriteData(w, http.StatusOK, dto.SocialRedirectResponse{URL: redir.AuthURL})
}

// Callback handles GET /auth/social/{provider}/callback.
func (h *SocialHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	res, err := h.svc.Callback(r.Context(), auth.SocialCallbackInput{
		Provider: provider,
		State:    q.Get("state"),
		Code:     q.Get("code"),
	})
	if err != nil {
		middleware.SocialLoginsTotal.WithLabelValues(provider, "error").Inc()
		response.WriteError(w, r, err)
		return
	}

	middleware.SocialLoginsTotal.WithLabelValues(provider, "success").Inc()
	security.SetSessionCookie(w, res.SessionID, h.sessionTTL, h.secureCookie)

	if wantsHTML(r) && h.frontendURL != "" {
		http.Redirect(w, r, h.frontendURL+"/dashboard", http.StatusFound)
		return
	}
	response.WriteData(w, http.StatusOK, dto.NewAuthResponse(res))
}
