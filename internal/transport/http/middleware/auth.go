package middleware

import (
	"net/http"
	"strings"

	"github.com/careercompass/auth-service/internal/application/auth"
	"github.com/careercompass/auth-service/internal/domain"
	"github.com/careercompass/auth-service/internal/infrastructure/security"
	appctx "github.com/careercompass/auth-service/internal/pkg/context"
	"github.com/careercompass/auth-service/internal/transport/http/response"
)

// Guard authenticates requests from either credential: a bearer access
// token or the session cookie. Bearer wins when both are present.
type Guard struct {
	tokens auth.TokenSigner
	svc    *auth.Service
}

func NewGuard(tokens auth.TokenSigner, svc *auth.Service) *Guard {
	return &Guard{tokens: tokens, svc: svc}
}

// resolve returns the identity carried by the request, or nil when the
// request is anonymous.
func (g *Guard) resolve(r *http.Request) (*appctx.Identity, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return nil, domain.ErrUnauthenticated()
		}
		claims, err := g.tokens.VerifyAccessToken(raw)
		if err != nil {
			return nil, err
		}
		u, err := g.svc.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			return nil, domain.ErrUnauthenticated()
		}
		return &appctx.Identity{User: u}, nil
	}

	sid, err := security.ReadSessionCookie(r)
	if err != nil {
		return nil, nil // anonymous
	}
	u, err := g.svc.ResolveSession(r.Context(), sid)
	if err != nil {
		return nil, err
	}
	return &appctx.Identity{User: u, SessionID: sid}, nil
}

// RequireAuth rejects anonymous requests with 401 and stores the identity
// on the context for the handler.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.resolve(r)
		if err != nil {
			response.WriteError(w, r, err)
			return
		}
		if id == nil {
			response.WriteError(w, r, domain.ErrUnauthenticated())
			return
		}
		next.ServeHTTP(w, r.WithContext(appctx.WithIdentity(r.Context(), *id)))
	})
}

// RequireGuest rejects requests that already carry a valid identity, the
// way login and register pages bounce signed-in users.
func (g *Guard) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.resolve(r)
		if err == nil && id != nil {
			response.WriteError(w, r, domain.ErrAlreadyAuthenticated())
			return
		}
		next.ServeHTTP(w, r)
	})
}
