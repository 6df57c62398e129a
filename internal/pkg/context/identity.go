package context

import (
	"context"

	"github.com/careercompass/auth-service/internal/domain"
)

type identityKey struct{}

// Identity is the request-scoped authenticated principal set by the session
// guard.
type Identity struct {
	User      domain.User
	SessionID string // empty when authenticated via bearer token
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
