package actorctx

import (
	"context"

	"github.com/geocoder89/todohub/internal/auth"
)

type ctxKey struct{}

// WithIdentity attaches the resolved caller to a request context.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns nil when the context carries no identity.
func IdentityFrom(ctx context.Context) *auth.Identity {
	v, ok := ctx.Value(ctxKey{}).(auth.Identity)
	if !ok {
		return nil
	}
	return &v
}
