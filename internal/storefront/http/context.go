package http

import (
	"context"

	"github.com/kyoya-oga/enterprise-ec-demo/internal/storefront/domain"
)

type principalCtxKey struct{}

// WithPrincipal stores the authenticated principal on the context. Set by the
// auth guards after a successful resolve.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFrom returns the principal placed on the context by the guards.
// The second return is false on unguarded routes.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(domain.Principal)
	return p, ok
}
