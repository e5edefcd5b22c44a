package shared

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// ClearPrincipal returns a context in which no principal is visible.
func ClearPrincipal(ctx context.Context) context.Context {
	if PrincipalFromContext(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, principalContextKey{}, (*Principal)(nil))
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
