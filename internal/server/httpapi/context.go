package httpapi

import "context"

type ctxKey int

const identityKey ctxKey = 0

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID string
	Email  string
}

func contextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller identity placed by requireAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
