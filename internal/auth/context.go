package auth

import (
	"context"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the resolved caller of a request. Subject is the actor id the
// workflow engine's capability checks consume.
type Identity struct {
	Subject string
	Name    string
}

// ContextWithIdentity returns a new context carrying the authenticated caller.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext retrieves the authenticated caller from the context, if
// any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	value := ctx.Value(identityKey)
	if value == nil {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	if !ok || identity.Subject == "" {
		return Identity{}, false
	}
	return identity, true
}
