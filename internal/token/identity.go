package token

import "context"

// Identity is the verified caller extracted from a valid session credential.
type Identity struct {
	ID       string
	Email    string
	IsAuthor bool
}

type identityKey struct{}

// WithIdentity attaches a verified identity to the request context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the verified identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}
