package common

import "context"

type ctxKey string

const (
	userIDKey   ctxKey = "auth/user-id"
	identityKey ctxKey = "auth/identity"
)

// Identity is the profile supplied by the identity provider for a signed-in viewer.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageRef string `json:"imageRef,omitempty"`
}

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WithIdentity stores the full identity and its user identifier on the context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	ctx = WithUserID(ctx, ident.ID)
	return context.WithValue(ctx, identityKey, ident)
}

// IdentityFrom extracts the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey).(Identity)
	return ident, ok
}
