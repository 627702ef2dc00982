package obs

import (
	"context"
	"net/http"
)

// routePatternKey is the context key storing matched route pattern.
type routePatternKey struct{}

// userSlotKey points at a string the auth layer fills once the viewer is known.
type userSlotKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

func withUserSlot(ctx context.Context, slot *string) context.Context {
	return context.WithValue(ctx, userSlotKey{}, slot)
}

// AnnotateUser records the authenticated user id for the request log line.
// Middleware that authenticates deeper in the chain calls this so the outer
// request logger can see the user.
func AnnotateUser(r *http.Request, userID string) {
	if slot, ok := r.Context().Value(userSlotKey{}).(*string); ok && slot != nil {
		*slot = userID
	}
}
