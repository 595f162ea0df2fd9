package auth

import "context"

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Actor identifies the authenticated caller of a request.
type Actor struct {
	ID      int64
	IsAdmin bool
}

type contextKey struct{}

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// ActorFrom extracts the authenticated actor from the request context.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
