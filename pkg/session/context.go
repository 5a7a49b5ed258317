package session

import "context"

// requestScope is the per-request slot holding the loaded state.
type requestScope struct {
	state *State
}

type scopeContextKey struct{}

func withScope(ctx context.Context, scope *requestScope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scope)
}

// FromContext returns the state loaded by Middleware. It fails with
// ErrSessionMissing when the middleware was not wired for the request.
func FromContext(ctx context.Context) (*State, error) {
	scope, ok := ctx.Value(scopeContextKey{}).(*requestScope)
	if !ok || scope == nil || scope.state == nil {
		return nil, ErrSessionMissing
	}
	return scope.state, nil
}

// MustFromContext returns the state loaded by Middleware or panics
func MustFromContext(ctx context.Context) *State {
	state, err := FromContext(ctx)
	if err != nil {
		panic("session: not found in context")
	}
	return state
}
