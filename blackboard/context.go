package blackboard

import "context"

type contextKey struct{}

// NewContext returns a context carrying the blackboard, making run-scoped
// artifacts reachable from inside tool implementations.
func NewContext(ctx context.Context, b *Blackboard) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// FromContext returns the blackboard attached to ctx, or nil if none.
func FromContext(ctx context.Context) *Blackboard {
	b, _ := ctx.Value(contextKey{}).(*Blackboard)
	return b
}
