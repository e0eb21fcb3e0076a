package sessionctx

import "context"

type contextKey string

const managerContextKey contextKey = "session_manager"

// WithManager returns a context carrying m.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerContextKey, m)
}

// FromContext returns the manager installed by WithManager. It panics when
// none is installed.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(managerContextKey).(*Manager)
	if !ok || m == nil {
		panic("sessionctx: FromContext called without a Manager in the context")
	}
	return m
}

// Lookup is FromContext without the panic.
func Lookup(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(managerContextKey).(*Manager)
	return m, ok && m != nil
}
