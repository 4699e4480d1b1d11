package shared

import "context"

// Caller identifies the already-authenticated user performing a request.
// Authentication itself happens upstream; the gateway forwards the
// validated identity alongside the bearer credential.
type Caller struct {
	ID   int64
	Name string
}

type contextKey string

const callerContextKey contextKey = "fasontrack.caller"

// ContextWithCaller stores the caller identity in the context.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext retrieves the caller identity, if present.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(Caller)
	return caller, ok
}
