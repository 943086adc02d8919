// Package requestctx carries per-command values through context.
package requestctx

import "context"

type correlationIDContextKey struct{}

// WithCorrelationID stores the identifier tying together one command's logs
// and spans.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationIDContextKey{}, correlationID)
}

// CorrelationIDFromContext returns the stored correlation identifier, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(correlationIDContextKey{}).(string)
	return value
}
