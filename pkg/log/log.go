package log

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Fields is an alias for logrus.Fields.
type Fields = logrus.Fields

type contextKey string

// CorrelationIDKey is the context key carrying a correlation id across a
// single request or run.
const CorrelationIDKey contextKey = "correlation_id"

const correlationIDField = "correlation_id"

// L is the shared logger entry used by packages that want field-scoped logs
// without holding a logger of their own.
var L = logrus.NewEntry(logrus.StandardLogger())

// WithCorrelationID stores a fresh correlation id in the context and
// returns it alongside.
func WithCorrelationID(ctx context.Context) (context.Context, string) {
	correlationID := uuid.New().String()
	return context.WithValue(ctx, CorrelationIDKey, correlationID), correlationID
}

// GetCorrelationID returns the correlation id stored in the context, or "".
func GetCorrelationID(ctx context.Context) string {
	if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return correlationID
	}
	return ""
}

// ForContext returns a logger entry annotated with the context's
// correlation id, when one is present.
func ForContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return L
	}

	if correlationID := GetCorrelationID(ctx); correlationID != "" {
		return L.WithField(correlationIDField, correlationID)
	}

	return L
}
