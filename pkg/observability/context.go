package observability

import (
	"context"

	"github.com/google/uuid"
)

// Attribute keys shared by logs and metrics.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	NegotiationIDKey = "negotiation_id"
	OperationKey     = "operation"
	StatusKey        = "status"
)

type ctxKey int

const (
	correlationIDCtx ctxKey = iota
	requestIDCtx
	negotiationIDCtx
)

// WithCorrelationID tags ctx with the ID shared by everything one caller
// action causes. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDCtx, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, correlationIDCtx)
}

// WithRequestID tags ctx with the ID of one inbound request. An empty id
// gets a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDCtx, id)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, requestIDCtx)
}

// WithNegotiationID tags ctx with the negotiation being processed.
func WithNegotiationID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, negotiationIDCtx, id.String())
}

func NegotiationIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, negotiationIDCtx)
}

// NewRequestContext starts a request: a new request ID, and the caller's
// correlation ID or a new one.
func NewRequestContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
