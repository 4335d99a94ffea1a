package httpapi

import (
	"context"

	"github.com/google/uuid"
)

type authContextKey string

const operatorKey authContextKey = "operator"

func withOperator(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, operatorKey, id)
}

// operatorFromContext returns the operator named by the request, if any.
func operatorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(operatorKey).(uuid.UUID)
	return id, ok
}
