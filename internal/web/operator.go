package web

import (
	"context"

	"ferreteria/internal/domain"
)

type operatorKey struct{}

func WithOperator(ctx context.Context, op domain.Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// OperatorFrom returns the operator attached by the identity middleware.
// Requests that bypassed it get the zero operator, which can do nothing.
func OperatorFrom(ctx context.Context) domain.Operator {
	op, _ := ctx.Value(operatorKey{}).(domain.Operator)
	return op
}
