package authz

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Operator is the signed-in console user.
type Operator struct {
	Username  string
	SessionID string
}

type operatorContextKey struct{}

func ContextWithOperator(ctx context.Context, operator *Operator) context.Context {
	return context.WithValue(ctx, operatorContextKey{}, operator)
}

// OperatorFromContext retrieves the Operator stored in ctx.
// It returns nil if ctx is nil, if no operator is stored, or if the stored value has a different type.
func OperatorFromContext(ctx context.Context) *Operator {
	if ctx == nil {
		return nil
	}
	operator, ok := ctx.Value(operatorContextKey{}).(*Operator)
	if !ok {
		return nil
	}
	return operator
}

// OperatorName is the name recorded in the audit journal. Background work
// without an operator is recorded as "system".
func OperatorName(ctx context.Context) string {
	operator := OperatorFromContext(ctx)
	if operator == nil || strings.TrimSpace(operator.Username) == "" {
		return "system"
	}
	return operator.Username
}

func RequireOperator(ctx context.Context) error {
	operator := OperatorFromContext(ctx)
	if operator == nil || strings.TrimSpace(operator.Username) == "" {
		return ErrUnauthenticated
	}
	return nil
}
