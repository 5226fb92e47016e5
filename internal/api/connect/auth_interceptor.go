package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
)

const (
	// OperatorTokenHeader is the header name for operator authentication token.
	OperatorTokenHeader = "X-Operator-Token"
)

// NewOperatorAuthInterceptor creates an interceptor that validates the operator
// token on unary commands. An empty token disables the check.
func NewOperatorAuthInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token == "" {
				return next(ctx, req)
			}

			got := req.Header().Get(OperatorTokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return nil, connect.NewError(connect.CodeUnauthenticated, nil)
			}

			return next(ctx, req)
		}
	}
}

// newTokenHeaderInterceptor attaches the operator token to outgoing unary calls.
func newTokenHeaderInterceptor(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token != "" {
				req.Header().Set(OperatorTokenHeader, token)
			}
			return next(ctx, req)
		}
	}
}

// HandlerOptions returns the handler options of a backend that requires the
// given operator token.
func HandlerOptions(operatorToken string) []connect.HandlerOption {
	return []connect.HandlerOption{
		connect.WithInterceptors(NewOperatorAuthInterceptor(operatorToken)),
	}
}
