package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/apperr"
)

// ErrorKindKey is the error metadata key carrying the apperr kind.
const ErrorKindKey = "Versebox-Error-Kind"

// toConnectError maps a taxonomy error to a connect error with its kind attached.
func toConnectError(err error) *connect.Error {
	kind := apperr.KindOf(err)

	var code connect.Code
	switch kind {
	case apperr.KindLookupFailed:
		code = connect.CodeNotFound
	case apperr.KindInvalidSong:
		code = connect.CodeInvalidArgument
	case apperr.KindConfigUnavailable:
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}

	ce := connect.NewError(code, errors.New(err.Error()))
	ce.Meta().Set(ErrorKindKey, string(kind))
	return ce
}

// badRequest maps a request shape failure.
func badRequest(err error) *connect.Error {
	ce := connect.NewError(connect.CodeInvalidArgument, errors.New(err.Error()))
	ce.Meta().Set(ErrorKindKey, string(apperr.KindOf(err)))
	return ce
}

// fromConnectError restores the taxonomy mark on the client side.
// Failures without a kind are transport failures: CommandFailed, retryable when
// the backend was unreachable or too slow.
func fromConnectError(err error) error {
	var ce *connect.Error
	if !errors.As(err, &ce) {
		return apperr.CommandFailed(errors.Wrap(err, "command round trip failed"))
	}

	var out error
	if kind := ce.Meta().Get(ErrorKindKey); kind != "" {
		out = apperr.FromKind(apperr.Kind(kind), ce.Message())
	} else {
		out = apperr.CommandFailed(errors.Wrapf(err, "command round trip failed (%s)", ce.Code()))
	}

	switch ce.Code() {
	case connect.CodeUnavailable, connect.CodeDeadlineExceeded, connect.CodeResourceExhausted:
		out = apperr.Retryable(out)
	}
	return out
}
