// Package apperr defines the error taxonomy shared by the backend and the operator console.
package apperr

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Sentinel marks. Use errors.Is to classify; the original cause stays in the chain.
var (
	ErrLookupFailed      = errors.New("lookup failed")
	ErrInvalidSong       = errors.New("invalid song")
	ErrConfigUnavailable = errors.New("config unavailable")
	ErrCommandFailed     = errors.New("command failed")

	// errRetryable marks failures where re-issuing the same command is safe.
	errRetryable = errors.New("retryable")
)

// Kind is the transport-level name of a taxonomy entry.
type Kind string

const (
	KindLookupFailed      Kind = "lookup_failed"
	KindInvalidSong       Kind = "invalid_song"
	KindConfigUnavailable Kind = "config_unavailable"
	KindCommandFailed     Kind = "command_failed"
)

// LookupFailed marks err as a lookup miss.
func LookupFailed(err error) error {
	return errors.Mark(err, ErrLookupFailed)
}

// InvalidSong marks err as a rejected song.
func InvalidSong(err error) error {
	return errors.Mark(err, ErrInvalidSong)
}

// ConfigUnavailable marks err as a settings load/save failure.
func ConfigUnavailable(err error) error {
	return errors.Mark(err, ErrConfigUnavailable)
}

// CommandFailed marks err as a generic boundary failure.
func CommandFailed(err error) error {
	return errors.Mark(err, ErrCommandFailed)
}

// Retryable marks err as safe to retry.
func Retryable(err error) error {
	return errors.Mark(err, errRetryable)
}

// IsRetryable reports whether err was marked retryable or is a deadline.
func IsRetryable(err error) bool {
	return errors.Is(err, errRetryable) || errors.Is(err, context.DeadlineExceeded)
}

// KindOf classifies err. Unclassified errors are reported as command failures.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrLookupFailed):
		return KindLookupFailed
	case errors.Is(err, ErrInvalidSong):
		return KindInvalidSong
	case errors.Is(err, ErrConfigUnavailable):
		return KindConfigUnavailable
	default:
		return KindCommandFailed
	}
}

// FromKind rebuilds a marked error from a transport kind and message.
func FromKind(kind Kind, msg string) error {
	err := errors.New(msg)
	switch kind {
	case KindLookupFailed:
		return LookupFailed(err)
	case KindInvalidSong:
		return InvalidSong(err)
	case KindConfigUnavailable:
		return ConfigUnavailable(err)
	default:
		return CommandFailed(err)
	}
}
