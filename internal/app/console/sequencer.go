// Package console holds the operator-side stores. Each store mirrors backend
// truth through the command boundary and serialises its own commands.
package console

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/apperr"
)

// DefaultTimeout bounds one command round trip.
const DefaultTimeout = 10 * time.Second

// ErrBusy is returned by TryDo while another command of the store is in flight.
var ErrBusy = apperr.Retryable(apperr.CommandFailed(errors.New("another command is in flight")))

// Invoker sends one command over the boundary and decodes its response into res.
type Invoker interface {
	Invoke(ctx context.Context, name command.Name, req command.Record, res command.Record) error
}

// Sequencer lets one command of a store be in flight at a time. Waiting callers
// are admitted in arrival order, and every admitted command gets a sequence
// number higher than all earlier ones.
type Sequencer struct {
	slot    chan struct{}
	seq     atomic.Uint64
	timeout time.Duration
}

// NewSequencer creates a sequencer. A non-positive timeout selects DefaultTimeout.
func NewSequencer(timeout time.Duration) *Sequencer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sequencer{
		slot:    make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Do waits for the slot and runs fn. Cancelling ctx abandons the wait but
// never a command that already started.
func (s *Sequencer) Do(ctx context.Context, fn func(ctx context.Context, seq uint64) error) error {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return apperr.CommandFailed(errors.Wrap(ctx.Err(), "gave up waiting for the previous command"))
	}
	defer func() { <-s.slot }()
	return s.run(ctx, fn)
}

// TryDo runs fn only if no other command is in flight; otherwise it returns ErrBusy.
// It suits direct user input, which should be dropped rather than queued.
func (s *Sequencer) TryDo(ctx context.Context, fn func(ctx context.Context, seq uint64) error) error {
	select {
	case s.slot <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-s.slot }()
	return s.run(ctx, fn)
}

func (s *Sequencer) run(ctx context.Context, fn func(ctx context.Context, seq uint64) error) error {
	seq := s.seq.Add(1)

	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	err := fn(cctx, seq)
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && !apperr.IsRetryable(err) {
		err = apperr.Retryable(apperr.CommandFailed(errors.Wrapf(err, "command timed out after %s", s.timeout)))
	}
	return err
}
