package console

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/domain/display"
)

// Presentation mirrors the backend's (current, next) display pair.
// Every change comes from a backend response; nothing is computed locally.
type Presentation struct {
	invoker Invoker
	seq     *Sequencer
	pair    *Record[display.Pair]
}

// NewPresentation creates a presentation store showing the placeholder pair.
func NewPresentation(invoker Invoker, timeout time.Duration) *Presentation {
	return &Presentation{
		invoker: invoker,
		seq:     NewSequencer(timeout),
		pair:    NewRecord(display.Empty()),
	}
}

// Pair returns the mirrored pair.
func (p *Presentation) Pair() display.Pair {
	return p.pair.Get()
}

// Current returns the slot on the live display.
func (p *Presentation) Current() display.Slot {
	return p.pair.Get().Current
}

// Next returns the slot on the preview display.
func (p *Presentation) Next() display.Slot {
	return p.pair.Get().Next
}

// Load pulls the authoritative pair.
func (p *Presentation) Load(ctx context.Context) error {
	return p.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		return p.apply(ctx, seq, command.GetDisplaySelection)
	})
}

// NextVerse advances both displays, waiting for earlier commands.
func (p *Presentation) NextVerse(ctx context.Context) error {
	return p.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		return p.apply(ctx, seq, command.NextVerse)
	})
}

// PreviousVerse retreats both displays, waiting for earlier commands.
func (p *Presentation) PreviousVerse(ctx context.Context) error {
	return p.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		return p.apply(ctx, seq, command.PreviousVerse)
	})
}

// TryNextVerse advances unless another command is in flight, in which case it
// returns ErrBusy.
func (p *Presentation) TryNextVerse(ctx context.Context) error {
	return p.seq.TryDo(ctx, func(ctx context.Context, seq uint64) error {
		return p.apply(ctx, seq, command.NextVerse)
	})
}

// TryPreviousVerse retreats unless another command is in flight, in which case
// it returns ErrBusy.
func (p *Presentation) TryPreviousVerse(ctx context.Context) error {
	return p.seq.TryDo(ctx, func(ctx context.Context, seq uint64) error {
		return p.apply(ctx, seq, command.PreviousVerse)
	})
}

// apply issues a pair-returning command. A failed command leaves the pair untouched.
func (p *Presentation) apply(ctx context.Context, seq uint64, name command.Name) error {
	var res command.DisplaySelection
	if err := p.invoker.Invoke(ctx, name, command.Empty{}, &res); err != nil {
		return errors.Wrap(err, "presentation")
	}
	if !p.pair.Replace(seq, res.Pair) {
		zlog.Debug().Msgf("dropped stale display pair: command=%s seq=%d", name, seq)
	}
	return nil
}
