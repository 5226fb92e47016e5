package console

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/display"
)

func TestPresentation_Scenario(t *testing.T) {
	backend := newBackend(t, mapLookup{})
	_, err := backend.AddSong(songWithVerses("A", 2))
	require.NoError(t, err)
	_, err = backend.AddSong(songWithVerses("B", 1))
	require.NoError(t, err)

	p := NewPresentation(programInvoker{backend}, time.Second)
	ctx := context.Background()
	assert.True(t, p.Pair().IsEmpty(), "nothing is shown before load")

	require.NoError(t, p.Load(ctx))
	assert.Equal(t, "A", p.Current().Song.Title)
	assert.Equal(t, 0, p.Current().VerseNum)

	require.NoError(t, p.NextVerse(ctx))
	assert.Equal(t, "A", p.Current().Song.Title)
	assert.Equal(t, 1, p.Current().VerseNum)
	assert.Equal(t, "B", p.Next().Song.Title)

	require.NoError(t, p.NextVerse(ctx))
	assert.Equal(t, "B", p.Current().Song.Title)
	assert.True(t, p.Next().IsPlaceholder())

	for i := 0; i < 3; i++ {
		require.NoError(t, p.NextVerse(ctx))
		assert.True(t, p.Pair().IsEmpty())
	}
}

func TestPresentation_NextThenPreviousRestores(t *testing.T) {
	backend := newBackend(t, mapLookup{})
	_, err := backend.AddSong(songWithVerses("A", 3))
	require.NoError(t, err)
	_, err = backend.AddSong(songWithVerses("B", 2))
	require.NoError(t, err)

	p := NewPresentation(programInvoker{backend}, time.Second)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	for step := 0; step < 3; step++ {
		before := p.Pair()
		require.NoError(t, p.NextVerse(ctx))
		assert.True(t, display.Consistent(p.Pair(), backend.Songs()))
		require.NoError(t, p.PreviousVerse(ctx))
		assert.True(t, before.Equal(p.Pair()), "step %d", step)
		require.NoError(t, p.NextVerse(ctx))
	}
}

func TestPresentation_PreviousAtHeadStays(t *testing.T) {
	backend := newBackend(t, mapLookup{})
	_, err := backend.AddSong(songWithVerses("A", 2))
	require.NoError(t, err)

	p := NewPresentation(programInvoker{backend}, time.Second)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	for i := 0; i < 3; i++ {
		require.NoError(t, p.PreviousVerse(ctx))
		assert.Equal(t, uint64(1), p.Current().SlotID)
		assert.Equal(t, 0, p.Current().VerseNum)
	}
}

func TestPresentation_FailureLeavesStateUnchanged(t *testing.T) {
	backend := newBackend(t, mapLookup{})
	_, err := backend.AddSong(songWithVerses("A", 2))
	require.NoError(t, err)

	inv := newScriptedInvoker()
	inv.on(command.GetDisplaySelection, func(command.Record) (any, error) {
		return command.DisplaySelection{Pair: backend.DisplaySelection()}, nil
	})
	inv.on(command.NextVerse, func(command.Record) (any, error) {
		return nil, apperr.Retryable(apperr.CommandFailed(errors.New("backend unreachable")))
	})

	p := NewPresentation(inv, time.Second)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))
	before := p.Pair()

	err = p.NextVerse(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrCommandFailed))
	assert.True(t, apperr.IsRetryable(err))
	assert.True(t, before.Equal(p.Pair()))
}

func TestPresentation_TryNextVerseWhileBusy(t *testing.T) {
	inv := newScriptedInvoker()
	release := make(chan struct{})
	started := make(chan struct{})
	inv.on(command.NextVerse, func(command.Record) (any, error) {
		close(started)
		<-release
		return command.DisplaySelection{Pair: display.Empty()}, nil
	})

	p := NewPresentation(inv, time.Second)
	done := make(chan error, 1)
	go func() { done <- p.NextVerse(context.Background()) }()
	<-started

	err := p.TryNextVerse(context.Background())
	assert.True(t, errors.Is(err, ErrBusy))
	err = p.TryPreviousVerse(context.Background())
	assert.True(t, errors.Is(err, ErrBusy))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []command.Name{command.NextVerse}, inv.names())
}
