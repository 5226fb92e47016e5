package console

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/domain/song"
)

// Queue mirrors the backend song queue. Removals and reorders send the full
// edited list with update_song_list, and the mirror becomes exactly the list
// that was sent. After any successful edit the presentation is reloaded, since
// the backend re-anchors the display pair on queue changes.
type Queue struct {
	invoker      Invoker
	seq          *Sequencer
	songs        *Record[song.List]
	presentation *Presentation
	loaded       atomic.Bool
}

// NewQueue creates an empty queue mirror. presentation may be nil. The first
// edit loads the backend queue if Load has not been called.
func NewQueue(invoker Invoker, presentation *Presentation, timeout time.Duration) *Queue {
	return &Queue{
		invoker:      invoker,
		seq:          NewSequencer(timeout),
		songs:        NewRecord(song.List{}),
		presentation: presentation,
	}
}

// Songs returns the mirrored queue.
func (q *Queue) Songs() song.List {
	return q.songs.Get().Clone()
}

// Load pulls the backend queue.
func (q *Queue) Load(ctx context.Context) error {
	return q.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		var res command.SongList
		if err := q.invoker.Invoke(ctx, command.GetSongList, command.Empty{}, &res); err != nil {
			return errors.Wrap(err, "queue")
		}
		q.songs.Replace(seq, res.List)
		q.loaded.Store(true)
		return nil
	})
}

// AddSong appends a song that already carries its verses.
// A song without verses is rejected before any round trip.
func (q *Queue) AddSong(ctx context.Context, s song.Song) error {
	req := command.AddSongRequest{Title: s.Title, Author: s.Author, Verses: s.Verses}
	if err := req.Validate(); err != nil {
		return err
	}
	return q.add(ctx, command.AddSong, req)
}

// AddSearchedSong asks the backend to look the song up and append it.
func (q *Queue) AddSearchedSong(ctx context.Context, author, title string) error {
	return q.add(ctx, command.AddSearchedSong, command.AddSearchedSongRequest{Author: author, Title: title})
}

func (q *Queue) add(ctx context.Context, name command.Name, req command.Record) error {
	return q.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		var res command.SongList
		if err := q.invoker.Invoke(ctx, name, req, &res); err != nil {
			return errors.Wrap(err, "queue")
		}
		q.songs.Replace(seq, res.List)
		q.loaded.Store(true)
		return q.reloadPresentation(ctx)
	})
}

// RemoveByID removes the song with the given id. An absent id is a no-op.
func (q *Queue) RemoveByID(ctx context.Context, id uint64) error {
	return q.edit(ctx, func(l song.List) (song.List, bool, error) {
		out, ok := l.RemoveByID(id)
		return out, ok, nil
	})
}

// RemoveFirst removes the head of the queue. An empty queue is a no-op.
func (q *Queue) RemoveFirst(ctx context.Context) error {
	return q.edit(ctx, func(l song.List) (song.List, bool, error) {
		out, _, ok := l.RemoveFirst()
		return out, ok, nil
	})
}

// Move relocates the song at index from to index to.
func (q *Queue) Move(ctx context.Context, from, to int) error {
	return q.edit(ctx, func(l song.List) (song.List, bool, error) {
		if from == to && from >= 0 && from < l.Len() {
			return l, false, nil
		}
		out, err := l.Move(from, to)
		return out, err == nil, err
	})
}

// edit applies fn to the mirror and, when it changed something, replaces the
// backend list with the result.
func (q *Queue) edit(ctx context.Context, fn func(song.List) (song.List, bool, error)) error {
	return q.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		if !q.loaded.Load() {
			var res command.SongList
			if err := q.invoker.Invoke(ctx, command.GetSongList, command.Empty{}, &res); err != nil {
				return errors.Wrap(err, "queue")
			}
			q.songs.Replace(seq, res.List)
			q.loaded.Store(true)
		}

		next, changed, err := fn(q.songs.Get().Clone())
		if err != nil {
			return errors.Wrap(err, "queue")
		}
		if !changed {
			return nil
		}

		req := command.UpdateSongListRequest{NewSongList: next}
		if err := q.invoker.Invoke(ctx, command.UpdateSongList, req, &command.Ack{}); err != nil {
			return errors.Wrap(err, "queue")
		}
		q.songs.Replace(seq, next)
		return q.reloadPresentation(ctx)
	})
}

func (q *Queue) reloadPresentation(ctx context.Context) error {
	if q.presentation == nil {
		return nil
	}
	if err := q.presentation.Load(ctx); err != nil {
		zlog.Warn().Msgf("queue changed but display reload failed: %v", err)
		return errors.Wrap(err, "reload display after queue change")
	}
	return nil
}
