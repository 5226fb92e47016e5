package console

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/app/program"
	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/song"
	"github.com/osa030/versebox/internal/infra/storage"
)

type invocation struct {
	name command.Name
	req  command.Record
}

// scriptedInvoker answers each command with a scripted handler. Responses go
// through JSON like they would on the wire.
type scriptedInvoker struct {
	mu       sync.Mutex
	calls    []invocation
	handlers map[command.Name]func(req command.Record) (any, error)
}

func newScriptedInvoker() *scriptedInvoker {
	return &scriptedInvoker{handlers: map[command.Name]func(command.Record) (any, error){}}
}

func (s *scriptedInvoker) on(name command.Name, fn func(req command.Record) (any, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = fn
}

func (s *scriptedInvoker) Invoke(ctx context.Context, name command.Name, req command.Record, res command.Record) error {
	s.mu.Lock()
	s.calls = append(s.calls, invocation{name: name, req: req})
	h := s.handlers[name]
	s.mu.Unlock()

	if h == nil {
		return apperr.CommandFailed(errors.Newf("unscripted command %s", name))
	}
	out, err := h(req)
	if err != nil {
		return err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, res)
}

func (s *scriptedInvoker) names() []command.Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]command.Name, len(s.calls))
	for i, c := range s.calls {
		out[i] = c.name
	}
	return out
}

// programInvoker dispatches commands straight to a backend program.
type programInvoker struct {
	p *program.Program
}

func (i programInvoker) Invoke(ctx context.Context, name command.Name, req command.Record, res command.Record) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var out any
	var err error
	switch name {
	case command.GetDisplaySelection:
		out = command.DisplaySelection{Pair: i.p.DisplaySelection()}
	case command.NextVerse:
		out = command.DisplaySelection{Pair: i.p.NextVerse()}
	case command.PreviousVerse:
		out = command.DisplaySelection{Pair: i.p.PreviousVerse()}
	case command.GetSongList:
		out = command.SongList{List: i.p.Songs()}
	case command.UpdateSongList:
		out, err = command.Ack{}, i.p.UpdateSongList(req.(command.UpdateSongListRequest).NewSongList)
	case command.AddSong:
		var list song.List
		list, err = i.p.AddSong(req.(command.AddSongRequest).Song())
		out = command.SongList{List: list}
	case command.AddSearchedSong:
		r := req.(command.AddSearchedSongRequest)
		var list song.List
		list, err = i.p.AddSearchedSong(ctx, r.Author, r.Title)
		out = command.SongList{List: list}
	default:
		return apperr.CommandFailed(errors.Newf("unsupported command %s", name))
	}
	if err != nil {
		return err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, res); err != nil {
		return err
	}
	return res.Validate()
}

type mapLookup map[string]song.Song

func (m mapLookup) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	s, ok := m[author+"/"+title]
	if !ok {
		return song.Song{}, apperr.LookupFailed(errors.Newf("no match for %s - %s", author, title))
	}
	return s, nil
}

func newBackend(t *testing.T, lookup program.Lookup) *program.Program {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "versebox.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := program.New(store, lookup, nil, storage.Settings{FontSize: "32px"})
	require.NoError(t, err)
	return p
}

func songWithVerses(title string, n int) song.Song {
	verses := make([]song.Verse, n)
	for i := range verses {
		verses[i] = song.Verse{Lines: []string{title + " line"}}
	}
	return song.New(title, "Author", verses)
}
