package lyrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/song"
	"github.com/osa030/versebox/internal/infra/config"
)

type stubProvider struct {
	song  song.Song
	err   error
	calls int
}

func (s *stubProvider) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	s.calls++
	return s.song, s.err
}

func (s *stubProvider) Name() string { return "stub" }

const songBook = `
songs:
  - title: Amazing Grace
    author: John Newton
    verses:
      - ["Amazing grace, how sweet the sound", "That saved a wretch like me"]
      - ["I once was lost, but now am found"]
      - []
  - title: Silent Night
    author: Joseph Mohr
    verses: []
`

func TestProviderChain_FirstHitWins(t *testing.T) {
	miss := &stubProvider{err: errors.New("not found")}
	hit := &stubProvider{song: song.New("T", "A", []song.Verse{{Lines: []string{"x"}}})}
	unused := &stubProvider{}

	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: miss, DisplayName: "miss"},
		{Provider: hit, DisplayName: "hit"},
		{Provider: unused, DisplayName: "unused"},
	}, 0)

	s, err := chain.Lookup(context.Background(), "A", "T")
	require.NoError(t, err)
	assert.Equal(t, "T", s.Title)
	assert.Equal(t, 1, miss.calls)
	assert.Equal(t, 1, hit.calls)
	assert.Equal(t, 0, unused.calls)
}

func TestProviderChain_AllMissIsLookupFailed(t *testing.T) {
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: &stubProvider{err: errors.New("not found")}, DisplayName: "one"},
		{Provider: &stubProvider{err: errors.New("timeout")}, DisplayName: "two"},
	}, 0)

	_, err := chain.Lookup(context.Background(), "A", "T")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrLookupFailed))
	assert.Contains(t, err.Error(), "timeout")
}

func TestProviderChain_VerselessMatch(t *testing.T) {
	t.Run("returned when nothing better matches", func(t *testing.T) {
		chain := NewProviderChain([]ProviderWithMetadata{
			{Provider: &stubProvider{err: errors.New("not found")}, DisplayName: "one"},
			{Provider: &stubProvider{song: song.New("T", "A", nil)}, DisplayName: "no verses"},
		}, 0)

		s, err := chain.Lookup(context.Background(), "A", "T")
		require.NoError(t, err)
		assert.Equal(t, "T", s.Title)
		assert.Empty(t, s.Verses)
		assert.True(t, errors.Is(s.Validate(), apperr.ErrInvalidSong))
	})

	t.Run("later provider with verses wins", func(t *testing.T) {
		full := &stubProvider{song: song.New("T", "A", []song.Verse{{Lines: []string{"x"}}})}
		chain := NewProviderChain([]ProviderWithMetadata{
			{Provider: &stubProvider{song: song.New("T", "A", nil)}, DisplayName: "no verses"},
			{Provider: full, DisplayName: "full"},
		}, 0)

		s, err := chain.Lookup(context.Background(), "A", "T")
		require.NoError(t, err)
		assert.Len(t, s.Verses, 1)
		assert.Equal(t, 1, full.calls)
	})
}

func TestProviderChain_EmptyQuery(t *testing.T) {
	chain := NewProviderChain(nil, 0)
	_, err := chain.Lookup(context.Background(), "", "")
	assert.True(t, errors.Is(err, apperr.ErrLookupFailed))
}

func TestLibraryProvider_Lookup(t *testing.T) {
	p, err := NewLibraryProviderFromYAML([]byte(songBook))
	require.NoError(t, err)

	s, err := p.Lookup(context.Background(), "john newton", "amazing grace")
	require.NoError(t, err)
	assert.Len(t, s.Verses, 2, "empty verses are dropped")
	assert.Equal(t, "That saved a wretch like me", s.Verses[0].Lines[1])

	_, err = p.Lookup(context.Background(), "Nobody", "Nothing")
	assert.Error(t, err)
}

func TestNewProviderChainFromConfig(t *testing.T) {
	dir := t.TempDir()
	bookPath := filepath.Join(dir, "songs.yaml")
	require.NoError(t, os.WriteFile(bookPath, []byte(songBook), 0o644))

	cfg := &config.Config{
		Lyrics: config.LyricsConfig{
			TimeoutSec: 5,
			Providers: []config.ProviderConfig{
				{Type: "genius", DisplayName: "Genius", Settings: map[string]any{"timeout_sec": 3}},
				{Type: "library", DisplayName: "Song book", Settings: map[string]any{"path": bookPath}},
			},
		},
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})

	chain, err := NewProviderChainFromConfig(cfg, tokens)
	require.NoError(t, err)
	require.Len(t, chain.providers, 2)
	assert.Equal(t, "genius", chain.providers[0].Provider.Name())
	assert.Equal(t, "library", chain.providers[1].Provider.Name())

	t.Run("library without path", func(t *testing.T) {
		bad := &config.Config{Lyrics: config.LyricsConfig{Providers: []config.ProviderConfig{
			{Type: "library", DisplayName: "Song book"},
		}}}
		_, err := NewProviderChainFromConfig(bad, tokens)
		assert.Error(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		bad := &config.Config{Lyrics: config.LyricsConfig{Providers: []config.ProviderConfig{
			{Type: "azlyrics", DisplayName: "AZ"},
		}}}
		_, err := NewProviderChainFromConfig(bad, tokens)
		assert.Error(t, err)
	})
}

func TestNewGeniusProvider_InvalidSettings(t *testing.T) {
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})
	_, err := NewGeniusProvider(tokens, map[string]any{"base_url": "not a url"})
	assert.Error(t, err)
}
