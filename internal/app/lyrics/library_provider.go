package lyrics

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/osa030/versebox/internal/domain/song"
)

// LibraryProviderConfig holds the settings of a library provider entry.
type LibraryProviderConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// libraryFile is the song book format:
//
//	songs:
//	  - title: Amazing Grace
//	    author: John Newton
//	    verses:
//	      - ["Amazing grace, how sweet the sound", "That saved a wretch like me"]
type libraryFile struct {
	Songs []struct {
		Title  string     `yaml:"title"`
		Author string     `yaml:"author"`
		Verses [][]string `yaml:"verses"`
	} `yaml:"songs"`
}

// LibraryProvider serves songs from a local YAML song book.
type LibraryProvider struct {
	songs []song.Song
}

// NewLibraryProvider creates a new LibraryProvider and loads the song book.
func NewLibraryProvider(settings map[string]any) (*LibraryProvider, error) {
	var config LibraryProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	data, err := os.ReadFile(config.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read song book")
	}
	return NewLibraryProviderFromYAML(data)
}

// NewLibraryProviderFromYAML parses a song book.
func NewLibraryProviderFromYAML(data []byte) (*LibraryProvider, error) {
	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse song book")
	}

	songs := make([]song.Song, 0, len(file.Songs))
	for _, s := range file.Songs {
		verses := make([]song.Verse, 0, len(s.Verses))
		for _, lines := range s.Verses {
			if len(lines) == 0 {
				continue
			}
			verses = append(verses, song.Verse{Lines: lines})
		}
		songs = append(songs, song.New(s.Title, s.Author, verses))
	}
	return &LibraryProvider{songs: songs}, nil
}

// Lookup returns the first song whose author and title match case-insensitively.
func (p *LibraryProvider) Lookup(ctx context.Context, author, title string) (song.Song, error) {
	for _, s := range p.songs {
		if s.Matches(author, title) {
			return s, nil
		}
	}
	return song.Song{}, errors.Newf("%q - %q not in song book", author, title)
}

// Name returns the provider name.
func (p *LibraryProvider) Name() string {
	return "library"
}

// Songs returns the songs of the book in file order.
func (p *LibraryProvider) Songs() []song.Song {
	out := make([]song.Song, len(p.songs))
	copy(out, p.songs)
	return out
}
