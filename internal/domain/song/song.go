// Package song provides the Song domain entity and the ordered song queue.
package song

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/apperr"
)

// Verse is one block of lyrics shown on a display at a time.
type Verse struct {
	Lines []string `json:"lines"`
}

// IsEmpty reports whether the verse has no lines.
func (v Verse) IsEmpty() bool {
	return len(v.Lines) == 0
}

// Song is a title/author and its ordered verses. Treat as immutable once loaded.
type Song struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Verses []Verse `json:"verses"`
}

// New creates a song.
func New(title, author string, verses []Verse) Song {
	return Song{Title: title, Author: author, Verses: verses}
}

// Validate rejects songs that cannot be presented.
func (s Song) Validate() error {
	if len(s.Verses) == 0 {
		return apperr.InvalidSong(errors.Newf("song %q by %q has no verses", s.Title, s.Author))
	}
	return nil
}

// LastVerse returns the index of the final verse, or 0 for an empty song.
func (s Song) LastVerse() int {
	if len(s.Verses) == 0 {
		return 0
	}
	return len(s.Verses) - 1
}

// Matches reports whether author and title match case-insensitively.
func (s Song) Matches(author, title string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Author), strings.TrimSpace(author)) &&
		strings.EqualFold(strings.TrimSpace(s.Title), strings.TrimSpace(title))
}

// Entry is a queued song with its stable id.
type Entry struct {
	ID   uint64
	Song Song
}

// slotEmpty is the unit variant of the queue slot on the wire.
const slotEmpty = "Empty"

type entryWire struct {
	ID   uint64          `json:"id"`
	Slot json.RawMessage `json:"slot"`
}

type songSlotWire struct {
	Song *Song `json:"Song"`
}

// MarshalJSON encodes the entry as {"id":..,"slot":{"Song":{...}}}.
func (e Entry) MarshalJSON() ([]byte, error) {
	slot, err := json.Marshal(songSlotWire{Song: &e.Song})
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryWire{ID: e.ID, Slot: slot})
}

// UnmarshalJSON accepts both the "Song" variant and the "Empty" unit variant.
// An "Empty" slot decodes to a song without verses.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.ID = w.ID
	e.Song = Song{}

	var unit string
	if err := json.Unmarshal(w.Slot, &unit); err == nil {
		if unit != slotEmpty {
			return errors.Newf("unknown slot variant %q", unit)
		}
		return nil
	}

	var s songSlotWire
	if err := json.Unmarshal(w.Slot, &s); err != nil {
		return errors.Wrap(err, "failed to decode song slot")
	}
	if s.Song == nil {
		return errors.New("song slot without song")
	}
	e.Song = *s.Song
	return nil
}
