// Package display provides the display slot and the verse navigation rule
// that keeps the current and next displays in lockstep with the song queue.
package display

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/domain/song"
)

// Placeholder song identity.
const (
	PlaceholderTitle  = "Empty Panel"
	PlaceholderAuthor = "None"
)

// Slot is what one physical display renders: a queue entry and a verse index.
type Slot struct {
	SlotID       uint64    `json:"slot_id"`
	SlotPosition int       `json:"slot_position"`
	VerseNum     int       `json:"verse_num"`
	Song         song.Song `json:"song"`
}

// Placeholder returns the "nothing queued" slot.
func Placeholder() Slot {
	return Slot{
		Song: song.Song{
			Title:  PlaceholderTitle,
			Author: PlaceholderAuthor,
			Verses: []song.Verse{},
		},
	}
}

// IsPlaceholder reports whether the slot shows nothing.
// Entry ids start at 1, so id 0 never refers to a queued song.
func (s Slot) IsPlaceholder() bool {
	return s.SlotID == 0
}

// CurrentVerse returns the verse to render. The placeholder renders an empty verse.
func (s Slot) CurrentVerse() song.Verse {
	if s.IsPlaceholder() || s.VerseNum >= len(s.Song.Verses) {
		return song.Verse{Lines: []string{}}
	}
	return s.Song.Verses[s.VerseNum]
}

// Validate checks the verse index invariant.
func (s Slot) Validate() error {
	if s.IsPlaceholder() {
		if s.VerseNum != 0 {
			return errors.Newf("placeholder slot has verse_num %d", s.VerseNum)
		}
		return nil
	}
	if s.SlotPosition < 0 {
		return errors.Newf("slot %d has negative position", s.SlotID)
	}
	if s.VerseNum < 0 || s.VerseNum >= len(s.Song.Verses) {
		return errors.Newf("slot %d verse_num %d out of range for %d verses", s.SlotID, s.VerseNum, len(s.Song.Verses))
	}
	return nil
}

// Equal compares slot identity and verse.
func (s Slot) Equal(o Slot) bool {
	return s.SlotID == o.SlotID && s.SlotPosition == o.SlotPosition && s.VerseNum == o.VerseNum
}

// At builds the slot for the queue entry at pos showing verse.
func At(list song.List, pos, verse int) (Slot, error) {
	if pos < 0 || pos >= list.Len() {
		return Slot{}, errors.Newf("position %d out of range for %d songs", pos, list.Len())
	}
	e := list.Songs[pos]
	if verse < 0 || verse >= len(e.Song.Verses) {
		return Slot{}, errors.Newf("verse %d out of range, song %d has %d verses", verse, e.ID, len(e.Song.Verses))
	}
	return Slot{
		SlotID:       e.ID,
		SlotPosition: pos,
		VerseNum:     verse,
		Song:         e.Song,
	}, nil
}

// Pair is the full navigation state: what the current and the next display show.
// On the wire it is the two-element array [current, next].
type Pair struct {
	Current Slot
	Next    Slot
}

// Empty returns the terminal state with both displays on the placeholder.
func Empty() Pair {
	return Pair{Current: Placeholder(), Next: Placeholder()}
}

// IsEmpty reports whether both displays show the placeholder.
func (p Pair) IsEmpty() bool {
	return p.Current.IsPlaceholder() && p.Next.IsPlaceholder()
}

// Shows reports whether either display refers to the queue entry id.
func (p Pair) Shows(id uint64) bool {
	return (!p.Current.IsPlaceholder() && p.Current.SlotID == id) ||
		(!p.Next.IsPlaceholder() && p.Next.SlotID == id)
}

// Equal compares both slots.
func (p Pair) Equal(o Pair) bool {
	return p.Current.Equal(o.Current) && p.Next.Equal(o.Next)
}

// Validate checks both slots.
func (p Pair) Validate() error {
	if err := p.Current.Validate(); err != nil {
		return errors.Wrap(err, "current display")
	}
	if err := p.Next.Validate(); err != nil {
		return errors.Wrap(err, "next display")
	}
	return nil
}

// MarshalJSON encodes the pair as [current, next].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]Slot{p.Current, p.Next})
}

// UnmarshalJSON requires exactly two slots.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var slots []Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return err
	}
	if len(slots) != 2 {
		return errors.Newf("display selection has %d slots, want 2", len(slots))
	}
	p.Current, p.Next = slots[0], slots[1]
	return nil
}
