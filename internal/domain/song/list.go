package song

import (
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/osa030/versebox/internal/apperr"
)

// List is the ordered song queue. Order is presentation order.
type List struct {
	Songs []Entry `json:"songs"`
}

// MarshalJSON encodes an empty queue as an empty array, never null.
func (l List) MarshalJSON() ([]byte, error) {
	type plain List
	if l.Songs == nil {
		l.Songs = []Entry{}
	}
	return json.Marshal(plain(l))
}

// Len returns the number of queued songs.
func (l List) Len() int {
	return len(l.Songs)
}

// IsEmpty reports whether the queue is empty.
func (l List) IsEmpty() bool {
	return len(l.Songs) == 0
}

// Position returns the index of the entry with the given id.
func (l List) Position(id uint64) (int, bool) {
	for i, e := range l.Songs {
		if e.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Contains reports whether an entry with the given id is queued.
func (l List) Contains(id uint64) bool {
	_, ok := l.Position(id)
	return ok
}

// IDs returns the entry ids in order.
func (l List) IDs() []uint64 {
	ids := make([]uint64, len(l.Songs))
	for i, e := range l.Songs {
		ids[i] = e.ID
	}
	return ids
}

// Clone returns a copy whose backing array is not shared.
func (l List) Clone() List {
	songs := make([]Entry, len(l.Songs))
	copy(songs, l.Songs)
	return List{Songs: songs}
}

// Append returns a new list with e at the end.
func (l List) Append(e Entry) List {
	out := l.Clone()
	out.Songs = append(out.Songs, e)
	return out
}

// RemoveByID returns a new list without the entry. The bool is false if id was absent.
func (l List) RemoveByID(id uint64) (List, bool) {
	pos, ok := l.Position(id)
	if !ok {
		return l, false
	}
	out := List{Songs: make([]Entry, 0, len(l.Songs)-1)}
	out.Songs = append(out.Songs, l.Songs[:pos]...)
	out.Songs = append(out.Songs, l.Songs[pos+1:]...)
	return out, true
}

// RemoveFirst returns a new list without its head. The bool is false for an empty list.
func (l List) RemoveFirst() (List, Entry, bool) {
	if l.IsEmpty() {
		return l, Entry{}, false
	}
	head := l.Songs[0]
	out := List{Songs: make([]Entry, len(l.Songs)-1)}
	copy(out.Songs, l.Songs[1:])
	return out, head, true
}

// Move returns a new list with the entry at from relocated to index to.
func (l List) Move(from, to int) (List, error) {
	if from < 0 || from >= len(l.Songs) || to < 0 || to >= len(l.Songs) {
		return l, errors.Newf("move %d -> %d out of range for %d songs", from, to, len(l.Songs))
	}
	out := l.Clone()
	e := out.Songs[from]
	out.Songs = append(out.Songs[:from], out.Songs[from+1:]...)
	out.Songs = append(out.Songs[:to], append([]Entry{e}, out.Songs[to:]...)...)
	return out, nil
}

// Validate checks id uniqueness and that every song is presentable.
func (l List) Validate() error {
	seen := make(map[uint64]bool, len(l.Songs))
	for i, e := range l.Songs {
		if e.ID == 0 {
			return apperr.InvalidSong(errors.Newf("song at position %d has reserved id 0", i))
		}
		if seen[e.ID] {
			return apperr.InvalidSong(errors.Newf("duplicate song id %d", e.ID))
		}
		seen[e.ID] = true
		if err := e.Song.Validate(); err != nil {
			return errors.Wrapf(err, "song id %d", e.ID)
		}
	}
	return nil
}

// MaxID returns the largest entry id, or 0 for an empty list.
func (l List) MaxID() uint64 {
	var top uint64
	for _, e := range l.Songs {
		if e.ID > top {
			top = e.ID
		}
	}
	return top
}
