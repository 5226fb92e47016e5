package display

import (
	"github.com/osa030/versebox/internal/domain/song"
)

// Advance applies the advance rule once: next verse of the same song, else the
// following queued song at verse 0, else the placeholder. The placeholder advances
// to itself.
func Advance(s Slot, list song.List) Slot {
	if s.IsPlaceholder() {
		return Placeholder()
	}
	if s.VerseNum+1 < len(s.Song.Verses) {
		s.VerseNum++
		return s
	}

	next := s.SlotPosition
	if pos, ok := list.Position(s.SlotID); ok {
		next = pos + 1
	}
	// A missing id means the song was removed; whatever slid into its
	// position is the next song.
	if next < list.Len() {
		slot, err := At(list, next, 0)
		if err == nil {
			return slot
		}
	}
	return Placeholder()
}

// Retreat is the inverse of Advance: previous verse of the same song, else the
// preceding queued song at its last verse. At the head of the queue on verse 0
// the slot is returned unchanged. The placeholder retreats to the last verse of
// the last queued song.
func Retreat(s Slot, list song.List) Slot {
	if s.IsPlaceholder() {
		if list.IsEmpty() {
			return Placeholder()
		}
		last := list.Len() - 1
		slot, err := At(list, last, list.Songs[last].Song.LastVerse())
		if err != nil {
			return Placeholder()
		}
		return slot
	}
	if s.VerseNum > 0 {
		s.VerseNum--
		return s
	}

	pos, ok := list.Position(s.SlotID)
	if !ok {
		return Head(list)
	}
	if pos == 0 {
		s.SlotPosition = 0
		return s
	}
	prev := list.Songs[pos-1]
	slot, err := At(list, pos-1, prev.Song.LastVerse())
	if err != nil {
		return s
	}
	return slot
}

// Head returns the first verse of the first queued song, or the placeholder.
func Head(list song.List) Slot {
	slot, err := At(list, 0, 0)
	if err != nil {
		return Placeholder()
	}
	return slot
}

// From builds the pair whose next slot is derived from current.
func From(current Slot, list song.List) Pair {
	return Pair{Current: current, Next: Advance(current, list)}
}

// Derive builds the pair from the head of the queue.
func Derive(list song.List) Pair {
	return From(Head(list), list)
}

// NextVerse advances the pair by one step.
func NextVerse(p Pair, list song.List) Pair {
	return From(Advance(p.Current, list), list)
}

// PreviousVerse retreats the pair by one step.
func PreviousVerse(p Pair, list song.List) Pair {
	return From(Retreat(p.Current, list), list)
}

// Rebase re-anchors the pair after the queue changed from old to list.
// If either displayed song is gone, or the queue was empty while nothing was shown,
// the pair is derived from the head. Otherwise the current slot is relocated by id
// and the next slot recomputed.
func Rebase(p Pair, old, list song.List) Pair {
	if p.Current.IsPlaceholder() {
		if old.IsEmpty() {
			return Derive(list)
		}
		return Empty()
	}
	if !list.Contains(p.Current.SlotID) {
		return Derive(list)
	}
	if !p.Next.IsPlaceholder() && !list.Contains(p.Next.SlotID) {
		return Derive(list)
	}

	pos, _ := list.Position(p.Current.SlotID)
	current := p.Current
	current.SlotPosition = pos
	current.Song = list.Songs[pos].Song
	if current.VerseNum >= len(current.Song.Verses) {
		current.VerseNum = current.Song.LastVerse()
	}
	return From(current, list)
}

// Consistent reports whether next is exactly one advance step ahead of current.
func Consistent(p Pair, list song.List) bool {
	return Advance(p.Current, list).Equal(p.Next)
}
