package display

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/versebox/internal/domain/song"
)

func makeSong(title string, verses int) song.Song {
	vs := make([]song.Verse, verses)
	for i := range vs {
		vs[i] = song.Verse{Lines: []string{title}}
	}
	return song.New(title, "author", vs)
}

func queue(counts ...int) song.List {
	l := song.List{}
	for i, c := range counts {
		l.Songs = append(l.Songs, song.Entry{ID: uint64(i + 1), Song: makeSong(string(rune('A'+i)), c)})
	}
	return l
}

func slotAt(t *testing.T, l song.List, pos, verse int) Slot {
	t.Helper()
	s, err := At(l, pos, verse)
	require.NoError(t, err)
	return s
}

func TestNextVerse_Scenario(t *testing.T) {
	// SongA has 2 verses, SongB has 1.
	l := queue(2, 1)
	p := Derive(l)

	assert.True(t, p.Current.Equal(slotAt(t, l, 0, 0)))
	assert.True(t, p.Next.Equal(slotAt(t, l, 0, 1)))

	p = NextVerse(p, l)
	assert.True(t, p.Current.Equal(slotAt(t, l, 0, 1)))
	assert.True(t, p.Next.Equal(slotAt(t, l, 1, 0)))

	p = NextVerse(p, l)
	assert.True(t, p.Current.Equal(slotAt(t, l, 1, 0)))
	assert.True(t, p.Next.IsPlaceholder())

	p = NextVerse(p, l)
	assert.True(t, p.IsEmpty())

	for i := 0; i < 5; i++ {
		p = NextVerse(p, l)
		assert.True(t, p.IsEmpty(), "advancing past the end must stay on the placeholder")
	}
}

func TestPreviousVerse_AtHeadIsNoop(t *testing.T) {
	l := queue(3, 2)
	p := Derive(l)

	for i := 0; i < 4; i++ {
		p = PreviousVerse(p, l)
		assert.Equal(t, uint64(1), p.Current.SlotID)
		assert.Equal(t, 0, p.Current.VerseNum)
		assert.True(t, Consistent(p, l))
	}
}

func TestPreviousVerse_CrossesToLastVerseOfPreviousSong(t *testing.T) {
	l := queue(3, 2)
	p := From(slotAt(t, l, 1, 0), l)

	p = PreviousVerse(p, l)
	assert.Equal(t, uint64(1), p.Current.SlotID)
	assert.Equal(t, 2, p.Current.VerseNum)
	assert.True(t, p.Next.Equal(slotAt(t, l, 1, 0)))
}

func TestPreviousVerse_FromPlaceholder(t *testing.T) {
	l := queue(1, 3)
	p := PreviousVerse(Empty(), l)

	assert.Equal(t, uint64(2), p.Current.SlotID)
	assert.Equal(t, 2, p.Current.VerseNum)
	assert.True(t, p.Next.IsPlaceholder())

	assert.True(t, PreviousVerse(Empty(), song.List{}).IsEmpty())
}

func TestNextThenPrevious_RestoresPair(t *testing.T) {
	l := queue(4, 3, 1)

	// Every state with at least two verses left in the current song.
	for pos, e := range l.Songs {
		for v := 0; v+1 < len(e.Song.Verses); v++ {
			start := From(slotAt(t, l, pos, v), l)
			got := PreviousVerse(NextVerse(start, l), l)
			assert.True(t, got.Equal(start), "pos=%d verse=%d", pos, v)
		}
	}
}

func TestNextIsAlwaysOneStepAhead(t *testing.T) {
	l := queue(2, 3, 1)
	p := Derive(l)

	for i := 0; i < 10; i++ {
		assert.True(t, Consistent(p, l), "step %d", i)
		p = NextVerse(p, l)
	}
	for i := 0; i < 10; i++ {
		assert.True(t, Consistent(p, l), "back step %d", i)
		p = PreviousVerse(p, l)
	}
}

func TestDerive_EmptyQueue(t *testing.T) {
	p := Derive(song.List{})
	assert.True(t, p.IsEmpty())
	assert.NoError(t, p.Validate())
}

func TestAdvance_RemovedSongFallsBackToPosition(t *testing.T) {
	l := queue(1, 1, 1)
	current := slotAt(t, l, 1, 0)
	shrunk, _ := l.RemoveByID(2)

	next := Advance(current, shrunk)
	assert.Equal(t, uint64(3), next.SlotID)
	assert.Equal(t, 1, next.SlotPosition)
}

func TestRebase(t *testing.T) {
	l := queue(2, 2, 2)

	t.Run("current song removed derives from head", func(t *testing.T) {
		p := From(slotAt(t, l, 1, 1), l)
		shrunk, _ := l.RemoveByID(2)

		got := Rebase(p, l, shrunk)
		assert.Equal(t, uint64(1), got.Current.SlotID)
		assert.Equal(t, 0, got.Current.VerseNum)
		assert.False(t, got.Shows(2))
		assert.True(t, Consistent(got, shrunk))
	})

	t.Run("next song removed derives from head", func(t *testing.T) {
		p := From(slotAt(t, l, 1, 1), l)
		shrunk, _ := l.RemoveByID(3)

		got := Rebase(p, l, shrunk)
		assert.Equal(t, uint64(1), got.Current.SlotID)
		assert.Equal(t, 0, got.Current.VerseNum)
		assert.True(t, Consistent(got, shrunk))
	})

	t.Run("unrelated removal keeps current", func(t *testing.T) {
		p := From(slotAt(t, l, 1, 0), l)
		shrunk, _ := l.RemoveByID(1)

		got := Rebase(p, l, shrunk)
		assert.Equal(t, uint64(2), got.Current.SlotID)
		assert.Equal(t, 0, got.Current.SlotPosition)
		assert.Equal(t, 0, got.Current.VerseNum)
		assert.True(t, Consistent(got, shrunk))
	})

	t.Run("reorder recomputes next", func(t *testing.T) {
		p := From(slotAt(t, l, 0, 1), l)
		moved, err := l.Move(2, 1)
		require.NoError(t, err)

		got := Rebase(p, l, moved)
		assert.Equal(t, uint64(1), got.Current.SlotID)
		assert.Equal(t, uint64(3), got.Next.SlotID)
	})

	t.Run("append after exhaustion stays empty", func(t *testing.T) {
		grown := l.Append(song.Entry{ID: 4, Song: makeSong("D", 1)})
		assert.True(t, Rebase(Empty(), l, grown).IsEmpty())
	})

	t.Run("first song into empty queue derives", func(t *testing.T) {
		grown := song.List{}.Append(song.Entry{ID: 1, Song: makeSong("A", 2)})
		got := Rebase(Empty(), song.List{}, grown)
		assert.Equal(t, uint64(1), got.Current.SlotID)
		assert.Equal(t, 1, got.Next.VerseNum)
	})

	t.Run("append fills placeholder next", func(t *testing.T) {
		p := From(slotAt(t, l, 2, 1), l)
		require.True(t, p.Next.IsPlaceholder())
		grown := l.Append(song.Entry{ID: 4, Song: makeSong("D", 1)})

		got := Rebase(p, l, grown)
		assert.Equal(t, uint64(3), got.Current.SlotID)
		assert.Equal(t, uint64(4), got.Next.SlotID)
	})
}

func TestPair_JSON(t *testing.T) {
	l := song.List{Songs: []song.Entry{{ID: 5, Song: song.New("T", "A", []song.Verse{{Lines: []string{"x"}}})}}}
	p := Derive(l)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"slot_id":5,"slot_position":0,"verse_num":0,"song":{"title":"T","author":"A","verses":[{"lines":["x"]}]}},
		{"slot_id":0,"slot_position":0,"verse_num":0,"song":{"title":"Empty Panel","author":"None","verses":[]}}
	]`, string(data))

	var decoded Pair
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(p))

	assert.Error(t, json.Unmarshal([]byte(`[{"slot_id":0}]`), &decoded))
}

func TestSlot_Validate(t *testing.T) {
	l := queue(2)
	ok := slotAt(t, l, 0, 1)
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.VerseNum = 2
	assert.Error(t, bad.Validate())

	ph := Placeholder()
	ph.VerseNum = 1
	assert.Error(t, ph.Validate())
}
