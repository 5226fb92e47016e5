package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osa030/versebox/internal/domain/song"
)

func openTemp(t *testing.T) *BboltStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "test.db"), time.Second)
	require.NoError(t, err, "Failed to open bbolt store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBboltStore_Queue(t *testing.T) {
	store := openTemp(t)

	empty, err := store.LoadQueue()
	require.NoError(t, err)
	require.True(t, empty.List.IsEmpty(), "A fresh store should have an empty queue")
	require.Equal(t, uint64(1), empty.NextID)

	list := song.List{Songs: []song.Entry{
		{ID: 1, Song: song.New("First", "A", []song.Verse{{Lines: []string{"one"}}})},
		{ID: 2, Song: song.New("Second", "B", []song.Verse{{Lines: []string{"two"}}, {Lines: []string{"three"}}})},
	}}
	require.NoError(t, store.SaveQueue(QueueState{List: list, NextID: 3}))

	loaded, err := store.LoadQueue()
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, loaded.List.IDs())
	require.Equal(t, uint64(3), loaded.NextID)
	require.Equal(t, list.Songs[1].Song, loaded.List.Songs[1].Song)
}

func TestBboltStore_QueueNextIDNeverReused(t *testing.T) {
	store := openTemp(t)

	list := song.List{Songs: []song.Entry{
		{ID: 9, Song: song.New("T", "A", []song.Verse{{Lines: []string{"x"}}})},
	}}
	require.NoError(t, store.SaveQueue(QueueState{List: list, NextID: 2}))

	loaded, err := store.LoadQueue()
	require.NoError(t, err)
	require.Equal(t, uint64(10), loaded.NextID, "NextID must be past the largest stored id")
}

func TestBboltStore_Settings(t *testing.T) {
	store := openTemp(t)

	_, found, err := store.LoadSettings()
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, store.SaveSettings(Settings{GeniusAPIToken: "tok", FontSize: "18px"}))

	settings, found, err := store.LoadSettings()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "tok", settings.GeniusAPIToken)
	require.Equal(t, "18px", settings.FontSize)
}
