// Package storage persists the song queue and the program settings in a bbolt file.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"

	"github.com/osa030/versebox/internal/domain/song"
)

var (
	queueBucket    = []byte("queue")
	settingsBucket = []byte("settings")

	songsKey    = []byte("songs")
	nextIDKey   = []byte("next_id")
	settingsKey = []byte("config")
)

// Settings is the persisted settings record.
type Settings struct {
	GeniusAPIToken string `json:"genius_api_token,omitempty"`
	FontSize       string `json:"font_size"`
}

// QueueState is the persisted queue and id counter.
type QueueState struct {
	List   song.List
	NextID uint64
}

// BboltStore stores program state in a single bbolt database.
type BboltStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string, timeout time.Duration) (*BboltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create storage directory")
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bbolt database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{queueBucket, settingsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create buckets")
	}

	return &BboltStore{db: db}, nil
}

// LoadQueue returns the stored queue. A fresh database yields an empty queue and NextID 1.
func (s *BboltStore) LoadQueue() (QueueState, error) {
	state := QueueState{NextID: 1}

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(queueBucket)
		if v := b.Get(songsKey); v != nil {
			if err := json.Unmarshal(v, &state.List); err != nil {
				return errors.Wrap(err, "failed to decode queue")
			}
		}
		if v := b.Get(nextIDKey); len(v) == 8 {
			state.NextID = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	if err != nil {
		return QueueState{}, err
	}

	// Never hand out an id that is already queued.
	if top := state.List.MaxID(); state.NextID <= top {
		state.NextID = top + 1
	}
	return state, nil
}

// SaveQueue replaces the stored queue and id counter in one transaction.
func (s *BboltStore) SaveQueue(state QueueState) error {
	value, err := json.Marshal(state.List)
	if err != nil {
		return errors.Wrap(err, "failed to encode queue")
	}
	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, state.NextID)

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(queueBucket)
		if err := b.Put(songsKey, value); err != nil {
			return err
		}
		return b.Put(nextIDKey, id)
	})
}

// LoadSettings returns the stored settings. The bool is false if nothing was saved yet.
func (s *BboltStore) LoadSettings() (Settings, bool, error) {
	var (
		settings Settings
		found    bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(settingsBucket).Get(settingsKey)
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &settings)
	})
	if err != nil {
		return Settings{}, false, errors.Wrap(err, "failed to load settings")
	}
	return settings, found, nil
}

// SaveSettings replaces the stored settings.
func (s *BboltStore) SaveSettings(settings Settings) error {
	value, err := json.Marshal(settings)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(settingsBucket).Put(settingsKey, value)
	})
}

// Close closes the database.
func (s *BboltStore) Close() error {
	return s.db.Close()
}
