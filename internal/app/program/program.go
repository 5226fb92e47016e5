// Package program holds the authoritative presentation state: the song queue,
// the display selection and the settings. Every command is serialised.
package program

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/display"
	"github.com/osa030/versebox/internal/domain/song"
	"github.com/osa030/versebox/internal/infra/logger"
	"github.com/osa030/versebox/internal/infra/storage"
)

// ErrNoGeniusToken is returned by Token while no Genius token is configured.
var ErrNoGeniusToken = errors.New("genius api token is not set")

// Repository persists the queue and the settings.
type Repository interface {
	LoadQueue() (storage.QueueState, error)
	SaveQueue(state storage.QueueState) error
	LoadSettings() (storage.Settings, bool, error)
	SaveSettings(settings storage.Settings) error
}

// Lookup resolves a song by author and title.
type Lookup interface {
	Lookup(ctx context.Context, author, title string) (song.Song, error)
}

// Broadcaster delivers change notifications to presentation displays.
// Broadcast must not block on a display.
type Broadcaster interface {
	Broadcast(n *command.Notification)
}

// Program is the backend store behind the command boundary.
type Program struct {
	mu sync.Mutex

	repo     Repository
	lookup   Lookup
	notifier Broadcaster

	list     song.List
	nextID   uint64
	pair     display.Pair
	settings storage.Settings

	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

// New loads the stored queue and settings and derives the display selection
// from the head of the queue. initial is used when no settings were ever saved.
func New(repo Repository, lookup Lookup, notifier Broadcaster, initial storage.Settings) (*Program, error) {
	queue, err := repo.LoadQueue()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load queue")
	}
	if err := queue.List.Validate(); err != nil {
		return nil, errors.Wrap(err, "stored queue is invalid")
	}

	settings, found, err := repo.LoadSettings()
	if err != nil {
		return nil, apperr.ConfigUnavailable(errors.Wrap(err, "failed to load settings"))
	}
	if !found {
		settings = initial
		zlog.Info().Msg("no saved settings, using configured defaults")
	}

	p := &Program{
		repo:     repo,
		lookup:   lookup,
		notifier: notifier,
		list:     queue.List,
		nextID:   queue.NextID,
		pair:     display.Derive(queue.List),
		settings: settings,
		done:     make(chan struct{}),
		log:      logger.Component("program"),
	}

	p.log.Info().Msgf("program loaded: songs=%d next_id=%d font_size=%s", p.list.Len(), p.nextID, p.settings.FontSize)
	return p, nil
}

// DisplaySelection returns the current (current, next) pair.
func (p *Program) DisplaySelection() display.Pair {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pair
}

// NextVerse advances the display selection by one step.
func (p *Program) NextVerse() display.Pair {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setPair(display.NextVerse(p.pair, p.list))
	return p.pair
}

// PreviousVerse retreats the display selection by one step.
func (p *Program) PreviousVerse() display.Pair {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setPair(display.PreviousVerse(p.pair, p.list))
	return p.pair
}

// setPair must be called with mu held.
func (p *Program) setPair(next display.Pair) {
	if next.Equal(p.pair) {
		return
	}
	p.pair = next
	p.log.Debug().Msgf("display changed: current=%d/%d next=%d/%d",
		next.Current.SlotID, next.Current.VerseNum, next.Next.SlotID, next.Next.VerseNum)
	p.notifyLocked(command.NotificationDisplayChanged)
}

// Songs returns a copy of the queue.
func (p *Program) Songs() song.List {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list.Clone()
}

// UpdateSongList replaces the queue. The list is persisted before it is applied,
// so a storage failure leaves the program unchanged.
func (p *Program) UpdateSongList(list song.List) error {
	if err := list.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	nextID := p.nextID
	if top := list.MaxID(); top >= nextID {
		nextID = top + 1
	}
	if err := p.applyQueueLocked(list.Clone(), nextID); err != nil {
		return err
	}
	p.log.Info().Msgf("song list updated: songs=%d", list.Len())
	return nil
}

// AddSong appends a resolved song and returns the new queue.
func (p *Program) AddSong(s song.Song) (song.List, error) {
	if err := s.Validate(); err != nil {
		return song.List{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry := song.Entry{ID: p.nextID, Song: s}
	if err := p.applyQueueLocked(p.list.Append(entry), p.nextID+1); err != nil {
		return song.List{}, err
	}
	p.log.Info().Msgf("song added: id=%d title=%q author=%q verses=%d", entry.ID, s.Title, s.Author, len(s.Verses))
	return p.list.Clone(), nil
}

// AddSearchedSong resolves the song through the lookup collaborator and appends
// it. The lookup runs without holding the program lock. A resolved song with no
// verses is rejected as InvalidSong.
func (p *Program) AddSearchedSong(ctx context.Context, author, title string) (song.List, error) {
	p.log.Debug().Msgf("looking up lyrics: author=%q title=%q", author, title)
	s, err := p.lookup.Lookup(ctx, author, title)
	if err != nil {
		if !errors.Is(err, apperr.ErrLookupFailed) && !errors.Is(err, apperr.ErrInvalidSong) {
			err = apperr.LookupFailed(err)
		}
		return song.List{}, err
	}
	// A match without verses is an invalid song, not a miss.
	return p.AddSong(s)
}

// applyQueueLocked persists and applies a new queue, then re-anchors the
// display selection. mu must be held.
func (p *Program) applyQueueLocked(list song.List, nextID uint64) error {
	if err := p.repo.SaveQueue(storage.QueueState{List: list, NextID: nextID}); err != nil {
		p.log.Error().Msgf("failed to persist queue: %v", err)
		return apperr.CommandFailed(errors.Wrap(err, "failed to persist queue"))
	}

	old := p.list
	p.list = list
	p.nextID = nextID
	p.pair = display.Rebase(p.pair, old, list)
	p.notifyLocked(command.NotificationQueueChanged)
	return nil
}

// GeniusToken returns the in-memory Genius token.
func (p *Program) GeniusToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.GeniusAPIToken
}

// SetGeniusToken changes the in-memory Genius token. SaveConfig persists it.
func (p *Program) SetGeniusToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings.GeniusAPIToken = token
	p.log.Info().Msgf("genius token changed: set=%v", token != "")
}

// FontSize returns the in-memory font size.
func (p *Program) FontSize() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.FontSize
}

// SetFontSize changes the in-memory font size and pushes it to the displays.
func (p *Program) SetFontSize(size string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.settings.FontSize == size {
		return
	}
	p.settings.FontSize = size
	p.log.Info().Msgf("font size changed: %s", size)
	p.notifyLocked(command.NotificationFontSizeChanged)
}

// SaveConfig persists the in-memory settings.
func (p *Program) SaveConfig() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.repo.SaveSettings(p.settings); err != nil {
		p.log.Error().Msgf("failed to save settings: %v", err)
		return apperr.ConfigUnavailable(errors.Wrap(err, "failed to save settings"))
	}
	p.log.Debug().Msg("settings saved")
	return nil
}

// Token implements oauth2.TokenSource with the current Genius token, so a
// token set through the settings applies to the next lookup.
func (p *Program) Token() (*oauth2.Token, error) {
	token := p.GeniusToken()
	if token == "" {
		return nil, ErrNoGeniusToken
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// Snapshot returns the state pushed to a display when it subscribes.
func (p *Program) Snapshot() *command.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notificationLocked(command.NotificationInitialState)
}

func (p *Program) notificationLocked(t command.NotificationType) *command.Notification {
	return &command.Notification{
		Type:      t,
		Display:   command.DisplaySelection{Pair: p.pair},
		FontSize:  p.settings.FontSize,
		QueueSize: p.list.Len(),
	}
}

// notifyLocked broadcasts while mu is held so displays see changes in command
// order. Broadcast only enqueues, so holding mu here never waits on a display.
func (p *Program) notifyLocked(t command.NotificationType) {
	if p.notifier == nil {
		return
	}
	p.notifier.Broadcast(p.notificationLocked(t))
}

// Done is closed when the program shuts down.
func (p *Program) Done() <-chan struct{} {
	return p.done
}

// Close ends open display subscriptions.
func (p *Program) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}
