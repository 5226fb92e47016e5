package console

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/apperr"
)

// SettingsValues is the mirrored settings record.
type SettingsValues struct {
	GeniusToken string
	FontSize    string
	// Pending marks values changed locally that the backend has not saved yet.
	PendingToken    bool
	PendingFontSize bool
}

// PendingSave reports whether a value still has to be saved.
func (v SettingsValues) PendingSave() bool {
	return v.PendingToken || v.PendingFontSize
}

// Settings mirrors the backend settings. Setters update the mirror
// optimistically and keep the new value when persisting fails, so a later
// SaveSettings can retry.
type Settings struct {
	invoker Invoker
	seq     *Sequencer
	values  *Record[SettingsValues]
}

// NewSettings creates a settings store with empty values.
func NewSettings(invoker Invoker, timeout time.Duration) *Settings {
	return &Settings{
		invoker: invoker,
		seq:     NewSequencer(timeout),
		values:  NewRecord(SettingsValues{}),
	}
}

// Values returns the mirrored settings.
func (s *Settings) Values() SettingsValues {
	return s.values.Get()
}

// GeniusToken returns the mirrored token.
func (s *Settings) GeniusToken() string {
	return s.values.Get().GeniusToken
}

// FontSize returns the mirrored font size.
func (s *Settings) FontSize() string {
	return s.values.Get().FontSize
}

// PendingSave reports whether SaveSettings has something to retry.
func (s *Settings) PendingSave() bool {
	return s.values.Get().PendingSave()
}

// Load fetches the token and font size. On failure the previous values stay.
func (s *Settings) Load(ctx context.Context) error {
	return s.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		var token, fontSize command.Text
		if err := s.invoker.Invoke(ctx, command.GetGeniusToken, command.Empty{}, &token); err != nil {
			return configUnavailable(err, "load genius token")
		}
		if err := s.invoker.Invoke(ctx, command.GetFontSize, command.Empty{}, &fontSize); err != nil {
			return configUnavailable(err, "load font size")
		}

		v := s.values.Get()
		v.GeniusToken = string(token)
		v.FontSize = string(fontSize)
		v.PendingToken = false
		v.PendingFontSize = false
		s.values.Replace(seq, v)
		return nil
	})
}

// SetToken changes the Genius token and saves it.
func (s *Settings) SetToken(ctx context.Context, token string) error {
	return s.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		v := s.values.Get()
		v.GeniusToken = token
		v.PendingToken = true
		s.values.Replace(seq, v)
		return s.flush(ctx, seq)
	})
}

// SetFontSize changes the presentation font size and saves it.
func (s *Settings) SetFontSize(ctx context.Context, size string) error {
	return s.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		v := s.values.Get()
		v.FontSize = size
		v.PendingFontSize = true
		s.values.Replace(seq, v)
		return s.flush(ctx, seq)
	})
}

// SaveSettings re-pushes values whose save failed and flushes them.
// With nothing pending it only flushes.
func (s *Settings) SaveSettings(ctx context.Context) error {
	return s.seq.Do(ctx, func(ctx context.Context, seq uint64) error {
		return s.flush(ctx, seq)
	})
}

// flush pushes pending values and asks the backend to persist them.
// Pending flags are cleared only after save_config succeeds.
func (s *Settings) flush(ctx context.Context, seq uint64) error {
	v := s.values.Get()

	if v.PendingToken {
		req := command.SetGeniusTokenRequest{NewToken: v.GeniusToken}
		if err := s.invoker.Invoke(ctx, command.SetGeniusToken, req, &command.Ack{}); err != nil {
			return configUnavailable(err, "push genius token")
		}
	}
	if v.PendingFontSize {
		req := command.SetFontSizeRequest{NewFontSize: v.FontSize}
		if err := s.invoker.Invoke(ctx, command.SetFontSize, req, &command.Ack{}); err != nil {
			return configUnavailable(err, "push font size")
		}
	}
	if err := s.invoker.Invoke(ctx, command.SaveConfig, command.Empty{}, &command.Ack{}); err != nil {
		return configUnavailable(err, "save settings")
	}

	v.PendingToken = false
	v.PendingFontSize = false
	s.values.Replace(seq, v)
	return nil
}

func configUnavailable(err error, op string) error {
	zlog.Warn().Msgf("settings: %s failed: %v", op, err)
	err = errors.Wrap(err, op)
	if errors.Is(err, apperr.ErrConfigUnavailable) {
		return err
	}
	return apperr.ConfigUnavailable(err)
}
