package command

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/osa030/versebox/internal/domain/display"
	"github.com/osa030/versebox/internal/domain/song"
)

var validate = validator.New()

// Record is implemented by every request and response type. Validate is the
// shape check applied at the boundary before a record is trusted.
type Record interface {
	Validate() error
}

// Empty is the request of commands without arguments.
type Empty struct{}

// Validate always succeeds.
func (Empty) Validate() error { return nil }

// Ack is the response of commands that only acknowledge.
type Ack struct{}

// Validate always succeeds.
func (Ack) Validate() error { return nil }

// DisplaySelection is the [currentDisplay, nextDisplay] response.
type DisplaySelection struct {
	display.Pair
}

// MarshalJSON encodes the pair as a two-element array.
func (d DisplaySelection) MarshalJSON() ([]byte, error) {
	return d.Pair.MarshalJSON()
}

// UnmarshalJSON decodes a two-element array.
func (d *DisplaySelection) UnmarshalJSON(data []byte) error {
	return d.Pair.UnmarshalJSON(data)
}

// Validate checks the verse index invariant of both slots.
func (d DisplaySelection) Validate() error {
	return d.Pair.Validate()
}

// Text is a bare string response (token, font size).
type Text string

// Validate always succeeds.
func (Text) Validate() error { return nil }

// SetGeniusTokenRequest is the set_genius_token argument record.
type SetGeniusTokenRequest struct {
	NewToken string `json:"newToken"`
}

// Validate always succeeds; an empty token clears it.
func (SetGeniusTokenRequest) Validate() error { return nil }

// SetFontSizeRequest is the set_font_size argument record.
type SetFontSizeRequest struct {
	NewFontSize string `json:"newFontSize" validate:"required,max=32"`
}

// Validate requires a font size.
func (r SetFontSizeRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateSongListRequest is the update_song_list argument record.
type UpdateSongListRequest struct {
	NewSongList song.List `json:"newSongList"`
}

// Validate checks id uniqueness and that every song has verses.
func (r UpdateSongListRequest) Validate() error {
	return r.NewSongList.Validate()
}

// AddSearchedSongRequest is the add_searched_song argument record.
type AddSearchedSongRequest struct {
	Author string `json:"author" validate:"required_without=Title"`
	Title  string `json:"title" validate:"required_without=Author"`
}

// Validate requires an author or a title.
func (r AddSearchedSongRequest) Validate() error {
	return validate.Struct(r)
}

// AddSongRequest is the add_song argument record: a song resolved by the caller.
type AddSongRequest struct {
	Title  string       `json:"title"`
	Author string       `json:"author"`
	Verses []song.Verse `json:"verses"`
}

// Song returns the song carried by the request.
func (r AddSongRequest) Song() song.Song {
	return song.New(r.Title, r.Author, r.Verses)
}

// Validate rejects songs without verses.
func (r AddSongRequest) Validate() error {
	return r.Song().Validate()
}

// SongList is the {songs} response of the add commands.
type SongList struct {
	song.List
}

// Validate checks the returned queue.
func (l SongList) Validate() error {
	if err := l.List.Validate(); err != nil {
		return errors.Wrap(err, "song list response")
	}
	return nil
}

// NotificationType identifies what changed.
type NotificationType string

const (
	NotificationInitialState    NotificationType = "initial_state"
	NotificationDisplayChanged  NotificationType = "display_changed"
	NotificationQueueChanged    NotificationType = "queue_changed"
	NotificationFontSizeChanged NotificationType = "font_size_changed"
)

// Notification is one message of the subscribe_display stream.
type Notification struct {
	SequenceNo uint64           `json:"sequence_no"`
	Type       NotificationType `json:"type" validate:"required"`
	Display    DisplaySelection `json:"display"`
	FontSize   string           `json:"font_size"`
	QueueSize  int              `json:"queue_size"`
}

// Validate checks the notification shape.
func (n Notification) Validate() error {
	if err := validate.Struct(n); err != nil {
		return err
	}
	return n.Display.Validate()
}
