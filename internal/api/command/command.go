// Package command defines the command boundary: the closed set of commands and
// the request/response record of each one.
package command

import "strings"

// Name identifies a command on the boundary.
type Name string

const (
	GetDisplaySelection Name = "get_display_selection"
	NextVerse           Name = "next_verse"
	PreviousVerse       Name = "previous_verse"
	GetGeniusToken      Name = "get_genius_token"
	SetGeniusToken      Name = "set_genius_token"
	GetFontSize         Name = "get_font_size"
	SetFontSize         Name = "set_font_size"
	SaveConfig          Name = "save_config"
	UpdateSongList      Name = "update_song_list"
	AddSearchedSong     Name = "add_searched_song"
	AddSong             Name = "add_song"
	GetSongList         Name = "get_song_list"

	// SubscribeDisplay is a server stream of Notification records.
	SubscribeDisplay Name = "subscribe_display"
)

// ServiceName is the RPC service that carries every command.
const ServiceName = "versebox.v1.CommandService"

// Unary lists the request/response commands.
var Unary = []Name{
	GetDisplaySelection,
	NextVerse,
	PreviousVerse,
	GetGeniusToken,
	SetGeniusToken,
	GetFontSize,
	SetFontSize,
	SaveConfig,
	UpdateSongList,
	AddSearchedSong,
	AddSong,
	GetSongList,
}

// Procedure returns the RPC procedure path of the command.
func (n Name) Procedure() string {
	return "/" + ServiceName + "/" + string(n)
}

// Mutating reports whether the command changes backend state.
func (n Name) Mutating() bool {
	return !strings.HasPrefix(string(n), "get_") && n != SubscribeDisplay
}
