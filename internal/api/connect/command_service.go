package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
	"github.com/osa030/versebox/internal/app/notification"
	"github.com/osa030/versebox/internal/domain/display"
	"github.com/osa030/versebox/internal/domain/song"
)

// Program is the authoritative store behind the boundary.
type Program interface {
	DisplaySelection() display.Pair
	NextVerse() display.Pair
	PreviousVerse() display.Pair
	GeniusToken() string
	SetGeniusToken(token string)
	FontSize() string
	SetFontSize(size string)
	SaveConfig() error
	UpdateSongList(list song.List) error
	AddSearchedSong(ctx context.Context, author, title string) (song.List, error)
	AddSong(s song.Song) (song.List, error)
	Songs() song.List
	Snapshot() *command.Notification
	Done() <-chan struct{}
}

// CommandService implements every command of the boundary on top of a Program.
type CommandService struct {
	program       Program
	notifications *notification.Manager
}

// NewCommandService creates a new CommandService.
func NewCommandService(program Program, notifications *notification.Manager) *CommandService {
	return &CommandService{
		program:       program,
		notifications: notifications,
	}
}

// NewCommandServiceHandler builds an HTTP handler serving every command.
// It returns the path prefix to mount the handler on.
func NewCommandServiceHandler(svc *CommandService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()

	mux.Handle(unary(command.GetDisplaySelection, svc.getDisplaySelection, opts))
	mux.Handle(unary(command.NextVerse, svc.nextVerse, opts))
	mux.Handle(unary(command.PreviousVerse, svc.previousVerse, opts))
	mux.Handle(unary(command.GetGeniusToken, svc.getGeniusToken, opts))
	mux.Handle(unary(command.SetGeniusToken, svc.setGeniusToken, opts))
	mux.Handle(unary(command.GetFontSize, svc.getFontSize, opts))
	mux.Handle(unary(command.SetFontSize, svc.setFontSize, opts))
	mux.Handle(unary(command.SaveConfig, svc.saveConfig, opts))
	mux.Handle(unary(command.UpdateSongList, svc.updateSongList, opts))
	mux.Handle(unary(command.AddSearchedSong, svc.addSearchedSong, opts))
	mux.Handle(unary(command.AddSong, svc.addSong, opts))
	mux.Handle(unary(command.GetSongList, svc.getSongList, opts))

	mux.Handle(command.SubscribeDisplay.Procedure(), connect.NewServerStreamHandler(
		command.SubscribeDisplay.Procedure(),
		svc.SubscribeDisplay,
		opts...,
	))

	return "/" + command.ServiceName + "/", mux
}

// unary wraps a typed command function: the request record is shape-checked
// before it reaches the program, and program errors keep their kind on the wire.
func unary[Req command.Record, Res any](
	name command.Name,
	fn func(ctx context.Context, req Req) (Res, error),
	opts []connect.HandlerOption,
) (string, http.Handler) {
	procedure := name.Procedure()
	return procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			msg := *req.Msg
			if err := msg.Validate(); err != nil {
				zlog.Warn().Msgf("rejected command: name=%s error=%v", name, err)
				return nil, badRequest(err)
			}
			zlog.Debug().Msgf("command: name=%s", name)

			res, err := fn(ctx, msg)
			if err != nil {
				zlog.Warn().Msgf("command failed: name=%s error=%v", name, err)
				return nil, toConnectError(err)
			}
			return connect.NewResponse(&res), nil
		},
		opts...,
	)
}

func (s *CommandService) getDisplaySelection(ctx context.Context, _ command.Empty) (command.DisplaySelection, error) {
	return command.DisplaySelection{Pair: s.program.DisplaySelection()}, nil
}

func (s *CommandService) nextVerse(ctx context.Context, _ command.Empty) (command.DisplaySelection, error) {
	return command.DisplaySelection{Pair: s.program.NextVerse()}, nil
}

func (s *CommandService) previousVerse(ctx context.Context, _ command.Empty) (command.DisplaySelection, error) {
	return command.DisplaySelection{Pair: s.program.PreviousVerse()}, nil
}

func (s *CommandService) getGeniusToken(ctx context.Context, _ command.Empty) (command.Text, error) {
	return command.Text(s.program.GeniusToken()), nil
}

func (s *CommandService) setGeniusToken(ctx context.Context, req command.SetGeniusTokenRequest) (command.Ack, error) {
	s.program.SetGeniusToken(req.NewToken)
	return command.Ack{}, nil
}

func (s *CommandService) getFontSize(ctx context.Context, _ command.Empty) (command.Text, error) {
	return command.Text(s.program.FontSize()), nil
}

func (s *CommandService) setFontSize(ctx context.Context, req command.SetFontSizeRequest) (command.Ack, error) {
	s.program.SetFontSize(req.NewFontSize)
	return command.Ack{}, nil
}

func (s *CommandService) saveConfig(ctx context.Context, _ command.Empty) (command.Ack, error) {
	return command.Ack{}, s.program.SaveConfig()
}

func (s *CommandService) updateSongList(ctx context.Context, req command.UpdateSongListRequest) (command.Ack, error) {
	return command.Ack{}, s.program.UpdateSongList(req.NewSongList)
}

func (s *CommandService) addSearchedSong(ctx context.Context, req command.AddSearchedSongRequest) (command.SongList, error) {
	list, err := s.program.AddSearchedSong(ctx, req.Author, req.Title)
	return command.SongList{List: list}, err
}

func (s *CommandService) addSong(ctx context.Context, req command.AddSongRequest) (command.SongList, error) {
	list, err := s.program.AddSong(req.Song())
	return command.SongList{List: list}, err
}

func (s *CommandService) getSongList(ctx context.Context, _ command.Empty) (command.SongList, error) {
	return command.SongList{List: s.program.Songs()}, nil
}

// SubscribeDisplay streams display and settings changes to a presentation display.
// The first message is the current state.
func (s *CommandService) SubscribeDisplay(
	ctx context.Context,
	req *connect.Request[command.Empty],
	stream *connect.ServerStream[command.Notification],
) error {
	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := s.notifications.Subscribe(adapter)
	defer s.notifications.Unsubscribe(subscriptionID)

	// Subscribe before reading the snapshot so no change falls between the two.
	initial := s.program.Snapshot()
	initial.Type = command.NotificationInitialState
	initial.SequenceNo = s.notifications.NextSequenceNo()
	if err := s.notifications.Send(subscriptionID, initial); err != nil {
		return connect.NewError(connect.CodeResourceExhausted, err)
	}

	select {
	case <-ctx.Done():
	case <-s.program.Done():
	case <-s.notifications.Dropped(subscriptionID):
		zlog.Info().Msgf("display stream closed by server: id=%s", subscriptionID)
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[command.Notification]
}

func (a *notificationStreamAdapter) Send(n *command.Notification) error {
	return a.stream.Send(n)
}
