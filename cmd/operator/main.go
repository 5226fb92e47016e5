// Package main provides the operator CLI entry point. It drives the
// presentation through the console stores and can act as a display.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/versebox/internal/api/command"
	apiconnect "github.com/osa030/versebox/internal/api/connect"
	"github.com/osa030/versebox/internal/app/console"
	"github.com/osa030/versebox/internal/app/lyrics"
	"github.com/osa030/versebox/internal/apperr"
	"github.com/osa030/versebox/internal/domain/display"
	"github.com/osa030/versebox/internal/domain/song"
	"github.com/osa030/versebox/internal/infra/logger"
)

var (
	app     = kingpin.New("versebox-operator", "versebox operator console")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token   = app.Flag("token", "Operator token (or set OPERATOR_TOKEN env)").Envar("OPERATOR_TOKEN").String()
	timeout = app.Flag("timeout", "Per-command timeout").Default("10s").Duration()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	// show command
	showCmd = app.Command("show", "Show the current and next display")

	// next command
	nextCmd = app.Command("next", "Advance to the next verse")

	// prev command
	prevCmd = app.Command("prev", "Go back to the previous verse").Alias("previous")

	// queue command
	queueCmd = app.Command("queue", "List the song queue").Alias("list")

	// add command
	addCmd    = app.Command("add", "Look up a song and append it to the queue")
	addAuthor = addCmd.Arg("author", "Song author").Required().String()
	addTitle  = addCmd.Arg("title", "Song title").Required().String()

	// add-file command
	addFileCmd  = app.Command("add-file", "Append every song of a YAML song book to the queue")
	addFilePath = addFileCmd.Arg("path", "Song book path").Required().ExistingFile()

	// remove command
	removeCmd = app.Command("remove", "Remove a song from the queue")
	removeID  = removeCmd.Arg("id", "Queue entry ID").Required().Uint64()

	// remove-first command
	removeFirstCmd = app.Command("remove-first", "Remove the first song of the queue")

	// move command
	moveCmd  = app.Command("move", "Move a song to another queue position")
	moveFrom = moveCmd.Arg("from", "Current position (0-based)").Required().Int()
	moveTo   = moveCmd.Arg("to", "New position (0-based)").Required().Int()

	// token command
	tokenCmd   = app.Command("genius-token", "Show or set the Genius API token")
	tokenValue = tokenCmd.Arg("value", "New token").String()
	tokenClear = tokenCmd.Flag("clear", "Clear the token").Bool()

	// font-size command
	fontSizeCmd   = app.Command("font-size", "Show or set the presentation font size")
	fontSizeValue = fontSizeCmd.Arg("value", "New font size, e.g. 40px").String()

	// save command
	saveCmd = app.Command("save", "Save the current settings")

	// watch command
	watchCmd  = app.Command("watch", "Render one display and follow changes")
	watchSlot = watchCmd.Flag("slot", "Display to render").Default("current").Enum("current", "next")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.Config{Output: "stderr", Level: level}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	client := apiconnect.NewClient(http.DefaultClient, strings.TrimRight(*server, "/"), *token)
	presentation := console.NewPresentation(client, *timeout)
	queue := console.NewQueue(client, presentation, *timeout)
	settings := console.NewSettings(client, *timeout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case showCmd.FullCommand():
		err = show(ctx, presentation)
	case nextCmd.FullCommand():
		err = step(ctx, presentation, presentation.NextVerse)
	case prevCmd.FullCommand():
		err = step(ctx, presentation, presentation.PreviousVerse)
	case queueCmd.FullCommand():
		err = listQueue(ctx, queue, presentation)
	case addCmd.FullCommand():
		err = addSearched(ctx, queue, *addAuthor, *addTitle)
	case addFileCmd.FullCommand():
		err = addFile(ctx, queue, *addFilePath)
	case removeCmd.FullCommand():
		err = editQueue(ctx, queue, func(ctx context.Context) error { return queue.RemoveByID(ctx, *removeID) })
	case removeFirstCmd.FullCommand():
		err = editQueue(ctx, queue, queue.RemoveFirst)
	case moveCmd.FullCommand():
		err = editQueue(ctx, queue, func(ctx context.Context) error { return queue.Move(ctx, *moveFrom, *moveTo) })
	case tokenCmd.FullCommand():
		err = geniusToken(ctx, settings, *tokenValue, *tokenValue != "" || *tokenClear)
	case fontSizeCmd.FullCommand():
		err = fontSize(ctx, settings, *fontSizeValue)
	case saveCmd.FullCommand():
		err = settings.SaveSettings(ctx)
		if err == nil {
			fmt.Println("Settings saved")
		}
	case watchCmd.FullCommand():
		err = watch(ctx, client, *watchSlot)
	}

	if err != nil {
		zlog.Debug().Msgf("command failed: %+v", err)
		fmt.Printf("Error: %v\n", err)
		if apperr.IsRetryable(err) {
			fmt.Println("The command can be retried.")
		}
		os.Exit(1)
	}
}

func show(ctx context.Context, p *console.Presentation) error {
	if err := p.Load(ctx); err != nil {
		return err
	}
	printPair(p.Pair())
	return nil
}

func step(ctx context.Context, p *console.Presentation, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	printPair(p.Pair())
	return nil
}

func listQueue(ctx context.Context, q *console.Queue, p *console.Presentation) error {
	if err := q.Load(ctx); err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		return err
	}
	printQueue(q.Songs(), p.Pair())
	return nil
}

func addSearched(ctx context.Context, q *console.Queue, author, title string) error {
	if err := q.AddSearchedSong(ctx, author, title); err != nil {
		if errors.Is(err, apperr.ErrLookupFailed) {
			return errors.Wrapf(err, "no lyrics found for %s - %s", author, title)
		}
		return err
	}
	fmt.Printf("Added %s - %s\n", author, title)
	return nil
}

func addFile(ctx context.Context, q *console.Queue, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read song book")
	}
	book, err := lyrics.NewLibraryProviderFromYAML(data)
	if err != nil {
		return err
	}

	songs := book.Songs()
	for i, s := range songs {
		if err := q.AddSong(ctx, s); err != nil {
			return errors.Wrapf(err, "song %d of %d (%s)", i+1, len(songs), s.Title)
		}
		fmt.Printf("Added %s - %s (%d verses)\n", s.Author, s.Title, len(s.Verses))
	}
	return nil
}

// editQueue loads the mirror before editing, since removals and moves are
// computed from it.
func editQueue(ctx context.Context, q *console.Queue, edit func(context.Context) error) error {
	if err := q.Load(ctx); err != nil {
		return err
	}
	if err := edit(ctx); err != nil {
		return err
	}
	printQueue(q.Songs(), display.Pair{})
	return nil
}

func geniusToken(ctx context.Context, s *console.Settings, value string, set bool) error {
	if !set {
		if err := s.Load(ctx); err != nil {
			return err
		}
		if s.GeniusToken() == "" {
			fmt.Println("Genius token: (not set)")
		} else {
			fmt.Printf("Genius token: %s\n", maskToken(s.GeniusToken()))
		}
		return nil
	}
	if err := s.SetToken(ctx, value); err != nil {
		return err
	}
	fmt.Println("Genius token saved")
	return nil
}

func fontSize(ctx context.Context, s *console.Settings, value string) error {
	if value == "" {
		if err := s.Load(ctx); err != nil {
			return err
		}
		fmt.Printf("Font size: %s\n", s.FontSize())
		return nil
	}
	if err := s.SetFontSize(ctx, value); err != nil {
		return err
	}
	fmt.Printf("Font size set to %s\n", value)
	return nil
}

func watch(ctx context.Context, client *apiconnect.Client, slot string) error {
	fmt.Fprintln(os.Stderr, "Watching display. Press Ctrl+C to exit.")

	var lastSeq uint64
	return client.Subscribe(ctx, func(n *command.Notification) error {
		// Initial state may overtake a change broadcast while subscribing.
		if n.SequenceNo <= lastSeq {
			return nil
		}
		lastSeq = n.SequenceNo

		s := n.Display.Current
		if slot == "next" {
			s = n.Display.Next
		}
		renderSlot(s, n.FontSize)
		return nil
	})
}

func maskToken(t string) string {
	if len(t) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(t)-4) + t[len(t)-4:]
}

func printPair(p display.Pair) {
	fmt.Println("=== CURRENT ===")
	printSlot(p.Current)
	fmt.Println("\n=== NEXT ===")
	printSlot(p.Next)
}

func printSlot(s display.Slot) {
	if s.IsPlaceholder() {
		fmt.Printf("  %s (%s)\n", display.PlaceholderTitle, display.PlaceholderAuthor)
		return
	}
	fmt.Printf("  %s - %s  [id %d, verse %d/%d]\n", s.Song.Author, s.Song.Title, s.SlotID, s.VerseNum+1, len(s.Song.Verses))
	for _, line := range s.CurrentVerse().Lines {
		fmt.Printf("    %s\n", line)
	}
}

func printQueue(list song.List, p display.Pair) {
	if list.IsEmpty() {
		fmt.Println("Queue is empty")
		return
	}
	fmt.Printf("%-4s %-6s %-30s %-24s %s\n", "POS", "ID", "TITLE", "AUTHOR", "VERSES")
	for i, e := range list.Songs {
		marker := ""
		switch {
		case p.Current.SlotID != 0 && e.ID == p.Current.SlotID:
			marker = "  <- current"
		case p.Next.SlotID != 0 && e.ID == p.Next.SlotID:
			marker = "  <- next"
		}
		fmt.Printf("%-4d %-6d %-30s %-24s %d%s\n", i, e.ID, e.Song.Title, e.Song.Author, len(e.Song.Verses), marker)
	}
}

// renderSlot redraws the terminal with one verse.
func renderSlot(s display.Slot, fontSize string) {
	fmt.Print("\033[H\033[2J")
	fmt.Printf("[%s] %s\n\n", time.Now().Format(time.TimeOnly), fontSize)
	if s.IsPlaceholder() {
		return
	}
	for _, line := range s.CurrentVerse().Lines {
		fmt.Println(line)
	}
	fmt.Printf("\n%s - %s\n", s.Song.Title, s.Song.Author)
}
