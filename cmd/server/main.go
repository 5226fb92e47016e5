// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/oauth2"

	apiconnect "github.com/osa030/versebox/internal/api/connect"
	"github.com/osa030/versebox/internal/app/lyrics"
	"github.com/osa030/versebox/internal/app/notification"
	"github.com/osa030/versebox/internal/app/program"
	"github.com/osa030/versebox/internal/infra/config"
	"github.com/osa030/versebox/internal/infra/logger"
	"github.com/osa030/versebox/internal/infra/storage"
)

var (
	app        = kingpin.New("versebox-server", "versebox lyrics presentation server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file, list lyrics providers and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == checkConfigCmd.FullCommand() {
		printProviders(cfg)
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		os.Exit(1)
	}
}

// tokenSourceFunc adapts a function to oauth2.TokenSource.
type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) {
	return f()
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	store, err := storage.Open(cfg.Storage.Path, cfg.OpenTimeout())
	if err != nil {
		return errors.Wrapf(err, "failed to open storage %s", cfg.Storage.Path)
	}
	defer func() {
		if err := store.Close(); err != nil {
			zlog.Error().Msgf("Failed to close storage: %v", err)
		}
	}()

	// The Genius token lives in the program settings, which need the lookup
	// chain first; resolve it at request time.
	var prog *program.Program
	tokens := tokenSourceFunc(func() (*oauth2.Token, error) {
		return prog.Token()
	})

	chain, err := lyrics.NewProviderChainFromConfig(cfg, tokens)
	if err != nil {
		return errors.Wrap(err, "failed to create lyrics provider chain")
	}

	notifications := notification.NewManager()
	prog, err = program.New(store, chain, notifications, storage.Settings{
		GeniusAPIToken: cfg.Settings.GeniusToken,
		FontSize:       cfg.Settings.FontSize,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load program state")
	}

	svc := apiconnect.NewCommandService(prog, notifications)
	path, handler := apiconnect.NewCommandServiceHandler(svc, apiconnect.HandlerOptions(cfg.Operator.Token)...)
	if cfg.Operator.Token == "" {
		zlog.Warn().Msg("Operator token not configured, commands are not authenticated")
	}

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// End display subscriptions first so Shutdown does not wait on open streams
	prog.Close()
	notifications.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printProviders prints the configured lyrics providers in lookup order.
func printProviders(cfg *config.Config) {
	fmt.Println("Config OK")
	fmt.Printf("Storage: %s\n", cfg.Storage.Path)
	fmt.Println("Lyrics providers:")
	for i, p := range cfg.Lyrics.Providers {
		fmt.Printf("  %d. %-20s [type: %s]\n", i+1, p.DisplayName, p.Type)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
