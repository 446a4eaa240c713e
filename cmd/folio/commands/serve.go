package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawrencechen/folio/pkg/folio/analytics"
	"github.com/lawrencechen/folio/pkg/folio/assistant"
	"github.com/lawrencechen/folio/pkg/folio/digest"
	"github.com/lawrencechen/folio/pkg/folio/mail"
	"github.com/lawrencechen/folio/pkg/folio/server"
)

// newServeCmd creates the `folio serve` command that starts the HTTP backend.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant HTTP backend",
		Long: `Start the folio backend: the chat endpoint, the profile endpoints,
the admin inbox, and (when enabled) the daily owner digest.

Examples:
  folio serve
  folio serve --config ./config.yaml`,
		RunE: runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)

	// ── Wire dependencies ──
	provider := assistant.NewLLMClient(cfg, logger)
	mailer := mail.NewHTTPDispatcher(cfg.Mail, logger)

	var events *analytics.Store
	if cfg.Analytics.Enabled {
		events, err = analytics.Open(cfg.Analytics.Path, logger)
		if err != nil {
			// The assistant works without the event store, so degrade rather
			// than refuse to start.
			logger.Error("opening event store failed, analytics disabled", "error", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	bot := assistant.New(cfg, provider, mailer, events, logger)
	srv := server.New(cfg.Server, cfg.Profile, bot, events, logger)

	// ── Start ──
	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	var dg *digest.Digest
	if cfg.Digest.Enabled && events != nil {
		dg = digest.New(cfg.Digest.Schedule, cfg.Mail.OwnerEmail, events, mailer, logger)
		if err := dg.Start(); err != nil {
			logger.Error("starting digest failed", "error", err)
			dg = nil
		}
	}

	logger.Info("folio running. Press Ctrl+C to stop.",
		"name", cfg.Name,
		"model", cfg.Model,
		"address", cfg.Server.Address,
	)

	// ── Wait for shutdown ──
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	done := make(chan struct{})
	go func() {
		if dg != nil {
			dg.Stop()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(15 * time.Second):
		logger.Warn("shutdown timed out, forcing exit")
	}

	return nil
}

// resolveConfig loads config from the --config flag, a discovered file, or
// the built-in defaults.
func resolveConfig(cmd *cobra.Command) (*assistant.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	if configPath != "" {
		cfg, err := assistant.LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	if found := assistant.FindConfigFile(); found != "" {
		cfg, err := assistant.LoadConfigFromFile(found)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", found, err)
		}
		slog.Info("config loaded", "path", found)
		return cfg, nil
	}

	// No config file: defaults plus whatever secrets the environment carries.
	slog.Info("no config file found, using defaults")
	cfg := assistant.DefaultConfig()
	assistant.ResolveSecrets(cfg)
	return cfg, nil
}
