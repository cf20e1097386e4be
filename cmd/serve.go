package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/timada-org/doorphone/internal/api"
	"github.com/timada-org/doorphone/internal/core"
	"github.com/timada-org/doorphone/internal/door"
	"github.com/timada-org/doorphone/internal/logger"
	"github.com/timada-org/doorphone/internal/notify"
	"github.com/timada-org/doorphone/internal/recording"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the doorphone server",

	Run: func(cmd *cobra.Command, args []string) {
		config, err := core.NewConfig(cfgFile)
		if err != nil {
			log.Fatalln(err)
		}

		zlog, err := logger.New(config.LogLevel)
		if err != nil {
			log.Fatalln(err)
		}
		defer func() { _ = zlog.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, config, zlog)
		if err != nil {
			zlog.Fatal("failed to open door store", zap.Error(err))
		}

		recordings, err := recording.NewStore(afero.NewOsFs(), config.Recordings.Dir)
		if err != nil {
			zlog.Fatal("failed to open recordings", zap.Error(err))
		}

		var mirror *notify.Mirror
		if config.Pulsar.URL != "" {
			mirror, err = notify.NewMirror(notify.MirrorOptions{
				URL:    config.Pulsar.URL,
				Topic:  config.Pulsar.Topic,
				Name:   "doorphone",
				Logger: zlog,
			})
			if err != nil {
				zlog.Fatal("failed to connect to pulsar", zap.Error(err))
			}
		}

		app := api.New(api.Options{
			Config: config,
			Registry: door.NewRegistry(store, door.Door{
				Name:       config.Dashboard.Name,
				WebhookURL: config.Dashboard.WebhookURL,
			}),
			Recordings: recordings,
			Notifier: notify.NewDiscord(notify.DiscordOptions{
				Timeout: config.WebhookTimeout(),
				Retries: config.Webhook.Retries,
				Backoff: config.WebhookBackoff(),
			}),
			Mirror: mirror,
			Logger: zlog,
		})

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := app.Close(shutdownCtx); err != nil {
				zlog.Error("shutdown failed", zap.Error(err))
			}
		}()

		if err := app.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}

		<-closed
	},
}

// openStore uses Postgres when a database url is configured and an in-memory
// store otherwise.
func openStore(ctx context.Context, config *core.Config, logger *zap.Logger) (door.Store, error) {
	if config.DatabaseURL == "" {
		logger.Warn("no database_url configured, doors are kept in memory")
		return door.NewMemoryStore(), nil
	}

	if err := door.Migrate(config.DatabaseURL); err != nil {
		return nil, err
	}

	return door.OpenPostgres(ctx, config.DatabaseURL)
}
