package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robalobadob/wordguessr/internal/config"
	"github.com/robalobadob/wordguessr/internal/game"
	"github.com/robalobadob/wordguessr/internal/history"
	"github.com/robalobadob/wordguessr/internal/httpserver"
	"github.com/robalobadob/wordguessr/internal/metrics"
	"github.com/robalobadob/wordguessr/internal/session"
	"github.com/robalobadob/wordguessr/internal/store"
)

const lockTTL = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Serves the game as a JSON API. Sessions live in memory or Redis; finished games are archived in SQLite when HISTORY_DSN is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringP("port", "p", "", "port to listen on (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.InsecureSecret() {
		logger.Warn().Msg("SECRET is the development default; set it in production")
	}

	dict, ws, err := wordService(cfg)
	if err != nil {
		return err
	}
	logger.Info().Int("words", dict.Len()).Str("mode", cfg.WordMode).Msg("dictionary loaded")

	rec := metrics.NewRecorder()
	opts := []session.Option{
		session.WithDimensions(cfg.NumTries, cfg.WordLength),
		session.WithObserver(rec),
		session.WithLogger(logger.With().Str("component", "session").Logger()),
	}

	var st store.Store
	switch cfg.Store {
	case config.StoreRedis:
		client, err := store.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		st = store.NewRedis(client, store.WithTTL(cfg.SessionTTL), store.WithPrefix(cfg.Redis.Prefix))
		opts = append(opts, session.WithLocker(store.NewRedisLocker(client, cfg.Redis.Prefix), lockTTL))
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("using redis session store")
	default:
		st = store.NewMemory()
	}

	var hist httpserver.HistoryReader
	if cfg.HistoryDSN != "" {
		h, err := history.Open(ctx, cfg.HistoryDSN, logger.With().Str("component", "history").Logger())
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer h.Close()
		opts = append(opts, session.WithArchive(h))
		hist = h
	}

	ctl := game.NewController(ws, game.WithLogger(logger.With().Str("component", "game").Logger()))

	key, err := cfg.DeriveKey("session")
	if err != nil {
		return err
	}

	srv := httpserver.New(httpserver.Config{
		Sessions:     session.NewManager(st, ctl, opts...),
		Tokens:       httpserver.NewTokens(key, cfg.SessionTTL, cfg.CookieSecure),
		Words:        dict,
		History:      hist,
		Metrics:      rec.Handler(),
		Logger:       logger,
		ClientOrigin: cfg.ClientOrigin,
	})
	return srv.Run(ctx, ":"+cfg.Port)
}
