package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service (feed ranking, outfits, telemetry)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logging.Warn().Err(err).Msg("shutdown")
			}
		}()

		srv := server.New(a.engine, a.lookup, a.repo, a.assembler, a.sink, server.Options{
			Addr:            cfg.Server.Addr,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			RateLimit:       cfg.Server.RateLimit,
			RateLimitWindow: cfg.Server.RateLimitWindow,
			DefaultPoolSize: cfg.Scoring.PoolSize,
		})
		return srv.ListenAndServe(ctx)
	},
}
