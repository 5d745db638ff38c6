package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecgard/mentorsync/internal/api"
	"github.com/alecgard/mentorsync/internal/crypto"
	"github.com/alecgard/mentorsync/internal/database"
	"github.com/alecgard/mentorsync/internal/metrics"
	"github.com/alecgard/mentorsync/internal/ratelimit"
	"github.com/alecgard/mentorsync/internal/report"
	"github.com/alecgard/mentorsync/internal/user"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	fields, err := crypto.NewFieldCipher(cfg.Encryption.Key)
	if err != nil {
		return err
	}
	if fields != nil {
		slog.Info("report text sealing enabled")
	}

	profileCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	users := user.NewService(user.NewStore(pool), profileCache)
	reports := report.NewService(report.NewStore(pool, fields), users)

	m := metrics.New()
	m.RegisterDBPoolCollector(database.PoolStats(pool))

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Auth > 0 {
		limiter = ratelimit.New(cfg.RateLimit.Auth, cfg.RateLimit.Window)
		go ratelimit.RunPruner(ctx, limiter, cfg.RateLimit.Window)
	}

	router := api.NewRouter(api.RouterDeps{
		Users:          users,
		Reports:        reports,
		DB:             pool,
		Metrics:        m,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Version:        version,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
