package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecgard/mentorsync/internal/cache"
	"github.com/alecgard/mentorsync/internal/config"
	"github.com/alecgard/mentorsync/internal/user"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "mentorsync",
	Short:        "MentorSync: weekly 1:1 check-ins between mentors and mentees",
	Long:         "MentorSync records weekly reports from mentees and lets mentors review the reports of the people they mentor.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: none, env and defaults only)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads, validates and installs the JSON logger at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)})))
	return cfg, nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openCache connects the profile cache when Redis is configured. The returned
// cache is a nil interface otherwise.
func openCache(ctx context.Context, cfg *config.Config) (user.ProfileCache, func(), error) {
	if cfg.Cache.RedisAddr == "" {
		return nil, func() {}, nil
	}
	rc, err := cache.New(ctx, cache.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
		TTL:      cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("profile cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL.String())
	return rc, func() { _ = rc.Close() }, nil
}
