package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alecgard/mentorsync/internal/database"
	"github.com/alecgard/mentorsync/internal/user"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersActivateCmd = &cobra.Command{
	Use:   "activate <user-id>",
	Short: "Re-enable login for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(cmd.Context(), args[0], true)
	},
}

var usersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Block login and hide a mentee from their mentor's list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setActive(cmd.Context(), args[0], false)
	},
}

func init() {
	usersCmd.AddCommand(usersActivateCmd, usersDeactivateCmd)
	rootCmd.AddCommand(usersCmd)
}

func setActive(ctx context.Context, rawID string, active bool) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 1 {
		return fmt.Errorf("invalid user id %q", rawID)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	profileCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	u, err := user.NewService(user.NewStore(pool), profileCache).SetActive(ctx, id, active)
	if err != nil {
		return err
	}

	slog.Info("audit", "action", "set_active", "resource_type", "user", "resource_id", u.ID, "is_active", u.IsActive)
	fmt.Printf("user %d (%s) is_active=%t\n", u.ID, u.Email, u.IsActive)
	return nil
}
