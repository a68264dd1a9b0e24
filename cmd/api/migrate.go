// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/affiliate-backend/internal/config"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or revert database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := core.NewDatabase(cmd.Context(), config.Get().Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			version, err := core.MigrateUp(db.DB)
			if err != nil {
				return err
			}

			slog.Info("migrations applied", "version", version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Revert the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			db, err := core.NewDatabase(cmd.Context(), config.Get().Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			if err := core.MigrateDown(db.DB, steps); err != nil {
				return err
			}

			slog.Info("migrations reverted", "steps", steps)
			return nil
		},
	})

	return cmd
}
