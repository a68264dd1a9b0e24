// AngelaMos | 2026
// sessions.go

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/config"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

func sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain affiliate sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Delete every expired session once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Get()

			db, err := core.NewDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			store := auth.NewSessionStore(auth.NewRepository(db.DB), auth.StoreConfig{
				TTL:    cfg.Session.TTL,
				Logger: slog.Default(),
			})

			n, err := store.Purge(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("expired sessions purged", "count", n)
			return nil
		},
	})

	return cmd
}
