// AngelaMos | 2026
// affiliate.go

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/config"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

func affiliateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "affiliate",
		Short: "Moderate affiliate accounts",
	}

	cmd.AddCommand(moderationCommand("approve", "Activate a pending or suspended affiliate",
		func(ctx context.Context, svc *affiliate.Service, id string) error {
			_, err := svc.Approve(ctx, id)
			return err
		},
	))
	cmd.AddCommand(moderationCommand("suspend", "Suspend an affiliate",
		func(ctx context.Context, svc *affiliate.Service, id string) error {
			_, err := svc.Suspend(ctx, id)
			return err
		},
	))

	return cmd
}

func moderationCommand(
	use, short string,
	action func(ctx context.Context, svc *affiliate.Service, id string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <affiliate-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := core.NewDatabase(cmd.Context(), config.Get().Database)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // process exits next

			svc := affiliate.NewService(affiliate.NewRepository(db.DB), nil, slog.Default())
			if err := action(cmd.Context(), svc, args[0]); err != nil {
				return err
			}

			slog.Info("affiliate updated", "action", use, "affiliate_id", args[0])
			return nil
		},
	}
}
