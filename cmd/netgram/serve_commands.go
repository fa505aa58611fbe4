package main

import (
	"fmt"

	"github.com/netgram/netgram/internal"
	"github.com/netgram/netgram/internal/database"
	"github.com/spf13/cobra"
)

func newServeCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newServeCommand(ctx, "serve", "Run the REST API and the Telegram bot", internal.ModeAll),
		newServeCommand(ctx, "api", "Run only the REST API", internal.ModeAPI),
		newServeCommand(ctx, "bot", "Run only the Telegram bot and ingestion workers", internal.ModeBot),
	}
}

func newServeCommand(ctx *commandContext, use string, short string, mode internal.Mode) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			return internal.New(*cfg, mode).Run(cmd.Context())
		},
	}
}

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(func(db database.Manager) error {
				version, err := db.MigrationVersion()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Database is at migration version %d\n", version)
				return nil
			})
		},
	}
}
