package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/localesync/pkg/db"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Creates the content and bundle tables with their change notification
triggers, then applies the background job queue schema.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := db.Migrate(ctx, rt.pool, rt.cfg.DB.MigrationsTable, rt.log); err != nil {
		return err
	}
	if err := rebuild.MigrateRiver(ctx, rt.pool, rt.log); err != nil {
		return err
	}
	rt.log.InfoContext(ctx, "migrations applied")
	return nil
}
