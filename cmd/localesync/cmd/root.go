package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "localesync",
	Short: "Database-backed website translations with live updates",
	Long: `localesync stores website text as individual content rows, rebuilds
per-language bundles from them and serves those bundles to running
processes without a restart.

Configuration is read from the environment (DATABASE_CONN_URL, REDIS_URL,
LOCALESYNC_* and PUBLISH_S3_* variables).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. The context is cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		return err
	}
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
