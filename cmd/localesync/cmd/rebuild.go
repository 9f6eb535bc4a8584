package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/localesync/pkg/rebuild"
)

var rebuildAsync bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [language]",
	Short: "Rebuild locale bundles from content rows",
	Long: `Aggregates content rows into one bundle per language. Without an
argument every configured language is rebuilt. With --async the rebuild is
queued for a running serve process instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildAsync, "async", false, "enqueue the rebuild as a background job")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	e, err := rt.engine(false)
	if err != nil {
		return err
	}
	defer e.Close()

	var lang string
	if len(args) == 1 {
		lang = args[0]
	}

	if rebuildAsync {
		q, err := rebuild.NewQueue(rt.pool, e.Rebuilder(), rebuild.WithQueueLogger(rt.log))
		if err != nil {
			return err
		}
		return q.Enqueue(ctx, lang)
	}

	var report rebuild.Report
	if lang != "" {
		res, err := e.Rebuild(ctx, lang)
		if err != nil {
			return err
		}
		report.Results = map[string]rebuild.Result{lang: res}
	} else {
		report = e.RebuildAll(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report.Results); err != nil {
		return err
	}
	return report.Err()
}
