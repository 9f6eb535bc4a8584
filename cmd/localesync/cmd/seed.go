package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/store"
)

var (
	seedDir     string
	seedRebuild bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import compiled defaults as content rows",
	Long: `Flattens every {lang}.json or {lang}.yaml document in the defaults
directory into content rows and upserts them in one transaction. Existing
rows with the same page, section and language are overwritten.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDir, "dir", "", "defaults directory (default: LOCALESYNC_DEFAULTS_DIR)")
	seedCmd.Flags().BoolVar(&seedRebuild, "rebuild", true, "rebuild bundles after seeding")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	defaults := rt.defaults
	if seedDir != "" {
		if defaults, err = loadDefaults(seedDir); err != nil {
			return err
		}
	}
	if len(defaults) == 0 {
		return errors.New("no defaults to seed: set --dir or LOCALESYNC_DEFAULTS_DIR")
	}

	rows, skipped := seedRows(defaults, rt.cfg.Languages)
	for _, path := range skipped {
		rt.log.WarnContext(ctx, "skipping top-level leaf without section", slog.String("path", path))
	}
	if err := rt.store.Import(ctx, rows); err != nil {
		return fmt.Errorf("import rows: %w", err)
	}
	rt.log.InfoContext(ctx, "content seeded", slog.Int("rows", len(rows)))

	if !seedRebuild {
		return nil
	}
	e, err := rt.engine(false)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.RebuildAll(ctx).Err()
}

// seedRows flattens the defaults of supported languages into rows. Leaves
// directly under the root have no section and are returned as skipped, as
// are leaves that do not form a valid row.
func seedRows(defaults locale.Defaults, languages []string) (rows []store.Row, skipped []string) {
	for _, lang := range slices.Sorted(slices.Values(defaults.Languages())) {
		if !slices.Contains(languages, lang) {
			continue
		}
		for _, e := range pathcodec.Flatten(defaults[lang]) {
			if e.Section == "" {
				skipped = append(skipped, lang+":"+e.Page)
				continue
			}
			row, err := store.NewRow(e.Page, e.Section, lang, e.Value)
			if err != nil {
				skipped = append(skipped, lang+":"+e.Path())
				continue
			}
			rows = append(rows, row)
		}
	}
	return rows, skipped
}
