package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/localesync/pkg/publish"
)

var (
	exportDir     string
	exportPublish bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored bundles to files or object storage",
	Long: `Writes the stored bundle of every configured language as {lang}.json
into --dir. With --publish the bundles are also uploaded to the configured
S3 bucket.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory")
	exportCmd.Flags().BoolVar(&exportPublish, "publish", false, "upload bundles to PUBLISH_S3_BUCKET")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if exportDir == "" && !exportPublish {
		return fmt.Errorf("nothing to do: set --dir or --publish")
	}

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	var pub publish.Publisher
	if exportPublish {
		if pub, err = rt.publisher(); err != nil {
			return err
		}
		if pub == nil {
			return publish.ErrInvalidConfig
		}
	}
	if exportDir != "" {
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return err
		}
	}

	bundles, err := rt.store.Bundles(ctx, rt.cfg.Languages...)
	if err != nil {
		return err
	}
	for _, b := range bundles {
		if exportDir != "" {
			doc, err := b.Decode()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			name := filepath.Join(exportDir, b.Language+".json")
			if err := os.WriteFile(name, append(data, '\n'), 0o644); err != nil {
				return err
			}
			rt.log.InfoContext(ctx, "bundle exported", slog.String("language", b.Language), slog.String("file", name))
		}
		if pub != nil {
			if err := pub.Publish(ctx, b.Language, b.Document); err != nil {
				return err
			}
			rt.log.InfoContext(ctx, "bundle published", slog.String("language", b.Language))
		}
	}
	return nil
}
