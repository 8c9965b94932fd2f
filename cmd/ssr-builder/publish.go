package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/analyzer"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/bundler"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/offload"
)

func newPublishCmd() *cobra.Command {
	var (
		dir    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the bundle output to S3-compatible storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			target := dir
			if target == "" {
				target = cfg.Outdir
			}
			target = cfg.Abs(target)

			var upl offload.Uploader
			if dryRun {
				upl = &offload.MockUploader{BaseURL: cfg.Storage.PublicURL}
			} else {
				minioUpl, err := offload.NewMinIOUploader(cfg.Storage)
				if err != nil {
					return err
				}
				upl = minioUpl
			}

			logger.Info("publishing", slog.String("dir", target), slog.Bool("dryRun", dryRun))
			analysis, err := analyzer.AnalyzeFile(filepath.Join(target, bundler.MetafileName))
			switch {
			case errors.Is(err, fs.ErrNotExist):
				logger.Warn("no metafile in publish directory", slog.String("dir", target))
			case err != nil:
				return fmt.Errorf("publish failed: %w", err)
			default:
				logger.Info("bundle contents",
					slog.Int("inputs", len(analysis.Inputs)),
					slog.Int("outputs", len(analysis.Outputs)),
					slog.Int("serverModules", len(analysis.ServerVariants)))
			}
			urls, err := offload.OffloadDir(cmd.Context(), upl, target, cfg.Storage.Prefix)
			if err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}

			local := make([]string, 0, len(urls))
			for p := range urls {
				local = append(local, p)
			}
			sort.Strings(local)
			for _, p := range local {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", p, urls[p])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory to upload (default the configured outdir)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the URLs without uploading")
	return cmd
}
