package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/analyzer"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/bundler"
)

func newBuildCmd() *cobra.Command {
	var (
		platform string
		outdir   string
		minify   bool
	)

	cmd := &cobra.Command{
		Use:   "build [entry...]",
		Short: "Bundle the entry points",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				// Entry arguments are relative to the working directory, not the config file.
				entries := make([]string, 0, len(args))
				for _, arg := range args {
					abs, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("invalid entry point %q: %w", arg, err)
					}
					entries = append(entries, abs)
				}
				cfg.EntryPoints = entries
			}
			if cmd.Flags().Changed("platform") {
				cfg.Platform = platform
			}
			if cmd.Flags().Changed("outdir") {
				cfg.Outdir = outdir
			}
			if cmd.Flags().Changed("minify") {
				cfg.Minify = minify
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			platformTag, err := cfg.PlatformTag()
			if err != nil {
				return err
			}
			aliases, err := cfg.AliasTable()
			if err != nil {
				return err
			}

			res, err := bundler.Build(cmd.Context(), bundler.Options{
				EntryPoints: cfg.ResolvedEntryPoints(),
				Outdir:      cfg.Abs(cfg.Outdir),
				WorkingDir:  cfg.Dir,
				Platform:    platformTag,
				External:    cfg.External,
				Aliases:     aliases,
				Extensions:  cfg.Extensions,
				Minify:      cfg.Minify,
				Logger:      logger,
			})
			if err != nil {
				return fmt.Errorf("build failed: %w", err)
			}

			analysis, err := analyzer.Analyze(res.Metafile)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			imports := make([]string, 0, len(analysis.Overrides))
			for original := range analysis.Overrides {
				imports = append(imports, original)
			}
			sort.Strings(imports)
			for _, original := range imports {
				logger.Info("server module bundled", slog.String("import", original), slog.String("module", analysis.Overrides[original]))
			}

			out := cmd.OutOrStdout()
			for _, o := range analysis.Outputs {
				fmt.Fprintln(out, o)
			}
			fmt.Fprintf(out, "bundled %d inputs (%d server modules)\n", len(analysis.Inputs), len(analysis.ServerVariants))
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "node", "target platform (node, browser, neutral)")
	cmd.Flags().StringVarP(&outdir, "outdir", "o", "dist", "output directory")
	cmd.Flags().BoolVar(&minify, "minify", false, "minify the output")
	return cmd
}
