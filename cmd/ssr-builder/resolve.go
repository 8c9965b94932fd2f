package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/config"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/noderesolve"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
)

func newResolveCmd() *cobra.Command {
	var (
		contextDir string
		platform   string
		aliases    []string
	)

	cmd := &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "Print the identifier a request is rewritten to by the server module override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("platform") {
				cfg.Platform = platform
			}
			extra, err := parseAliases(aliases)
			if err != nil {
				return err
			}
			// flag aliases take precedence over the config file
			cfg.Aliases = append(extra, cfg.Aliases...)

			platformTag, err := cfg.PlatformTag()
			if err != nil {
				return err
			}
			table, err := cfg.AliasTable()
			if err != nil {
				return err
			}

			dir := contextDir
			if dir == "" {
				if dir, err = os.Getwd(); err != nil {
					return err
				}
			}
			if dir, err = filepath.Abs(dir); err != nil {
				return err
			}

			resolver := override.New(platformTag, table, noderesolve.New(noderesolve.WithExtensions(cfg.Extensions...)))
			req, err := resolver.TryOverride(&override.Request{Identifier: args[0], ContextDir: dir})
			if err != nil {
				return err
			}
			logger.Debug("resolved", "identifier", args[0], "result", req.Identifier, "context", dir)

			fmt.Fprintln(cmd.OutOrStdout(), req.Identifier)
			return nil
		},
	}

	cmd.Flags().StringVar(&contextDir, "context", "", "directory the request is resolved from (default the working directory)")
	cmd.Flags().StringVar(&platform, "platform", "node", "target platform (node, browser, neutral)")
	cmd.Flags().StringArrayVar(&aliases, "alias", nil, "alias as prefix=replacement, matched in the order given")
	return cmd
}

func parseAliases(values []string) (config.Aliases, error) {
	out := make(config.Aliases, 0, len(values))
	for _, v := range values {
		prefix, replacement, ok := strings.Cut(v, "=")
		if !ok || prefix == "" {
			return nil, fmt.Errorf("%w: alias %q must be prefix=replacement", config.ErrInvalid, v)
		}
		out = append(out, override.Alias{Prefix: prefix, Replacement: replacement})
	}
	return out, nil
}
