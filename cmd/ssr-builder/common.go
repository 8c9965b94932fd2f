package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/config"
	ssrlog "github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/log"
)

// loadConfig reads --config, or the default config file in the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	cfg, err := config.LoadOrDefault(path, wd)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	logger, err := ssrlog.GetBaseLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
