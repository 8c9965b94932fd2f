package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/noderesolve"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/override"
	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/plugins"
)

// MetafileName is written next to the bundle outputs.
const MetafileName = "meta.json"

// Options configures one bundling pass.
type Options struct {
	EntryPoints []string
	Outdir      string
	// WorkingDir anchors relative entry points; defaults to the current directory.
	WorkingDir string
	Platform   override.Platform
	External   []string
	Aliases    override.AliasTable
	// Extensions are tried by the existence checks of the server module override.
	Extensions []string
	Minify     bool
	Logger     *slog.Logger
}

// Result describes what a build produced.
type Result struct {
	Outputs      []string
	Metafile     []byte
	MetafilePath string
	Warnings     []string
}

// Build bundles the entry points with esbuild, with the server module
// override and alias plugins in front of esbuild's own resolver.
func Build(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(opts.EntryPoints) == 0 {
		return nil, errors.New("no entry points to build")
	}
	if opts.Outdir == "" {
		return nil, errors.New("output directory is required")
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workingDir = wd
	}
	workingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	outdir := opts.Outdir
	if !filepath.IsAbs(outdir) {
		outdir = filepath.Join(workingDir, outdir)
	}

	if err := os.MkdirAll(outdir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	resolver := override.New(opts.Platform, opts.Aliases, noderesolve.New(noderesolve.WithExtensions(opts.Extensions...)))

	platform, format := esbuildPlatform(opts.Platform)
	buildOpts := api.BuildOptions{
		EntryPoints:       opts.EntryPoints,
		AbsWorkingDir:     workingDir,
		Outdir:            outdir,
		Bundle:            true,
		Write:             true,
		Metafile:          true,
		Platform:          platform,
		Format:            format,
		External:          opts.External,
		MinifySyntax:      opts.Minify,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		LogLevel:          api.LogLevelSilent,
		Plugins: []api.Plugin{
			plugins.ServerModuleOverride(resolver, logger),
			plugins.Alias(opts.Aliases),
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("bundling",
		slog.Any("entryPoints", opts.EntryPoints),
		slog.String("outdir", outdir),
		slog.String("platform", string(opts.Platform)))

	buildCtx, ctxErr := api.Context(buildOpts)
	if ctxErr != nil {
		return nil, fmt.Errorf("invalid build options: %w", messagesError(ctxErr.Errors))
	}
	defer buildCtx.Dispose()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			buildCtx.Cancel()
		case <-done:
		}
	}()
	result := buildCtx.Rebuild()
	close(done)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("esbuild failed: %w", messagesError(result.Errors))
	}

	res := &Result{
		Metafile:     []byte(result.Metafile),
		MetafilePath: filepath.Join(outdir, MetafileName),
		Warnings:     formatMessages(result.Warnings, api.WarningMessage),
	}
	for _, f := range result.OutputFiles {
		res.Outputs = append(res.Outputs, f.Path)
	}
	if err := os.WriteFile(res.MetafilePath, res.Metafile, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", MetafileName, err)
	}

	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	logger.Info("bundle written", slog.Int("outputs", len(res.Outputs)))
	return res, nil
}

func esbuildPlatform(p override.Platform) (api.Platform, api.Format) {
	switch p {
	case override.PlatformNode:
		return api.PlatformNode, api.FormatCommonJS
	case override.PlatformNeutral:
		return api.PlatformNeutral, api.FormatESModule
	default:
		return api.PlatformBrowser, api.FormatESModule
	}
}

func messagesError(msgs []api.Message) error {
	return errors.New(strings.Join(formatMessages(msgs, api.ErrorMessage), "\n"))
}

func formatMessages(msgs []api.Message, kind api.MessageKind) []string {
	if len(msgs) == 0 {
		return nil
	}
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind})
	for i := range formatted {
		formatted[i] = strings.TrimSpace(formatted[i])
	}
	return formatted
}
