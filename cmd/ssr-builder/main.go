package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/config"
	ssrlog "github.com/AhmedElBanna80/Knative-open-nextjs/packages/ssr-builder/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// Run executes the CLI with the given arguments and output streams.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssr-builder",
		Short: "Bundle server-side rendered apps, swapping in .server modules for node builds",
		Long: `ssr-builder bundles JavaScript entry points with esbuild.

When the target platform is node, an import of "X.js" is bundled as
"X.server.js" (and an extensionless "X" as "X.server") whenever both the
module and its server variant exist.`,
		SilenceUsage: true,
	}
	ssrlog.RegisterLoggingFlags(cmd)
	cmd.PersistentFlags().StringP("config", "c", "", "path to the build config (default ./"+config.FileName+" if present)")

	cmd.AddCommand(
		newBuildCmd(),
		newResolveCmd(),
		newPublishCmd(),
	)
	return cmd
}
