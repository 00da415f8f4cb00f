package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reqsync/internal/service/publish"
)

// binaryPath is the built binary to publish; defaults to ./reqsync.
var binaryPath string

// publishCmd prepares release metadata for distribution.
var publishCmd = &cobra.Command{
	Use:   "publish <update-folder-url>",
	Short: "Prepare release metadata for distribution",
	Long: `Hash the built reqsync binary, write the release description next to it,
and persist the update folder URL into settings. Upload the listed files to
that folder afterwards; clients pick the release up with selfupdate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &publish.Options{
			ConfigPath:   configPath,
			UpdateFolder: args[0],
			BinaryPath:   binaryPath,
		}

		return publish.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	publishCmd.Flags().StringVarP(&binaryPath, "binary", "b", "", "path to the built binary to publish")

	rootCmd.AddCommand(publishCmd)
}
