package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reqsync/internal/service/status"
)

// statusCmd reports how installed packages compare to the manifest.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report installed versions against the manifest",
	Long: `Read the manifest and report, per pinned entry, whether the package is
installed at the pinned version, installed at a different version, or not
installed at all. Lines that are not exact name==version pins are reported
and skipped. The command is read-only.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &status.Options{
			ConfigPath:       configPath,
			ManifestPath:     manifestPath,
			PythonExecutable: pythonExecutable,
		}

		return status.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	statusCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to the dependency manifest")
	statusCmd.Flags().StringVarP(&pythonExecutable, "python", "p", "", "python interpreter to use")

	rootCmd.AddCommand(statusCmd)
}
