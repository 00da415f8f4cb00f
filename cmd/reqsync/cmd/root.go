package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/service/sync"
	"github.com/oshokin/reqsync/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel is the minimum level for log output.
	logLevel string
	// manifestPath overrides the manifest location from settings.
	manifestPath string
	// pythonExecutable overrides the interpreter from settings.
	pythonExecutable string
	// dryRun logs decisions without installing or appending.
	dryRun bool

	// rootCmd represents the base command that synchronizes packages.
	rootCmd = &cobra.Command{
		Use:   "reqsync <package> [package...]",
		Short: "Synchronize installed package versions with requirements.txt",
		Long: `Synchronize installed Python package versions with a dependency manifest.

For each package (a bare name or an exact name==version pin) reqsync checks
whether the package is installed, whether the manifest already records it,
and whether versions match, then does the minimal corrective work: nothing,
append the entry, reinstall at the pinned version, or install from scratch.
The manifest is append-only; older pins stay in place as history.`,
		Args: cobra.MinimumNArgs(1),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &sync.Options{
				ConfigPath:       configPath,
				ManifestPath:     manifestPath,
				PythonExecutable: pythonExecutable,
				DryRun:           dryRun,
				Specs:            args,
			}

			return sync.Run(ctx, options)
		},
	}
)

// Execute runs the reqsync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "minimum log level (debug, info, warn, error)")

	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to the dependency manifest")
	rootCmd.Flags().StringVarP(&pythonExecutable, "python", "p", "", "python interpreter to use")
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "log decisions without installing or appending")
}
