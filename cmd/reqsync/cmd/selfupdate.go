package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reqsync/internal/service/selfupdate"
)

// selfupdateCmd replaces the running binary with the published release.
var selfupdateCmd = &cobra.Command{
	Use:   "selfupdate",
	Short: "Update reqsync to the published release",
	Long: `Fetch the release description from the configured update folder, compare it
against the running build, and when the version or checksum differs download
the new binary and apply it over the current executable. The update folder
URL is taken from settings (see the publish command).`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &selfupdate.Options{
			ConfigPath: configPath,
		}

		return selfupdate.Run(ctx, options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(selfupdateCmd)
}
