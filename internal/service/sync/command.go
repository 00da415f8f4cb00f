package sync

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/reqsync/internal/config"
	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/pip"
	"github.com/oshokin/reqsync/internal/repository/manifest"
	"github.com/oshokin/reqsync/internal/service/common"
)

// Options are inputs accepted by the sync entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ManifestPath overrides the manifest location from settings.
	ManifestPath string
	// PythonExecutable overrides the interpreter from settings.
	PythonExecutable string
	// DryRun logs every decision but performs no install or append.
	DryRun bool
	// Specs are the package specs in command-line order.
	Specs []string
}

// Run executes the sync lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sync")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	manifestPath := cfg.ManifestPath
	if opts.ManifestPath != "" {
		manifestPath = opts.ManifestPath
	}

	python := cfg.PythonExecutable
	if opts.PythonExecutable != "" {
		python = opts.PythonExecutable
	}

	if python == "" {
		if python, err = pip.DetectPython(); err != nil {
			return err
		}
	}

	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	logger.InfoKV(ctx, "Synchronizing packages with manifest",
		"actor", actor.String(), "manifest", manifestPath,
		"python", python, "packages", len(opts.Specs), "dry_run", opts.DryRun)

	// A dry run touches nothing on disk, so it needs no guard against
	// concurrent runs either.
	if !opts.DryRun {
		var lock *common.RunLock

		lock, err = common.AcquireRunLock(ctx, filepath.Dir(manifestPath))
		if err != nil {
			return err
		}

		defer func() {
			_ = lock.Release()
		}()
	}

	runner := pip.NewCommandRunner(python, cfg.LookupTimeout, cfg.InstallTimeout)
	service := NewService(runner, manifest.NewFileRepository(manifestPath), opts.DryRun)

	if err = service.Run(ctx, opts.Specs); err != nil {
		logger.ErrorKV(ctx, "Sync failed", "error", err)
		return err
	}

	logger.Info(ctx, "Sync completed")

	return nil
}
