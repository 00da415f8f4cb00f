package status

import (
	"context"
	"fmt"

	"github.com/oshokin/reqsync/internal/config"
	"github.com/oshokin/reqsync/internal/domain/requirement"
	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/pip"
	"github.com/oshokin/reqsync/internal/repository/manifest"
)

// Options are inputs accepted by the status entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ManifestPath overrides the manifest location from settings.
	ManifestPath string
	// PythonExecutable overrides the interpreter from settings.
	PythonExecutable string
}

// Report aggregates the per-entry classification of one status run.
type Report struct {
	// InSync counts entries whose pinned version is installed.
	InSync int
	// Mismatched counts entries installed at a different version.
	Mismatched int
	// Missing counts entries not installed at all.
	Missing int
	// Skipped counts manifest lines that could not be parsed.
	Skipped int
}

// Run executes the status report and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "status")

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

	runner := pip.NewCommandRunner(python, cfg.LookupTimeout, cfg.InstallTimeout)
	repo := manifest.NewFileRepository(manifestPath)

	report, err := Collect(ctx, runner, repo)
	if err != nil {
		logger.ErrorKV(ctx, "Status failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Status report",
		"manifest", manifestPath,
		"in_sync", report.InSync,
		"mismatched", report.Mismatched,
		"missing", report.Missing,
		"skipped", report.Skipped)

	return nil
}

// Collect reads the manifest and classifies every entry against pip.
// Unparseable lines are reported and skipped; lookup failures are hard errors.
func Collect(ctx context.Context, pipRunner pip.Runner, repo manifest.Repository) (*Report, error) {
	entries, err := repo.Entries(ctx)
	if err != nil {
		return nil, err
	}

	report := new(Report)

	for _, entry := range entries {
		req, err := requirement.ParseEntry(entry)
		if err != nil {
			logger.WarnKV(ctx, "Skipping unparseable manifest line", "line", entry, "error", err)

			report.Skipped++

			continue
		}

		installed, found, err := pipRunner.InstalledVersion(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("look up %s: %w", req.Name, err)
		}

		switch {
		case !found:
			logger.InfoKV(ctx, "Package is not installed", "entry", entry)

			report.Missing++
		case installed != req.Version:
			logger.InfoKV(ctx, "Installed version differs from pin",
				"entry", entry, "installed", installed)

			report.Mismatched++
		default:
			logger.DebugKV(ctx, "Entry is in sync", "entry", entry)

			report.InSync++
		}
	}

	return report, nil
}
