package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/reqsync/internal/domain/requirement"
	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/pip"
	"github.com/oshokin/reqsync/internal/repository/manifest"
)

// ErrMissingAfterInstall is returned when a package cannot be found right
// after pip reported a successful install of it.
var ErrMissingAfterInstall = errors.New("package missing after install")

// Case numbers of the dispatch table, used in log output.
const (
	caseAlreadyRecorded  = 1
	caseAppendOnly       = 2
	caseReinstallAppend  = 3
	caseInstallAndAppend = 4
)

// Service performs the per-package reconciliation.
type Service struct {
	// pip runs the installer subprocesses.
	pip pip.Runner
	// manifest persists appended entries.
	manifest manifest.Repository
	// dryRun logs every decision but performs no install or append.
	dryRun bool

	// present tracks manifest membership for the duration of one run so the
	// same entry is never appended twice.
	present map[string]struct{}
}

// NewService wires the reconciliation over a pip runner and a manifest.
func NewService(pipRunner pip.Runner, repo manifest.Repository, dryRun bool) *Service {
	return &Service{
		pip:      pipRunner,
		manifest: repo,
		dryRun:   dryRun,
	}
}

// Run synchronizes every spec in argument order. The first failure stops the
// run; entries appended before it remain in the manifest.
func (s *Service) Run(ctx context.Context, specs []string) error {
	entries, err := s.manifest.Entries(ctx)
	if err != nil {
		return err
	}

	s.present = make(map[string]struct{}, len(entries)+len(specs))
	for _, entry := range entries {
		s.present[entry] = struct{}{}
	}

	for _, spec := range specs {
		req, err := requirement.Parse(spec)
		if err != nil {
			return fmt.Errorf("parse spec: %w", err)
		}

		if err = s.syncOne(ctx, req); err != nil {
			return fmt.Errorf("sync %s: %w", req.Name, err)
		}
	}

	return nil
}

// syncOne reconciles a single requirement against pip and the manifest.
func (s *Service) syncOne(ctx context.Context, req requirement.Requirement) error {
	installed, found, err := s.pip.InstalledVersion(ctx, req.Name)
	if err != nil {
		return err
	}

	switch {
	case !found:
		return s.installAndRecord(ctx, req)
	case req.IsPinned():
		return s.syncPinned(ctx, req, installed)
	default:
		return s.recordInstalled(ctx, req.WithVersion(installed))
	}
}

// syncPinned handles an installed package with an exact version request.
// An entry already in the manifest wins outright, even when the installed
// version differs from the pin.
func (s *Service) syncPinned(ctx context.Context, req requirement.Requirement, installed string) error {
	if s.inManifest(req.Entry()) {
		logger.InfoKV(ctx, "Manifest already pins requested version, nothing to do",
			"case", caseAlreadyRecorded, "entry", req.Entry(), "installed", installed)

		return nil
	}

	if installed == req.Version {
		return s.appendEntry(ctx, caseAppendOnly, req)
	}

	logger.InfoKV(ctx, "Installed version differs from request, reinstalling",
		"case", caseReinstallAppend, "package", req.Name,
		"installed", installed, "requested", req.Version)

	if err := s.install(ctx, req.String()); err != nil {
		return err
	}

	// Older pins of the same package stay in the manifest as history.
	return s.appendEntry(ctx, caseReinstallAppend, req)
}

// recordInstalled handles an installed package with no version request: the
// installed version becomes the entry.
func (s *Service) recordInstalled(ctx context.Context, req requirement.Requirement) error {
	if s.inManifest(req.Entry()) {
		logger.InfoKV(ctx, "Installed version already recorded, nothing to do",
			"case", caseAlreadyRecorded, "entry", req.Entry())

		return nil
	}

	return s.appendEntry(ctx, caseAppendOnly, req)
}

// installAndRecord handles a package that is not installed at all: install it
// (pinned or latest), then record what actually landed.
func (s *Service) installAndRecord(ctx context.Context, req requirement.Requirement) error {
	logger.InfoKV(ctx, "Package is not installed, installing",
		"case", caseInstallAndAppend, "target", req.String())

	if s.dryRun {
		logger.InfoKV(ctx, "Dry run: skipping install and manifest append", "target", req.String())
		return nil
	}

	if err := s.pip.Install(ctx, req.String()); err != nil {
		return err
	}

	installed, found, err := s.pip.InstalledVersion(ctx, req.Name)
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%s: %w", req.Name, ErrMissingAfterInstall)
	}

	entry := req.WithVersion(installed)
	if s.inManifest(entry.Entry()) {
		logger.InfoKV(ctx, "Installed version already recorded",
			"case", caseInstallAndAppend, "entry", entry.Entry())

		return nil
	}

	return s.appendEntry(ctx, caseInstallAndAppend, entry)
}

// install runs pip install unless this is a dry run.
func (s *Service) install(ctx context.Context, target string) error {
	if s.dryRun {
		logger.InfoKV(ctx, "Dry run: skipping install", "target", target)
		return nil
	}

	return s.pip.Install(ctx, target)
}

// appendEntry writes the entry to the manifest and records its membership.
func (s *Service) appendEntry(ctx context.Context, dispatchCase int, req requirement.Requirement) error {
	if s.dryRun {
		logger.InfoKV(ctx, "Dry run: skipping manifest append",
			"case", dispatchCase, "entry", req.Entry())

		return nil
	}

	logger.InfoKV(ctx, "Appending manifest entry", "case", dispatchCase, "entry", req.Entry())

	if err := s.manifest.Append(ctx, req.Entry()); err != nil {
		return err
	}

	s.present[req.Entry()] = struct{}{}

	return nil
}

// inManifest reports whether the exact entry line is already present.
func (s *Service) inManifest(entry string) bool {
	_, ok := s.present[entry]

	return ok
}
