package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/reqsync/internal/config"
	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/service/selfupdate"
)

// Options contains inputs for the publish entry point.
type Options struct {
	// ConfigPath is an optional path to persist settings (defaults to the
	// standard settings filename).
	ConfigPath string
	// UpdateFolder is the URL where release artifacts will be uploaded.
	UpdateFolder string
	// BinaryPath is the built binary to hash; defaults to the platform
	// binary name in the current directory.
	BinaryPath string
}

// publisher prepares the release description for distribution.
// It is unexported, callers should use Run.
type publisher struct {
	// cfg holds the settings carrying the update folder.
	cfg *config.Config
	// cfgFilename is the path where settings are saved.
	cfgFilename string
	// binaryPath is the artifact being published.
	binaryPath string
	// desc is the release description under construction.
	desc *selfupdate.Description
}

// Run executes the publishing workflow.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "publish")

	pub, err := newPublisher(opts)
	if err != nil {
		return fmt.Errorf("initialize publisher: %w", err)
	}

	if err = pub.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Publish failed", "error", err)
		return err
	}

	logger.Info(ctx, "Publish completed")

	return nil
}

// newPublisher loads existing settings, persists the update folder into them,
// and prepares a fresh release description.
func newPublisher(opts *Options) (*publisher, error) {
	// Publishing is allowed to create the settings file from scratch.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load configuration: %w", err)
		}

		cfg = config.Default()
	}

	cfg.ServerUpdateFolder = strings.TrimSpace(opts.UpdateFolder)
	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if err = config.Save(opts.ConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		binaryPath = selfupdate.ExecutableName()
	}

	return &publisher{
		cfg:         cfg,
		cfgFilename: opts.ConfigPath,
		binaryPath:  binaryPath,
		desc:        selfupdate.NewDescription(),
	}, nil
}

// run populates and writes the release description to disk.
func (p *publisher) run(ctx context.Context) error {
	logger.Info(ctx, "Preparing release description")

	if err := p.fillDescription(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving release description", "path", selfupdate.VersionFilename)

	if err := p.saveDescription(); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// fillDescription records the binary's checksum under its release name.
func (p *publisher) fillDescription() error {
	if _, err := os.Stat(p.binaryPath); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", p.binaryPath, os.ErrNotExist)
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", p.binaryPath, err)
	}

	checksum, err := selfupdate.GetFileChecksum(p.binaryPath)
	if err != nil {
		return err
	}

	p.desc.Files[selfupdate.ExecutableName()] = base64.StdEncoding.EncodeToString(checksum)

	return nil
}

// saveDescription writes the release description to the standard filename.
func (p *publisher) saveDescription() error {
	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return err
	}

	return os.WriteFile(selfupdate.VersionFilename, contents, selfupdate.DefaultFileMode)
}

// printNextSteps logs human-readable guidance for distributing the release.
func (p *publisher) printNextSteps(ctx context.Context) {
	files := make([]string, 0, len(p.desc.Files)+1)
	for fileName := range p.desc.Files {
		files = append(files, fileName)
	}

	files = append(files, selfupdate.VersionFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to the folder ")
	builder.WriteString(p.cfg.ServerUpdateFolder)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))
	builder.WriteString("\n\nClients pick the release up with: reqsync selfupdate")

	logger.Info(ctx, builder.String())
}
