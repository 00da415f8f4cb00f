package selfupdate

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/reqsync/internal/config"
	"github.com/oshokin/reqsync/internal/logger"
	"github.com/oshokin/reqsync/internal/service/common"
	"github.com/oshokin/reqsync/internal/version"
)

var (
	errNoUpdateFolder   = errors.New("update folder is not configured")
	errEmptyDescription = errors.New("release description is empty")
	errNoChecksum       = errors.New("checksum missing for file")
	errBadHTTPStatus    = errors.New("unexpected http status")
)

// Options are inputs accepted by the selfupdate entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// TargetPath overrides the binary to replace; defaults to the running
	// executable. Tests point it at a scratch file.
	TargetPath string
	// CurrentVersion overrides the version treated as locally installed;
	// defaults to the build's own version.
	CurrentVersion string
}

// runner holds the mutable state for a single selfupdate execution.
// It is intentionally unexported, call Run(ctx, opts) from callers.
type runner struct {
	cfg                *config.Config
	description        *Description
	targetPath         string
	localVersion       string
	temporaryDirectory string
}

// Run executes the selfupdate lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "selfupdate")

	up, err := newRunner(opts)
	if err != nil {
		return err
	}

	lock, err := common.AcquireRunLock(ctx, filepath.Dir(up.cfg.ManifestPath))
	if err != nil {
		return err
	}

	defer func() {
		_ = lock.Release()
	}()

	defer up.cleanup(ctx)

	if err = up.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Selfupdate failed", "error", err)
		return err
	}

	logger.Info(ctx, "Selfupdate completed")

	return nil
}

// newRunner loads settings and resolves the binary to replace.
func newRunner(opts *Options) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if cfg.ServerUpdateFolder == "" {
		return nil, errNoUpdateFolder
	}

	targetPath := opts.TargetPath
	if targetPath == "" {
		if targetPath, err = os.Executable(); err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
	}

	localVersion := opts.CurrentVersion
	if localVersion == "" {
		localVersion = version.Short()
	}

	return &runner{
		cfg:          cfg,
		targetPath:   targetPath,
		localVersion: localVersion,
	}, nil
}

// run executes the workflow:
// 1) Fetch the release description.
// 2) Compare versions and the binary checksum.
// 3) Download and apply the new binary if either differs.
func (u *runner) run(ctx context.Context) error {
	logger.Info(ctx, "Downloading the release description from the update folder")

	if err := u.fillDescription(ctx); err != nil {
		return fmt.Errorf("download release description: %w", err)
	}

	updateNeeded, err := u.determineUpdateNeeded(ctx)
	if err != nil {
		return err
	}

	if !updateNeeded {
		logger.Info(ctx, "No update required, version and binary are current")
		return nil
	}

	logger.Info(ctx, "Downloading the new binary to a temporary folder")

	downloadedPath, err := u.downloadExecutable(ctx)
	if err != nil {
		return fmt.Errorf("download binary: %w", err)
	}

	logger.InfoKV(ctx, "Applying update", "target", u.targetPath)

	if err = u.applyUpdate(downloadedPath); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	return nil
}

// determineUpdateNeeded compares the running version against the release and,
// when they match, still verifies the binary checksum for integrity.
func (u *runner) determineUpdateNeeded(ctx context.Context) (bool, error) {
	remoteVersion := u.description.VersionNumber
	if u.localVersion != remoteVersion {
		logger.InfoKV(ctx, "Version mismatch detected",
			"local", u.localVersion, "remote", remoteVersion)

		return true, nil
	}

	logger.InfoKV(ctx, "Versions match, checking binary integrity", "version", u.localVersion)

	remoteChecksum, err := u.releaseChecksum()
	if err != nil {
		return false, err
	}

	localChecksum, err := u.targetChecksum()
	if err != nil {
		return false, err
	}

	if !bytes.Equal(remoteChecksum, localChecksum) {
		logger.Info(ctx, "Binary checksum differs from the release")
		return true, nil
	}

	return false, nil
}

// fillDescription downloads and parses the remote release manifest.
func (u *runner) fillDescription(ctx context.Context) error {
	response, err := u.getFileBodyFromServer(ctx, VersionFilename)
	if response != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}

	if err != nil {
		return err
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	var desc Description
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return err
	}

	if desc.VersionNumber == "" || len(desc.Files) == 0 {
		return errEmptyDescription
	}

	u.description = &desc

	return nil
}

// getFileBodyFromServer fetches a file from the update folder.
func (u *runner) getFileBodyFromServer(ctx context.Context, fileName string) (*http.Response, error) {
	serverUpdateURL, err := url.Parse(u.cfg.ServerUpdateFolder)
	if err != nil {
		return nil, err
	}

	// Use path.Join to normalize duplicate slashes when composing the URL path.
	serverUpdateURL.Path = path.Join(serverUpdateURL.Path, fileName)
	finalURL := serverUpdateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return response, err
	}

	if response.StatusCode != http.StatusOK {
		return response, fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	return response, nil
}

// releaseChecksum decodes the published checksum of the release binary.
func (u *runner) releaseChecksum() ([]byte, error) {
	encoded, ok := u.description.Files[ExecutableName()]
	if !ok {
		return nil, fmt.Errorf("checksum for %s: %w", ExecutableName(), errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	return checksum, nil
}

// targetChecksum hashes the binary currently on disk.
// A missing target yields a nil checksum, which never matches the release.
func (u *runner) targetChecksum() ([]byte, error) {
	if _, err := os.Stat(u.targetPath); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	return GetFileChecksum(u.targetPath)
}

// downloadExecutable fetches the release binary into a temporary directory.
func (u *runner) downloadExecutable(ctx context.Context) (string, error) {
	temporaryDirectory, err := os.MkdirTemp("", "reqsync-selfupdate-")
	if err != nil {
		return "", err
	}

	u.temporaryDirectory = temporaryDirectory

	response, err := u.getFileBodyFromServer(ctx, ExecutableName())
	if err != nil {
		if response != nil {
			_ = response.Body.Close()
		}

		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	outputFileName := filepath.Clean(filepath.Join(temporaryDirectory, ExecutableName()))

	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = outputFile.Close()

		return "", err
	}

	if err = outputFile.Close(); err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Downloaded binary", "path", outputFileName)

	return outputFileName, nil
}

// applyUpdate validates the downloaded binary's checksum and swaps it in
// place of the target, then drops the leftover .old file.
func (u *runner) applyUpdate(downloadedPath string) error {
	data, err := os.ReadFile(filepath.Clean(downloadedPath))
	if err != nil {
		return err
	}

	checksum, err := u.releaseChecksum()
	if err != nil {
		return err
	}

	if _, err = os.Stat(u.targetPath); err != nil && os.IsNotExist(err) {
		if _, err = os.Create(u.targetPath); err != nil {
			return err
		}
	}

	options := goupdate.Options{
		TargetPath: u.targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return err
	}

	oldFileName := u.targetPath + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// cleanup removes the temporary download directory.
func (u *runner) cleanup(ctx context.Context) {
	if u.temporaryDirectory != "" {
		if _, err := os.Stat(u.temporaryDirectory); err == nil {
			_ = os.RemoveAll(u.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The selfupdate run has finished")
}
