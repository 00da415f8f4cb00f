//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/reqsync/internal/logger"
)

// MarkerFilename marks that a mutating reqsync command is running right now
// to avoid parallel execution against the same manifest.
const MarkerFilename = "reqsync-sync-marker.bin"

// markerFilePermissions restricts the marker to the owning user.
const markerFilePermissions os.FileMode = 0o600

// ErrAlreadyRunning is returned when the marker belongs to a live process.
var ErrAlreadyRunning = errors.New("another reqsync run is in progress")

// RunLock is a held concurrent-run guard. Release removes the marker file.
type RunLock struct {
	// path is the marker file location.
	path string
}

// AcquireRunLock writes a marker file carrying this process's PID into the
// provided directory. A marker left by a dead process is treated as stale,
// removed, and reacquired; a marker owned by a live process is an error.
func AcquireRunLock(ctx context.Context, dir string) (*RunLock, error) {
	path := filepath.Join(dir, MarkerFilename)

	if err := createMarker(path); err == nil {
		return &RunLock{path: path}, nil
	} else if !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	ownerPID, err := readMarkerPID(path)
	if err != nil {
		return nil, err
	}

	alive, err := isProcessAlive(ownerPID)
	if err != nil {
		return nil, fmt.Errorf("check marker owner: %w", err)
	}

	if alive {
		return nil, fmt.Errorf("marker %s held by PID %d: %w", path, ownerPID, ErrAlreadyRunning)
	}

	logger.InfoKV(ctx, "Removing stale run marker", "path", path, "owner_pid", ownerPID)

	if err = os.Remove(path); err != nil {
		return nil, fmt.Errorf("remove stale run marker: %w", err)
	}

	if err = createMarker(path); err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	return &RunLock{path: path}, nil
}

// Release removes the marker file. Safe to call on a nil lock.
func (l *RunLock) Release() error {
	if l == nil {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove run marker: %w", err)
	}

	return nil
}

// createMarker writes this process's PID into a fresh marker file.
// Creation is exclusive so two racing processes cannot both win.
func createMarker(path string) error {
	file, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_EXCL, markerFilePermissions)
	if err != nil {
		return err
	}

	if _, err = file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// readMarkerPID parses the owner PID out of an existing marker file.
func readMarkerPID(path string) (int, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return 0, fmt.Errorf("read run marker: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return 0, fmt.Errorf("parse run marker PID: %w", err)
	}

	return pid, nil
}

// isProcessAlive reports whether a process with the given PID exists.
func isProcessAlive(pid int) (bool, error) {
	if pid <= 0 {
		return false, nil
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}
