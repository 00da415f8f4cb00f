package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Repository defines persistence operations for the dependency manifest.
type Repository interface {
	Entries(ctx context.Context) ([]string, error)
	Append(ctx context.Context, entry string) error
}

// DefaultFilePermissions is used when the first append creates the manifest.
// The manifest is shared project state, so it stays world-readable.
const DefaultFilePermissions os.FileMode = 0o644

// errEmptyEntry is returned when an append is attempted with a blank entry.
var errEmptyEntry = errors.New("manifest entry is empty")

// FileRepository maintains the manifest as a plain text file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest file.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// NewFileRepository creates a repository over the manifest at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the cleaned manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Entries reads the manifest and returns its trimmed non-blank lines in file
// order. A missing file yields an empty manifest, not an error.
func (r *FileRepository) Entries(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	lines := strings.Split(string(contents), "\n")
	entries := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entries = append(entries, line)
	}

	return entries, nil
}

// Append adds an entry at the end of the manifest, creating the file when it
// does not exist yet. When the existing file does not end in a newline, one
// is supplied first so lines never merge.
func (r *FileRepository) Append(_ context.Context, entry string) error {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return errEmptyEntry
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	needsNewline, err := r.missingTrailingNewline()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}

	line := entry + "\n"
	if needsNewline {
		line = "\n" + line
	}

	if _, err = file.WriteString(line); err != nil {
		_ = file.Close()

		return fmt.Errorf("append manifest entry: %w", err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}

	return nil
}

// missingTrailingNewline reports whether a non-empty manifest file lacks a
// final newline and therefore needs one before the next entry.
func (r *FileRepository) missingTrailingNewline() (bool, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("open manifest: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat manifest: %w", err)
	}

	if info.Size() == 0 {
		return false, nil
	}

	lastByte := make([]byte, 1)
	if _, err = file.ReadAt(lastByte, info.Size()-1); err != nil {
		return false, fmt.Errorf("read manifest tail: %w", err)
	}

	return lastByte[0] != '\n', nil
}
