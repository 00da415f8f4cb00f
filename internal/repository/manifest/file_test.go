package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestEntries_MissingFile treats an absent manifest as empty.
func TestEntries_MissingFile(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "requirements.txt"))

	entries, err := repo.Entries(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestEntries_SkipsBlankLines trims entries and drops blank lines.
func TestEntries_SkipsBlankLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("requests==2.31.0\n\n  numpy==1.25.0  \n\n"), DefaultFilePermissions))

	repo := NewFileRepository(path)

	entries, err := repo.Entries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"requests==2.31.0", "numpy==1.25.0"}, entries)
}

// TestAppend_CreatesFile verifies the first append creates the manifest.
func TestAppend_CreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	repo := NewFileRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "flask==3.0.2"))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "flask==3.0.2\n", string(contents))
}

// TestAppend_PreservesOrder confirms appends land at the end, in call order.
func TestAppend_PreservesOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	repo := NewFileRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "a==1.0.0"))
	require.NoError(t, repo.Append(ctx, "b==2.0.0"))
	require.NoError(t, repo.Append(ctx, "a==1.1.0"))

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a==1.0.0", "b==2.0.0", "a==1.1.0"}, entries)
}

// TestAppend_RepairsMissingNewline supplies a newline before appending to a
// file whose last line is unterminated.
func TestAppend_RepairsMissingNewline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("requests==2.31.0"), DefaultFilePermissions))

	repo := NewFileRepository(path)
	require.NoError(t, repo.Append(context.Background(), "numpy==1.25.0"))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "requests==2.31.0\nnumpy==1.25.0\n", string(contents))
}

// TestAppend_RejectsEmptyEntry rejects blank entries outright.
func TestAppend_RejectsEmptyEntry(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "requirements.txt"))
	require.Error(t, repo.Append(context.Background(), "   "))
}

// TestEntries_SeesExternalAppend confirms a reload picks up lines written by
// another process.
func TestEntries_SeesExternalAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "requirements.txt")
	repo := NewFileRepository(path)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "a==1.0.0"))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, DefaultFilePermissions)
	require.NoError(t, err)
	_, err = file.WriteString("b==2.0.0\n")
	require.NoError(t, err)
	require.NoError(t, file.Close())

	entries, err := repo.Entries(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a==1.0.0", "b==2.0.0"}, entries)
}
