package publish

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/reqsync/internal/config"
	"github.com/oshokin/reqsync/internal/service/selfupdate"
)

// TestRun_WritesDescriptionAndSettings publishes a dummy binary and checks
// the release description and persisted settings.
func TestRun_WritesDescriptionAndSettings(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	binaryPath := filepath.Join(dir, "reqsync-built")
	binaryBody := []byte("pretend-this-is-a-binary")
	require.NoError(t, os.WriteFile(binaryPath, binaryBody, selfupdate.DefaultFileMode))

	cfgPath := filepath.Join(dir, "settings.yaml")
	folder := "http://updates.example.com/reqsync"

	err := Run(context.Background(), &Options{
		ConfigPath:   cfgPath,
		UpdateFolder: folder,
		BinaryPath:   binaryPath,
	})
	require.NoError(t, err)

	// The release description carries the binary checksum under its
	// distribution name.
	contents, err := os.ReadFile(selfupdate.VersionFilename)
	require.NoError(t, err)

	var desc selfupdate.Description
	require.NoError(t, yaml.Unmarshal(contents, &desc))
	require.NotEmpty(t, desc.VersionNumber)

	checksum := sha512.Sum512(binaryBody)
	require.Equal(t,
		base64.StdEncoding.EncodeToString(checksum[:]),
		desc.Files[selfupdate.ExecutableName()])

	// The update folder landed in settings.
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, folder, cfg.ServerUpdateFolder)
}

// TestRun_MissingBinary fails when there is nothing to hash.
func TestRun_MissingBinary(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := Run(context.Background(), &Options{
		ConfigPath:   filepath.Join(dir, "settings.yaml"),
		UpdateFolder: "http://updates.example.com/reqsync",
		BinaryPath:   filepath.Join(dir, "does-not-exist"),
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_RejectsMalformedFolder refuses to persist a bad update folder URL.
func TestRun_RejectsMalformedFolder(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	err := Run(context.Background(), &Options{
		ConfigPath:   filepath.Join(dir, "settings.yaml"),
		UpdateFolder: "not a url at all",
	})
	require.Error(t, err)
}
