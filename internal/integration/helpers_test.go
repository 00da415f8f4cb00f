package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePythonScript emulates `python -m pip show|install` over a state
// directory: installed packages are files named after the package whose
// contents are the version, installs are logged to install.log.
const fakePythonScript = `#!/bin/sh
state="%STATE%"
case "$3" in
show)
  name="$4"
  if [ -f "$state/installed/$name" ]; then
    echo "Name: $name"
    echo "Version: $(cat "$state/installed/$name")"
    exit 0
  fi
  echo "WARNING: Package(s) not found: $name" >&2
  exit 1
  ;;
install)
  target="$4"
  echo "$target" >> "$state/install.log"
  name="${target%%==*}"
  if [ "$name" = "$target" ]; then
    version="7.7.7"
  else
    version="${target#*==}"
  fi
  mkdir -p "$state/installed"
  printf '%s' "$version" > "$state/installed/$name"
  exit 0
  ;;
esac
exit 2
`

// writeFakePython drops the fake interpreter into its own directory and
// returns the script path. Tests that shell out are POSIX-only.
func writeFakePython(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake python interpreter requires a POSIX shell")
	}

	stateDir := t.TempDir()
	script := strings.ReplaceAll(fakePythonScript, "%STATE%", stateDir)

	path := filepath.Join(stateDir, "python")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	return path
}

// seedInstalled marks a package as installed at the given version for the
// fake interpreter living at scriptPath.
func seedInstalled(t *testing.T, scriptPath, name, version string) {
	t.Helper()

	installedDir := filepath.Join(filepath.Dir(scriptPath), "installed")
	require.NoError(t, os.MkdirAll(installedDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(installedDir, name), []byte(version), 0o644))
}

// installLog returns the targets the fake interpreter installed, in order.
func installLog(t *testing.T, scriptPath string) []string {
	t.Helper()

	contents, err := os.ReadFile(filepath.Join(filepath.Dir(scriptPath), "install.log"))
	if os.IsNotExist(err) {
		return nil
	}

	require.NoError(t, err)

	var targets []string

	for _, line := range strings.Split(string(contents), "\n") {
		if line != "" {
			targets = append(targets, line)
		}
	}

	return targets
}
