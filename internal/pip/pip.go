package pip

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/executor"

	"github.com/oshokin/reqsync/internal/logger"
)

var (
	// ErrPythonNotFound is returned when no Python interpreter is present on PATH.
	ErrPythonNotFound = errors.New("python interpreter not found on PATH")
	// ErrNoVersionLine is returned when `pip show` succeeds but its output
	// carries no Version line to parse.
	ErrNoVersionLine = errors.New("no Version line in pip show output")
)

const (
	// versionLinePrefix starts the line of `pip show` output we parse.
	versionLinePrefix = "Version:"

	// notInstalledExitCode is what pip show returns for an unknown package.
	notInstalledExitCode = 1

	// stderrTailLines bounds how much captured stderr is attached to errors.
	stderrTailLines = 5
)

// Runner abstracts pip so the sync and status services can be exercised
// against a fake in tests.
type Runner interface {
	// InstalledVersion reports the installed version of the named package.
	// The boolean is false when the package is not installed; that case is
	// not an error.
	InstalledVersion(ctx context.Context, name string) (string, bool, error)
	// Install runs `pip install <target>` where target is a bare name or a
	// name==version pin.
	Install(ctx context.Context, target string) error
}

// CommandRunner invokes `<python> -m pip ...` as blocking subprocesses.
type CommandRunner struct {
	// python is the interpreter executable, absolute or resolvable via PATH.
	python string
	// lookupTimeout bounds a single `pip show` invocation.
	lookupTimeout time.Duration
	// installTimeout bounds a single `pip install` invocation.
	installTimeout time.Duration
}

// NewCommandRunner builds a runner around the provided interpreter.
// Non-positive timeouts disable the corresponding deadline.
func NewCommandRunner(python string, lookupTimeout, installTimeout time.Duration) *CommandRunner {
	return &CommandRunner{
		python:         python,
		lookupTimeout:  lookupTimeout,
		installTimeout: installTimeout,
	}
}

// DetectPython resolves the interpreter to use when settings carry no
// explicit override: `python3` is preferred, `python` is the fallback.
func DetectPython() (string, error) {
	for _, candidate := range []string{"python3", "python"} {
		path, err := exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
	}

	return "", ErrPythonNotFound
}

// InstalledVersion runs `pip show <name>` silently and parses the Version line.
// Exit code 1 means the package is not installed.
func (r *CommandRunner) InstalledVersion(ctx context.Context, name string) (string, bool, error) {
	callCtx, cancel := r.callContext(ctx, r.lookupTimeout)
	defer cancel()

	logger.DebugKV(ctx, "Querying installed version", "package", name)

	result, err := executor.New(r.python, "-m", "pip", "show", name).
		Execute(callCtx, executor.SilentMode())
	if err != nil {
		if result != nil && result.ExitCode == notInstalledExitCode {
			return "", false, nil
		}

		return "", false, fmt.Errorf("pip show %s: %s: %w", name, stderrTail(result), err)
	}

	version, err := parseShowOutput(result.Stdout)
	if err != nil {
		return "", false, fmt.Errorf("pip show %s: %w", name, err)
	}

	return version, true, nil
}

// Install runs `pip install <target>`, streaming pip's output to the console
// while capturing it for error reporting.
func (r *CommandRunner) Install(ctx context.Context, target string) error {
	callCtx, cancel := r.callContext(ctx, r.installTimeout)
	defer cancel()

	logger.InfoKV(ctx, "Running pip install", "target", target)

	result, err := executor.New(r.python, "-m", "pip", "install", target).
		Execute(callCtx, executor.CaptureAll())
	if err != nil {
		return fmt.Errorf("pip install %s: %s: %w", target, stderrTail(result), err)
	}

	return nil
}

// callContext derives a deadline-bound context when a timeout is configured,
// otherwise a plain cancellable child.
func (r *CommandRunner) callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

// parseShowOutput extracts the version from `pip show` output.
// The output is "Name: ...\nVersion: ...\n..." key-value lines.
func parseShowOutput(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, versionLinePrefix) {
			continue
		}

		version := strings.TrimSpace(strings.TrimPrefix(line, versionLinePrefix))
		if version == "" {
			break
		}

		return version, nil
	}

	return "", ErrNoVersionLine
}

// stderrTail returns the last few captured stderr lines for error messages.
func stderrTail(result *executor.Result) string {
	if result == nil {
		return "<no output>"
	}

	lines := strings.Split(strings.TrimSpace(result.Stderr), "\n")
	if len(lines) > stderrTailLines {
		lines = lines[len(lines)-stderrTailLines:]
	}

	tail := strings.TrimSpace(strings.Join(lines, "\n"))
	if tail == "" {
		return "<no output>"
	}

	return tail
}
