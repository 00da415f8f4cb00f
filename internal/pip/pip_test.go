package pip

import (
	"context"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/executor"
	"github.com/stretchr/testify/require"
)

// TestParseShowOutput extracts the version from a realistic pip show dump.
func TestParseShowOutput(t *testing.T) {
	t.Parallel()

	output := "Name: requests\n" +
		"Version: 2.31.0\n" +
		"Summary: Python HTTP for Humans.\n" +
		"Location: /usr/lib/python3/dist-packages\n"

	version, err := parseShowOutput(output)
	require.NoError(t, err)
	require.Equal(t, "2.31.0", version)
}

// TestParseShowOutput_MissingVersion fails when no Version line is present.
func TestParseShowOutput_MissingVersion(t *testing.T) {
	t.Parallel()

	_, err := parseShowOutput("Name: requests\nSummary: whatever\n")
	require.ErrorIs(t, err, ErrNoVersionLine)

	_, err = parseShowOutput("Version:   \n")
	require.ErrorIs(t, err, ErrNoVersionLine)
}

// TestStderrTail keeps only the last lines of captured stderr.
func TestStderrTail(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<no output>", stderrTail(nil))
	require.Equal(t, "<no output>", stderrTail(&executor.Result{}))

	result := &executor.Result{
		Stderr: "one\ntwo\nthree\nfour\nfive\nsix\nseven\n",
	}
	require.Equal(t, "three\nfour\nfive\nsix\nseven", stderrTail(result))
}

// TestCommandRunner_callContext checks timeout vs cancel-only behavior.
func TestCommandRunner_callContext(t *testing.T) {
	t.Parallel()

	r := NewCommandRunner("python3", 0, 0)

	ctx, cancel := r.callContext(context.Background(), 0)
	defer cancel()

	_, hasDeadline := ctx.Deadline()
	require.False(t, hasDeadline)

	ctx, cancel = r.callContext(context.Background(), r.lookupTimeout+1)
	defer cancel()

	_, hasDeadline = ctx.Deadline()
	require.True(t, hasDeadline)
}
