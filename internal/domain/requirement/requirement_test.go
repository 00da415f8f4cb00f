package requirement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse_Unpinned verifies bare names parse with trimming and no version.
func TestParse_Unpinned(t *testing.T) {
	t.Parallel()

	r, err := Parse("  requests ")
	require.NoError(t, err)
	require.Equal(t, "requests", r.Name)
	require.False(t, r.IsPinned())
	require.Equal(t, "requests", r.String())
}

// TestParse_Pinned verifies name==version specs parse with trimming on both sides.
func TestParse_Pinned(t *testing.T) {
	t.Parallel()

	r, err := Parse("numpy == 1.25.0 ")
	require.NoError(t, err)
	require.Equal(t, "numpy", r.Name)
	require.Equal(t, "1.25.0", r.Version)
	require.True(t, r.IsPinned())
	require.Equal(t, "numpy==1.25.0", r.Entry())
	require.Equal(t, "numpy==1.25.0", r.String())
}

// TestParse_TrailingSeparator checks that "name==" degrades to an unpinned requirement.
func TestParse_TrailingSeparator(t *testing.T) {
	t.Parallel()

	r, err := Parse("requests==")
	require.NoError(t, err)
	require.Equal(t, "requests", r.Name)
	require.False(t, r.IsPinned())
}

// TestParse_Invalid rejects empty names and specs with more than one separator.
func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Parse("")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = Parse("   ")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = Parse("==1.2.3")
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = Parse("a==b==c")
	require.ErrorIs(t, err, ErrMalformedSpec)
}

// TestParseEntry requires manifest lines to carry an exact pin.
func TestParseEntry(t *testing.T) {
	t.Parallel()

	r, err := ParseEntry("flask==3.0.2")
	require.NoError(t, err)
	require.Equal(t, "flask", r.Name)
	require.Equal(t, "3.0.2", r.Version)

	_, err = ParseEntry("flask")
	require.ErrorIs(t, err, ErrMalformedSpec)
}

// TestWithVersion pins a copy and leaves the receiver untouched.
func TestWithVersion(t *testing.T) {
	t.Parallel()

	base := Requirement{Name: "requests"}
	pinned := base.WithVersion("2.31.0")

	require.Equal(t, "requests==2.31.0", pinned.Entry())
	require.False(t, base.IsPinned())
}
