package requirement

import (
	"errors"
	"fmt"
	"strings"
)

// pinSeparator splits a package name from its exact version in specs and
// manifest entries alike.
const pinSeparator = "=="

var (
	// ErrEmptyName is returned when a spec carries no package name.
	ErrEmptyName = errors.New("package name is empty")
	// ErrMalformedSpec is returned when a spec cannot be split into name and version.
	ErrMalformedSpec = errors.New("malformed package spec")
)

// Requirement identifies a package and, optionally, an exact version pin.
type Requirement struct {
	// Name is the package name as understood by pip.
	Name string
	// Version is the exact requested version; empty means unpinned.
	Version string
}

// Parse converts a command-line spec ("requests" or "requests==2.31.0") into a
// Requirement. Whitespace around the name and version is ignored. A trailing
// separator with nothing after it ("requests==") is treated as unpinned.
func Parse(spec string) (Requirement, error) {
	if !strings.Contains(spec, pinSeparator) {
		name := strings.TrimSpace(spec)
		if name == "" {
			return Requirement{}, fmt.Errorf("%q: %w", spec, ErrEmptyName)
		}

		return Requirement{Name: name}, nil
	}

	parts := strings.Split(spec, pinSeparator)
	if len(parts) != 2 {
		return Requirement{}, fmt.Errorf("%q: %w", spec, ErrMalformedSpec)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Requirement{}, fmt.Errorf("%q: %w", spec, ErrEmptyName)
	}

	return Requirement{
		Name:    name,
		Version: strings.TrimSpace(parts[1]),
	}, nil
}

// ParseEntry converts a manifest line into a Requirement. Unlike Parse, an
// entry must carry an exact pin: manifest lines are always "name==version".
func ParseEntry(line string) (Requirement, error) {
	r, err := Parse(line)
	if err != nil {
		return Requirement{}, err
	}

	if !r.IsPinned() {
		return Requirement{}, fmt.Errorf("%q: %w", line, ErrMalformedSpec)
	}

	return r, nil
}

// IsPinned reports whether the requirement carries an exact version.
func (r Requirement) IsPinned() bool {
	return r.Version != ""
}

// WithVersion returns a copy of the requirement pinned to the provided version.
func (r Requirement) WithVersion(version string) Requirement {
	r.Version = version

	return r
}

// Entry renders the manifest line for a pinned requirement.
func (r Requirement) Entry() string {
	return r.Name + pinSeparator + r.Version
}

// String renders the requirement the way pip expects it on the command line:
// the bare name when unpinned, name==version otherwise.
func (r Requirement) String() string {
	if !r.IsPinned() {
		return r.Name
	}

	return r.Entry()
}
