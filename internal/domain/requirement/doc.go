// Package requirement contains the core domain type for package pinning.
//
// A Requirement is a package name plus an optional exact version. It parses
// both command-line specs ("requests", "requests==2.31.0") and manifest
// entries, and renders itself back as a pip install target or a manifest line.
package requirement
