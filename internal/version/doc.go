// Package version exposes build metadata for reqsync.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds.
// Helper functions Short and Full render the version string for CLI output and
// logs; Short is also the local side of the selfupdate version comparison.
package version
