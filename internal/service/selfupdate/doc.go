// Package selfupdate replaces the running reqsync binary with the published
// release.
//
// It fetches the release manifest from the configured update folder, compares
// versions and checksums, downloads the new binary to a temporary directory,
// and applies it atomically over the current executable.
package selfupdate
