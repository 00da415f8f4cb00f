// Package publish prepares release metadata for distribution.
//
// It hashes the built reqsync binary, writes the release description next to
// it, and persists the update folder URL into settings so selfupdate knows
// where to look.
package publish
