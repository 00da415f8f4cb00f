// Package status reports how the installed packages compare to the manifest.
//
// It is read-only: for every pinned entry it looks up the installed version
// and classifies the entry as in sync, version mismatch, or not installed.
package status
