// Package common holds helpers shared by several services.
//
// It provides the concurrent-run marker lock and utilities to detect the
// current system actor (hostname/username) for audit purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
