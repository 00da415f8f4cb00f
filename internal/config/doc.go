// Package config loads and persists reqsync settings.
//
// Settings live in a small YAML file (reqsync-settings.yaml by default) and
// cover the Python interpreter, the manifest path, pip timeouts, and the
// update folder used by selfupdate. Every field is optional: a missing
// settings file at the default path simply yields defaults, because the sync
// command has to work in any project directory without ceremony.
package config
