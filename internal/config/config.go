package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the reqsync commands.
type Config struct {
	// PythonExecutable is the interpreter whose pip is queried and invoked.
	// When empty, the interpreter is auto-detected from PATH.
	PythonExecutable string `yaml:"python"`
	// ManifestPath is the dependency manifest file appended to by sync.
	ManifestPath string `yaml:"manifest"`
	// ServerUpdateFolder is the URL where reqsync release artifacts are hosted.
	ServerUpdateFolder string `yaml:"update_folder"`
	// LookupTimeout is the duration allowed for a single pip metadata query.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	// InstallTimeout is the duration allowed for a single pip install invocation.
	InstallTimeout time.Duration `yaml:"install_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for reqsync settings.
	DefaultConfigFilename = "reqsync-settings.yaml"

	// DefaultManifestFilename is the manifest appended to in the working directory.
	DefaultManifestFilename = "requirements.txt"

	// DefaultLookupTimeout is the default duration for pip metadata queries.
	DefaultLookupTimeout = 10 * time.Second

	// DefaultInstallTimeout is the default duration for pip install invocations.
	// Installs compile wheels on occasion, so this is generous.
	DefaultInstallTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with default values.
func Default() *Config {
	cfg := new(Config)
	// Validate never fails on an empty config; it only fills defaults.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// When path is empty, the default filename is used and its absence is not an
// error: the sync command must work in a directory that carries no settings
// file at all. An explicitly provided path must exist.
func Load(path string) (*Config, error) {
	absenceAllowed := path == ""
	if absenceAllowed {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if absenceAllowed && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for formatting and fills in defaults.
// Every field is optional; only a malformed update folder URL is rejected.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestFilename
	}

	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}

	if cfg.InstallTimeout <= 0 {
		cfg.InstallTimeout = DefaultInstallTimeout
	}

	if cfg.ServerUpdateFolder == "" {
		return nil
	}

	if _, err := url.ParseRequestURI(cfg.ServerUpdateFolder); err != nil {
		return fmt.Errorf("invalid update folder URI: %w", err)
	}

	return nil
}
