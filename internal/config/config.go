package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings for a kernel upgrade run.
type Config struct {
	// SudoPassword is the elevation credential fed to sudo for package installs.
	// It is read once at startup, held in memory for the run, and must never
	// be written to the run log or any other persisted artifact.
	SudoPassword string `yaml:"sudo_password"`
	// KernelPageURL is the page scraped for the latest stable version token.
	KernelPageURL string `yaml:"kernel_page_url"`
	// MirrorURL is the base URL of the mainline package mirror.
	MirrorURL string `yaml:"mirror_url"`
	// Architecture is the target CPU architecture of the packages.
	Architecture string `yaml:"architecture"`
	// DownloadDir is where packages are stored for the duration of the run.
	// Empty means a per-run temporary directory.
	DownloadDir string `yaml:"download_dir"`
	// RunLogFile is the path where the run log is persisted at process end.
	RunLogFile string `yaml:"run_log"`
}

const (
	// DefaultConfigFilename is the default filename for upgrade settings.
	DefaultConfigFilename = "kernel-upgrade-settings.yaml"

	// DefaultKernelPageURL is the page announcing the latest stable kernel.
	DefaultKernelPageURL = "https://kernel.org/"

	// DefaultMirrorURL hosts the mainline Debian packages.
	DefaultMirrorURL = "https://kernel.ubuntu.com/~kernel-ppa/mainline"

	// DefaultArchitecture is the package architecture used when none is set.
	DefaultArchitecture = "amd64"

	// DefaultRunLogFilename is the default path for the persisted run log.
	DefaultRunLogFilename = "kernel-upgrade.log"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSudoPasswordRequired is returned when the elevation credential is missing.
	errSudoPasswordRequired = errors.New("sudo password must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
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

// Save writes the configuration to the provided path.
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

	// Restrict permissions, the file carries the elevation credential.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.SudoPassword == "" {
		return errSudoPasswordRequired
	}

	if cfg.KernelPageURL == "" {
		cfg.KernelPageURL = DefaultKernelPageURL
	}

	if _, err := url.ParseRequestURI(cfg.KernelPageURL); err != nil {
		return fmt.Errorf("invalid kernel page URL: %w", err)
	}

	if cfg.MirrorURL == "" {
		cfg.MirrorURL = DefaultMirrorURL
	}

	if _, err := url.ParseRequestURI(cfg.MirrorURL); err != nil {
		return fmt.Errorf("invalid mirror URL: %w", err)
	}

	if cfg.Architecture == "" {
		cfg.Architecture = DefaultArchitecture
	}

	if cfg.RunLogFile == "" {
		cfg.RunLogFile = DefaultRunLogFilename
	}

	return nil
}
