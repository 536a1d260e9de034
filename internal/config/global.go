// Where: internal/config/global.go
// What: Global config load/save helpers.
// Why: Manage ~/.proofup/config.yaml consistently.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HomeDirName is the per-user directory holding all proofup state.
const HomeDirName = ".proofup"

// Environment overrides for the config location, mirroring the CLI slug.
const (
	EnvConfigPath = "PROOFUP_CONFIG_PATH"
	EnvConfigHome = "PROOFUP_CONFIG_HOME"
)

// GlobalConfig represents the ~/.proofup/config.yaml global configuration.
// It selects the active network profile and the behavior switches for the
// OS upgrade and prove steps.
type GlobalConfig struct {
	Version int    `yaml:"version"`
	Profile string `yaml:"profile"`
	// Workspace is the directory holding the starter repository checkout.
	Workspace string `yaml:"workspace,omitempty"`
	// RebootOnUpgrade restarts the machine after a release upgrade instead
	// of continuing in the same session.
	RebootOnUpgrade bool `yaml:"reboot_on_upgrade"`
	// ProveFailureFatal aborts the run when a project's prove task fails.
	ProveFailureFatal bool `yaml:"prove_failure_fatal"`
	// ProfilesPath points at an optional user profiles file overriding the
	// built-in network catalog.
	ProfilesPath string `yaml:"profiles_path,omitempty"`
}

// DefaultGlobalConfig returns an initialized GlobalConfig with version set.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		Version: 1,
		Profile: "testnet",
	}
}

// GlobalConfigPath returns the path to the global config file.
// Respects PROOFUP_CONFIG_PATH and PROOFUP_CONFIG_HOME environment variables.
func GlobalConfigPath() (string, error) {
	if override := strings.TrimSpace(os.Getenv(EnvConfigPath)); override != "" {
		path := override
		if !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		return path, nil
	}
	if override := strings.TrimSpace(os.Getenv(EnvConfigHome)); override != "" {
		return filepath.Join(override, "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, HomeDirName, "config.yaml"), nil
}

// HomeDir returns the directory containing the global config file.
func HomeDir() (string, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

// EnsureGlobalConfig creates the global config file if it doesn't exist.
func EnsureGlobalConfig() error {
	path, err := GlobalConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return SaveGlobalConfig(path, DefaultGlobalConfig())
		}
		return err
	}
	return nil
}

// LoadGlobalConfig reads and parses the global configuration file.
func LoadGlobalConfig(path string) (GlobalConfig, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return GlobalConfig{}, err
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(payload, &cfg); err != nil {
		return GlobalConfig{}, err
	}
	if strings.TrimSpace(cfg.Profile) == "" {
		cfg.Profile = "testnet"
	}
	return cfg, nil
}

// LoadGlobalConfigOrDefault loads the global config from its resolved path,
// falling back to defaults when the file is absent.
func LoadGlobalConfigOrDefault() (GlobalConfig, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return GlobalConfig{}, err
	}
	cfg, err := LoadGlobalConfig(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultGlobalConfig(), nil
		}
		return GlobalConfig{}, err
	}
	return cfg, nil
}

// SaveGlobalConfig writes a GlobalConfig to the specified path.
func SaveGlobalConfig(path string, cfg GlobalConfig) error {
	payload, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, payload, 0o644)
}

// DefaultWorkspace resolves the starter checkout directory: the configured
// workspace when set, otherwise ~/.proofup/starters.
func DefaultWorkspace(cfg GlobalConfig) (string, error) {
	if ws := strings.TrimSpace(cfg.Workspace); ws != "" {
		return ws, nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "starters"), nil
}
