// Where: internal/config/global_test.go
// What: Tests for global config helpers.
// Why: Ensure global config round-trips correctly.
package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestGlobalConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := GlobalConfig{
		Version:           1,
		Profile:           "mainnet",
		Workspace:         "/srv/starters",
		RebootOnUpgrade:   true,
		ProveFailureFatal: true,
	}

	if err := SaveGlobalConfig(path, cfg); err != nil {
		t.Fatalf("save global config: %v", err)
	}

	loaded, err := LoadGlobalConfig(path)
	if err != nil {
		t.Fatalf("load global config: %v", err)
	}

	if !reflect.DeepEqual(cfg, loaded) {
		t.Fatalf("config mismatch: expected %#v, got %#v", cfg, loaded)
	}
}

func TestGlobalConfigPathHonorsOverride(t *testing.T) {
	baseDir := t.TempDir()
	overridePath := filepath.Join(baseDir, "custom", "config.yaml")
	t.Setenv(EnvConfigPath, overridePath)

	got, err := GlobalConfigPath()
	if err != nil {
		t.Fatalf("global config path: %v", err)
	}
	if got != overridePath {
		t.Fatalf("unexpected config path: %s", got)
	}
}

func TestGlobalConfigPathHonorsHomeOverride(t *testing.T) {
	baseDir := t.TempDir()
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvConfigHome, baseDir)

	got, err := GlobalConfigPath()
	if err != nil {
		t.Fatalf("global config path: %v", err)
	}
	if got != filepath.Join(baseDir, "config.yaml") {
		t.Fatalf("unexpected config path: %s", got)
	}
}

func TestLoadGlobalConfigOrDefaultFallsBack(t *testing.T) {
	t.Setenv(EnvConfigHome, t.TempDir())

	cfg, err := LoadGlobalConfigOrDefault()
	if err != nil {
		t.Fatalf("load or default: %v", err)
	}
	if cfg.Profile != "testnet" {
		t.Fatalf("expected testnet default, got %q", cfg.Profile)
	}
}

func TestDefaultWorkspaceUsesHomeDir(t *testing.T) {
	baseDir := t.TempDir()
	t.Setenv(EnvConfigHome, baseDir)

	workspace, err := DefaultWorkspace(GlobalConfig{})
	if err != nil {
		t.Fatalf("default workspace: %v", err)
	}
	if workspace != filepath.Join(baseDir, "starters") {
		t.Fatalf("unexpected workspace: %s", workspace)
	}

	workspace, err = DefaultWorkspace(GlobalConfig{Workspace: "/srv/checkout"})
	if err != nil {
		t.Fatalf("default workspace: %v", err)
	}
	if workspace != "/srv/checkout" {
		t.Fatalf("configured workspace ignored: %s", workspace)
	}
}
