// Where: internal/project/initializer.go
// What: Per-project scaffold, build, dependency install, and prove steps.
// Why: Bring one example project from template to a completed prove run.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/ui"
)

// ScaffoldMarker is the build manifest whose presence short-circuits the
// template initialization on repeated runs.
const ScaffoldMarker = "foundry.toml"

// RuntimeDir is the generated subdirectory holding the runtime dependency
// manifests and prove scripts.
const RuntimeDir = "prover"

// Initializer runs the project setup pipeline. Every step passes explicit
// directories to the runner instead of mutating the process working
// directory, so a failure leaves no lingering chdir.
type Initializer struct {
	Runner    runner.CommandRunner
	Console   *ui.Console
	Workspace string
	Profile   config.Profile
	// ProveFailureFatal aborts the run on a failing prove task instead of
	// downgrading it to a warning.
	ProveFailureFatal bool
}

// Setup scaffolds (once), builds, installs runtime dependencies, renders
// the per-network env file, and runs the profile's prove task if the
// project defines one. Build failures are fatal and propagate up.
func (i Initializer) Setup(ctx context.Context, descriptor Descriptor, record envstore.Record) error {
	i.Console.Header("📦", fmt.Sprintf("Setting up %s", descriptor.Display))

	projectDir := filepath.Join(i.Workspace, descriptor.Dir)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return err
	}

	if err := i.scaffold(ctx, projectDir, descriptor); err != nil {
		return err
	}

	if err := i.Runner.Run(ctx, projectDir, "forge", "build"); err != nil {
		return fmt.Errorf("build %s: %w", descriptor.Display, err)
	}

	runtimeDir := filepath.Join(projectDir, RuntimeDir)
	if err := i.installRuntimeDeps(ctx, runtimeDir); err != nil {
		return err
	}

	envPath := filepath.Join(runtimeDir, i.Profile.EnvFileName())
	if err := RenderEnvFile(envPath, record); err != nil {
		return fmt.Errorf("render %s: %w", envPath, err)
	}

	if err := i.runProveTask(ctx, runtimeDir, descriptor); err != nil {
		return err
	}

	i.Console.Success(fmt.Sprintf("%s ready", descriptor.Display))
	return nil
}

// scaffold runs the template initialization unless the marker manifest is
// already present, which makes repeated runs cheap.
func (i Initializer) scaffold(ctx context.Context, projectDir string, descriptor Descriptor) error {
	if _, err := os.Stat(filepath.Join(projectDir, ScaffoldMarker)); err == nil {
		i.Console.Info(fmt.Sprintf("%s already scaffolded", descriptor.Display))
		return nil
	}
	if err := i.Runner.Run(ctx, projectDir, "prove", "init", "--template", descriptor.Template); err != nil {
		return fmt.Errorf("scaffold %s: %w", descriptor.Display, err)
	}
	return nil
}

// installRuntimeDeps installs the runtime packages and approves their
// postinstall scripts. A trust failure only warns: bun reports an error
// when there is nothing left to trust, but the cause is surfaced so real
// failures stay visible.
func (i Initializer) installRuntimeDeps(ctx context.Context, runtimeDir string) error {
	if err := i.Runner.Run(ctx, runtimeDir, "bun", "install"); err != nil {
		return fmt.Errorf("bun install: %w", err)
	}
	if err := i.Runner.RunQuiet(ctx, runtimeDir, "bun", "pm", "trust", "--all"); err != nil {
		i.Console.Warn(fmt.Sprintf("bun pm trust reported: %v", err))
	}
	return nil
}

// runProveTask runs the profile's prove script when the project defines
// one. An undefined task is a warning; a failing task is fatal only when
// configured so.
func (i Initializer) runProveTask(ctx context.Context, runtimeDir string, descriptor Descriptor) error {
	task := i.Profile.ProveTask()
	defined, err := hasScript(filepath.Join(runtimeDir, "package.json"), task)
	if err != nil {
		return err
	}
	if !defined {
		i.Console.Warn(fmt.Sprintf("%s defines no %s task, skipping", descriptor.Display, task))
		return nil
	}

	if err := i.Runner.Run(ctx, runtimeDir, "bun", "run", task); err != nil {
		if i.ProveFailureFatal {
			return fmt.Errorf("prove task %s: %w", task, err)
		}
		i.Console.Warn(fmt.Sprintf("prove task %s failed: %v", task, err))
	}
	return nil
}

// hasScript reports whether the package manifest defines the named script.
func hasScript(manifestPath, name string) (bool, error) {
	payload, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var manifest struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(payload, &manifest); err != nil {
		return false, fmt.Errorf("parse %s: %w", manifestPath, err)
	}
	_, ok := manifest.Scripts[name]
	return ok, nil
}
