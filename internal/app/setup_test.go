// Where: internal/app/setup_test.go
// What: Orchestrator tests over fake runners.
// Why: Verify ordering, selector scoping, and idempotent re-runs.
package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/interaction"
	"github.com/provekit/proofup/internal/project"
	"github.com/provekit/proofup/internal/runner"
)

// fakeRunner emulates the external tools well enough for a full setup run:
// git clone creates the checkout, prove init creates the scaffold.
type fakeRunner struct {
	calls [][]string
	glibc string // reported by the ldd probe, defaults to the floor
}

func (f *fakeRunner) record(name string, args []string) {
	f.calls = append(f.calls, append([]string{name}, args...))
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.record(name, args)
	switch {
	case name == "git" && len(args) > 0 && args[0] == "clone":
		return os.MkdirAll(filepath.Join(args[len(args)-1], ".git"), 0o755)
	case name == "prove" && len(args) > 0 && args[0] == "init":
		if err := os.WriteFile(filepath.Join(dir, project.ScaffoldMarker), []byte(""), 0o644); err != nil {
			return err
		}
		runtimeDir := filepath.Join(dir, project.RuntimeDir)
		if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
			return err
		}
		manifest := `{"scripts":{"prove:testnet":"bun prove.ts"}}`
		return os.WriteFile(filepath.Join(runtimeDir, "package.json"), []byte(manifest), 0o644)
	}
	return nil
}

func (f *fakeRunner) RunOutput(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if name == "ldd" {
		version := f.glibc
		if version == "" {
			version = "2.39"
		}
		return []byte("ldd (Ubuntu GLIBC " + version + "-0ubuntu8) " + version + "\n"), nil
	}
	return nil, nil
}

func (f *fakeRunner) RunQuiet(_ context.Context, _ string, name string, args ...string) error {
	f.record(name, args)
	return nil
}

func (f *fakeRunner) commandLines() []string {
	lines := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		lines = append(lines, strings.Join(call, " "))
	}
	return lines
}

type countingPrompter struct {
	calls int
}

func (p *countingPrompter) Input(string, []string) (string, error) {
	p.calls++
	return "prompted", nil
}

func (p *countingPrompter) Secret(string) (string, error) {
	p.calls++
	return "prompted", nil
}

func (p *countingPrompter) SelectValue(string, []interaction.SelectOption) (string, error) {
	p.calls++
	return "all", nil
}

// setupFixture isolates config home, user home, os-release, and tool
// probes so a full setup run touches nothing outside the test.
func setupFixture(t *testing.T) (Dependencies, *fakeRunner, *bytes.Buffer, string) {
	t.Helper()

	configHome := t.TempDir()
	t.Setenv(config.EnvConfigHome, configHome)
	t.Setenv(config.EnvConfigPath, "")

	record := envstore.Record{
		APIToken:   "token",
		PrivateKey: "key",
		ChainName:  "optimismSepolia",
		JSONRPCURL: "https://sepolia.optimism.io",
	}
	if err := envstore.Write(filepath.Join(configHome, envstore.EnvFileName), record); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	releasePath := filepath.Join(t.TempDir(), "os-release")
	if err := os.WriteFile(releasePath, []byte("VERSION_ID=\"24.04\"\n"), 0o644); err != nil {
		t.Fatalf("write os-release: %v", err)
	}

	originalLookPath := runner.LookPath
	runner.LookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	t.Cleanup(func() { runner.LookPath = originalLookPath })

	originalIsTerminal := interaction.IsTerminal
	interaction.IsTerminal = func(*os.File) bool { return false }
	t.Cleanup(func() { interaction.IsTerminal = originalIsTerminal })

	fake := &fakeRunner{}
	out := &bytes.Buffer{}
	deps := Dependencies{
		Out:           out,
		Runner:        fake,
		Prompter:      &countingPrompter{},
		Home:          t.TempDir(),
		OSReleasePath: releasePath,
		RetryDelay:    1,
	}
	return deps, fake, out, configHome
}

func TestSetupInvalidSelectorShortCircuits(t *testing.T) {
	deps, fake, out, _ := setupFixture(t)

	code := Run([]string{"setup", "invalid-name"}, deps)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("commands ran despite invalid selector: %v", fake.commandLines())
	}
	if !strings.Contains(out.String(), "invalid selector") {
		t.Fatalf("missing diagnostic: %s", out.String())
	}
}

func TestSetupSingleSelectorScopesProjects(t *testing.T) {
	deps, fake, out, configHome := setupFixture(t)

	code := Run([]string{"setup", "teleport"}, deps)
	if code != 0 {
		t.Fatalf("setup failed (%d):\n%s", code, out.String())
	}

	lines := strings.Join(fake.commandLines(), "\n")
	if !strings.Contains(lines, "prove init --template simple-teleport") {
		t.Fatalf("teleport not scaffolded:\n%s", lines)
	}
	for _, other := range []string{"simple-email-proof", "simple-time-travel", "simple-web-proof"} {
		if strings.Contains(lines, other) {
			t.Fatalf("unselected template %s touched:\n%s", other, lines)
		}
	}

	workspace := filepath.Join(configHome, "starters")
	if _, err := os.Stat(filepath.Join(workspace, "my-simple-teleport", project.ScaffoldMarker)); err != nil {
		t.Fatalf("scaffold marker missing: %v", err)
	}
	envPath := filepath.Join(workspace, "my-simple-teleport", project.RuntimeDir, ".env.testnet.local")
	payload, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("read project env: %v", err)
	}
	if !strings.Contains(string(payload), `CHAIN_NAME="optimismSepolia"`) {
		t.Fatalf("unexpected project env:\n%s", payload)
	}

	if !strings.Contains(out.String(), "Setup complete: teleport") {
		t.Fatalf("missing success message: %s", out.String())
	}
}

func TestSetupRunsEveryProjectForAll(t *testing.T) {
	deps, fake, out, _ := setupFixture(t)

	code := Run([]string{"setup", "all"}, deps)
	if code != 0 {
		t.Fatalf("setup failed (%d):\n%s", code, out.String())
	}

	lines := strings.Join(fake.commandLines(), "\n")
	for _, template := range []string{"simple-email-proof", "simple-teleport", "simple-time-travel", "simple-web-proof"} {
		if strings.Count(lines, "prove init --template "+template) != 1 {
			t.Fatalf("template %s not scaffolded exactly once:\n%s", template, lines)
		}
	}
}

func TestSetupRerunShortCircuitsGuards(t *testing.T) {
	deps, fake, out, _ := setupFixture(t)
	prompter := deps.Prompter.(*countingPrompter)

	if code := Run([]string{"setup", "all"}, deps); code != 0 {
		t.Fatalf("first run failed:\n%s", out.String())
	}
	firstScaffolds := strings.Count(strings.Join(fake.commandLines(), "\n"), "prove init")

	if code := Run([]string{"setup", "all"}, deps); code != 0 {
		t.Fatalf("second run failed:\n%s", out.String())
	}
	totalScaffolds := strings.Count(strings.Join(fake.commandLines(), "\n"), "prove init")

	if firstScaffolds != 4 || totalScaffolds != 4 {
		t.Fatalf("scaffold guard failed: first=%d total=%d", firstScaffolds, totalScaffolds)
	}
	if prompter.calls != 0 {
		t.Fatalf("re-run prompted %d times", prompter.calls)
	}

	lines := strings.Join(fake.commandLines(), "\n")
	if !strings.Contains(lines, "git pull --ff-only origin main") {
		t.Fatalf("second run did not pull existing checkout:\n%s", lines)
	}
}

func TestSetupOmittedSelectorDefaultsToAllWithoutTerminal(t *testing.T) {
	deps, fake, out, _ := setupFixture(t)
	prompter := deps.Prompter.(*countingPrompter)

	if code := Run([]string{"setup"}, deps); code != 0 {
		t.Fatalf("setup failed:\n%s", out.String())
	}
	if prompter.calls != 0 {
		t.Fatal("prompted without a terminal")
	}
	if strings.Count(strings.Join(fake.commandLines(), "\n"), "prove init") != 4 {
		t.Fatalf("default selector did not run all projects")
	}
}
