// Where: internal/project/initializer_test.go
// What: Tests for the project setup pipeline.
// Why: Ensure scaffold guards, env rendering, and prove handling behave.
package project

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/ui"
)

var testProfile = config.Profile{
	Name:       "testnet",
	ChainName:  "optimismSepolia",
	JSONRPCURL: "https://sepolia.optimism.io",
}

var testRecord = envstore.Record{
	APIToken:   "token-123",
	PrivateKey: "0xdeadbeef",
	ChainName:  "optimismSepolia",
	JSONRPCURL: "https://sepolia.optimism.io",
}

var testDescriptor = Descriptor{
	Dir:      "my-simple-teleport",
	Template: "simple-teleport",
	Display:  "Teleport",
}

type fakeRunner struct {
	calls    [][]string
	runFn    func(dir, name string, args []string) error
	quietF   func(dir, name string, args []string) error
	manifest string // package.json content written on scaffold
}

func (f *fakeRunner) record(name string, args []string) {
	f.calls = append(f.calls, append([]string{name}, args...))
}

// Run mimics the scaffold tool: `prove init` creates the build manifest and
// the runtime subdirectory the later steps expect.
func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	f.record(name, args)
	if name == "prove" && len(args) > 0 && args[0] == "init" {
		if err := os.WriteFile(filepath.Join(dir, ScaffoldMarker), []byte("[profile.default]\n"), 0o644); err != nil {
			return err
		}
		runtimeDir := filepath.Join(dir, RuntimeDir)
		if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
			return err
		}
		manifest := f.manifest
		if manifest == "" {
			manifest = `{"scripts":{"prove:testnet":"bun prove.ts"}}`
		}
		return os.WriteFile(filepath.Join(runtimeDir, "package.json"), []byte(manifest), 0o644)
	}
	if f.runFn != nil {
		return f.runFn(dir, name, args)
	}
	return nil
}

func (f *fakeRunner) RunOutput(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	return nil, nil
}

func (f *fakeRunner) RunQuiet(_ context.Context, dir, name string, args ...string) error {
	f.record(name, args)
	if f.quietF != nil {
		return f.quietF(dir, name, args)
	}
	return nil
}

func (f *fakeRunner) commandLines() []string {
	lines := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		lines = append(lines, strings.Join(call, " "))
	}
	return lines
}

func newInitializer(t *testing.T, fake *fakeRunner) (Initializer, *bytes.Buffer) {
	t.Helper()
	workspace := t.TempDir()
	out := &bytes.Buffer{}
	return Initializer{
		Runner:    fake,
		Console:   ui.New(out),
		Workspace: workspace,
		Profile:   testProfile,
	}, out
}

func TestSetupScaffoldsBuildsAndProves(t *testing.T) {
	fake := &fakeRunner{}
	initializer, _ := newInitializer(t, fake)

	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err != nil {
		t.Fatalf("setup: %v", err)
	}

	lines := strings.Join(fake.commandLines(), "\n")
	for _, expected := range []string{
		"prove init --template simple-teleport",
		"forge build",
		"bun install",
		"bun run prove:testnet",
	} {
		if !strings.Contains(lines, expected) {
			t.Fatalf("missing step %q in:\n%s", expected, lines)
		}
	}

	envPath := filepath.Join(initializer.Workspace, testDescriptor.Dir, RuntimeDir, ".env.testnet.local")
	payload, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}
	for _, expected := range []string{
		`API_TOKEN="token-123"`,
		`PRIVATE_KEY="0xdeadbeef"`,
		`CHAIN_NAME="optimismSepolia"`,
		`JSON_RPC_URL="https://sepolia.optimism.io"`,
	} {
		if !strings.Contains(string(payload), expected) {
			t.Fatalf("env file missing %q:\n%s", expected, payload)
		}
	}
}

func TestSetupSkipsScaffoldWhenMarkerPresent(t *testing.T) {
	fake := &fakeRunner{}
	initializer, out := newInitializer(t, fake)

	projectDir := filepath.Join(initializer.Workspace, testDescriptor.Dir)
	runtimeDir := filepath.Join(projectDir, RuntimeDir)
	if err := os.MkdirAll(runtimeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, ScaffoldMarker), []byte(""), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if strings.Contains(strings.Join(fake.commandLines(), "\n"), "prove init") {
		t.Fatal("scaffold re-run despite existing marker")
	}
	if !strings.Contains(out.String(), "already scaffolded") {
		t.Fatalf("missing skip notice: %s", out.String())
	}
}

func TestSetupBuildFailureIsFatal(t *testing.T) {
	fake := &fakeRunner{runFn: func(_, name string, args []string) error {
		if name == "forge" {
			return errors.New("compile error")
		}
		return nil
	}}
	initializer, _ := newInitializer(t, fake)

	err := initializer.Setup(context.Background(), testDescriptor, testRecord)
	if err == nil || !strings.Contains(err.Error(), "build Teleport") {
		t.Fatalf("expected fatal build error, got %v", err)
	}
}

func TestSetupWarnsWhenProveTaskUndefined(t *testing.T) {
	fake := &fakeRunner{manifest: `{"scripts":{"test":"bun test"}}`}
	initializer, out := newInitializer(t, fake)

	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if strings.Contains(strings.Join(fake.commandLines(), "\n"), "bun run prove:testnet") {
		t.Fatal("prove task run despite being undefined")
	}
	if !strings.Contains(out.String(), "no prove:testnet task") {
		t.Fatalf("missing warning: %s", out.String())
	}
}

func TestSetupTrustFailureWarnsWithCause(t *testing.T) {
	fake := &fakeRunner{quietF: func(_, name string, args []string) error {
		if name == "bun" && len(args) > 0 && args[0] == "pm" {
			return errors.New("registry timeout")
		}
		return nil
	}}
	initializer, out := newInitializer(t, fake)

	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err != nil {
		t.Fatalf("trust failure must be non-fatal: %v", err)
	}
	if !strings.Contains(out.String(), "bun pm trust reported: registry timeout") {
		t.Fatalf("underlying error not surfaced: %s", out.String())
	}
}

func TestSetupProveFailureRespectsConfig(t *testing.T) {
	proveFails := func(_, name string, args []string) error {
		if name == "bun" && len(args) > 0 && args[0] == "run" {
			return errors.New("proving backend unavailable")
		}
		return nil
	}

	// Default: warn and continue.
	fake := &fakeRunner{runFn: proveFails}
	initializer, out := newInitializer(t, fake)
	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err != nil {
		t.Fatalf("prove failure should warn by default: %v", err)
	}
	if !strings.Contains(out.String(), "prove task prove:testnet failed") {
		t.Fatalf("missing warning: %s", out.String())
	}

	// Configured fatal: propagate.
	fake = &fakeRunner{runFn: proveFails}
	initializer, _ = newInitializer(t, fake)
	initializer.ProveFailureFatal = true
	if err := initializer.Setup(context.Background(), testDescriptor, testRecord); err == nil {
		t.Fatal("expected fatal prove failure")
	}
}

func TestRenderEnvFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.testnet.local")
	if err := os.WriteFile(path, []byte("stale"), 0o600); err != nil {
		t.Fatalf("write stale: %v", err)
	}

	if err := RenderEnvFile(path, testRecord); err != nil {
		t.Fatalf("render: %v", err)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(payload), "stale") {
		t.Fatalf("previous content survived: %s", payload)
	}
}
