// Where: internal/toolchain/toolchain.go
// What: External tool presence probes and installers.
// Why: Make every required CLI resolvable before project setup starts.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/provekit/proofup/internal/retry"
	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/ui"
)

// Tool describes one required external CLI and how to install it when the
// presence probe fails.
type Tool struct {
	Name   string // catalog name, e.g. "foundry"
	Binary string // probed executable, e.g. "forge"
	BinDir string // install destination prepended to PATH afterwards
	// InstallScript lines are executed through bash since the upstream
	// installers are curl-pipe scripts that manage their own directories.
	InstallScript []string
	Attempts      int
	// VerifyArgs runs the binary once after resolution to catch binaries
	// that resolve but fail to execute (library mismatch).
	VerifyArgs []string
	// RepairPackage is apt-reinstalled when the verify run reports a
	// system library linkage failure.
	RepairPackage string
	// Recovery lists manual commands printed after exhausted retries.
	Recovery []string
}

// InstallError reports a tool that could not be installed after retries.
type InstallError struct {
	Tool string
	Err  error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install %s: %v", e.Tool, e.Err)
}

func (e *InstallError) Unwrap() error { return e.Err }

// Catalog returns the fixed set of required tools for the given home
// directory: the Foundry build toolchain, the Bun runtime, and the ProveKit
// prover CLI.
func Catalog(home string) []Tool {
	return []Tool{
		{
			Name:   "foundry",
			Binary: "forge",
			BinDir: filepath.Join(home, ".foundry", "bin"),
			InstallScript: []string{
				"curl -L https://foundry.paradigm.xyz | bash",
				filepath.Join(home, ".foundry", "bin", "foundryup"),
			},
			Attempts:      3,
			VerifyArgs:    []string{"--version"},
			RepairPackage: "libssl-dev",
			Recovery: []string{
				"curl -L https://foundry.paradigm.xyz | bash",
				"~/.foundry/bin/foundryup",
			},
		},
		{
			Name:   "bun",
			Binary: "bun",
			BinDir: filepath.Join(home, ".bun", "bin"),
			InstallScript: []string{
				"curl -fsSL https://bun.sh/install | bash",
			},
			Attempts:   3,
			VerifyArgs: []string{"--version"},
			Recovery: []string{
				"curl -fsSL https://bun.sh/install | bash",
			},
		},
		{
			Name:   "prover",
			Binary: "prove",
			BinDir: filepath.Join(home, ".provekit", "bin"),
			InstallScript: []string{
				"curl -SL https://install.provekit.dev | bash",
				filepath.Join(home, ".provekit", "bin", "proveup"),
			},
			Attempts:      2,
			VerifyArgs:    []string{"--version"},
			RepairPackage: "libc6",
			Recovery: []string{
				"curl -SL https://install.provekit.dev | bash",
				"~/.provekit/bin/proveup",
			},
		},
	}
}

// Installer ensures catalog tools are present, retrying installs with a
// fixed delay and propagating PATH changes to the current process and the
// user's shell profile.
type Installer struct {
	Runner  runner.CommandRunner
	Console *ui.Console
	Delay   time.Duration
	// ProfilePath is the shell profile receiving the persisted PATH
	// prepend, typically ~/.bashrc.
	ProfilePath string
}

// EnsureInstalled is a no-op when the tool's binary already resolves and
// executes. Otherwise it runs the install script with bounded retries.
func (i Installer) EnsureInstalled(ctx context.Context, tool Tool) error {
	if err := i.verify(ctx, tool); err == nil {
		i.Console.Info(fmt.Sprintf("%s already installed", tool.Name))
		return nil
	}

	i.Console.Header("🔧", fmt.Sprintf("Installing %s", tool.Name))
	err := retry.Do(ctx, tool.Attempts, i.Delay, func() error {
		if err := i.install(ctx, tool); err != nil {
			return err
		}
		if err := i.propagatePath(tool.BinDir); err != nil {
			return err
		}
		return i.verify(ctx, tool)
	})
	if err != nil {
		i.Console.Error(fmt.Sprintf("%s could not be installed; run manually:", tool.Name))
		for _, cmd := range tool.Recovery {
			i.Console.ItemPlain(cmd)
		}
		return &InstallError{Tool: tool.Name, Err: err}
	}

	i.Console.Success(fmt.Sprintf("%s installed", tool.Name))
	return nil
}

// verify resolves the binary and executes it once. A resolvable binary
// failing with a library linkage error triggers a targeted reinstall of
// that library before a single re-verification.
func (i Installer) verify(ctx context.Context, tool Tool) error {
	if _, err := runner.LookPath(tool.Binary); err != nil {
		return fmt.Errorf("%s not on PATH", tool.Binary)
	}
	output, err := i.Runner.RunOutput(ctx, "", tool.Binary, tool.VerifyArgs...)
	if err == nil {
		return nil
	}

	if tool.RepairPackage != "" && isLinkageError(string(output)) {
		i.Console.Warn(fmt.Sprintf("%s failed to execute; reinstalling %s", tool.Binary, tool.RepairPackage))
		if repairErr := i.Runner.Run(ctx, "", "sudo", "apt-get", "install", "--reinstall", "-y", tool.RepairPackage); repairErr != nil {
			return fmt.Errorf("reinstall %s: %w", tool.RepairPackage, repairErr)
		}
		if _, err := i.Runner.RunOutput(ctx, "", tool.Binary, tool.VerifyArgs...); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%s failed to execute: %w", tool.Binary, err)
}

func (i Installer) install(ctx context.Context, tool Tool) error {
	for _, line := range tool.InstallScript {
		if err := i.Runner.Run(ctx, "", "bash", "-lc", line); err != nil {
			return fmt.Errorf("run %q: %w", line, err)
		}
	}
	return nil
}

// propagatePath makes the tool's bin dir visible both to this process and
// to future shell sessions. Installers edit profile files rather than the
// running process, so the in-process prepend is what lets the very next
// step find the binary.
func (i Installer) propagatePath(binDir string) error {
	current := os.Getenv("PATH")
	if !containsPathEntry(current, binDir) {
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+current); err != nil {
			return err
		}
	}
	if i.ProfilePath == "" {
		return nil
	}
	return persistPathEntry(i.ProfilePath, binDir)
}

func containsPathEntry(pathValue, dir string) bool {
	for _, entry := range filepath.SplitList(pathValue) {
		if entry == dir {
			return true
		}
	}
	return false
}

// persistPathEntry appends an export line to the shell profile unless an
// equivalent line is already present.
func persistPathEntry(profilePath, binDir string) error {
	exportLine := fmt.Sprintf(`export PATH="%s:$PATH"`, binDir)

	existing, err := os.ReadFile(profilePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if strings.Contains(string(existing), exportLine) {
		return nil
	}

	file, err := os.OpenFile(profilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "\n%s\n", exportLine); err != nil {
		return err
	}
	return nil
}

// isLinkageError recognizes loader diagnostics from binaries built against
// a newer libssl or glibc than the system provides.
func isLinkageError(output string) bool {
	for _, marker := range []string{"libssl", "libcrypto", "GLIBC_", "error while loading shared libraries"} {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}
