// Where: internal/osgate/osgate.go
// What: OS release verification and noninteractive distribution upgrade.
// Why: The prover toolchain only supports one Ubuntu release and glibc floor.
package osgate

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/provekit/proofup/internal/retry"
	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/ui"
)

// UpgradeError reports a release or library that is still wrong after the
// upgrade procedure ran.
type UpgradeError struct {
	Reason string
}

func (e *UpgradeError) Error() string {
	return "os upgrade failed: " + e.Reason
}

// Gate checks and, when necessary, upgrades the running OS release.
type Gate struct {
	Runner  runner.CommandRunner
	Console *ui.Console
	// RequiredRelease is compared exactly against VERSION_ID, not >=.
	RequiredRelease  string
	RequiredCodename string
	// MinGlibc is the "major.minor" floor for the C library.
	MinGlibc string
	// OSReleasePath is /etc/os-release, swappable for tests.
	OSReleasePath string
	// RebootOnUpgrade restarts the machine after a successful upgrade
	// instead of continuing in the same session.
	RebootOnUpgrade bool
	Delay           time.Duration
}

// EnsureRelease verifies the running release. On an exact match it still
// checks the glibc floor and repairs the library in place when too old.
// On a mismatch it runs the full noninteractive upgrade procedure and
// re-verifies both facts.
func (g Gate) EnsureRelease(ctx context.Context) error {
	release, err := g.CurrentRelease()
	if err != nil {
		return err
	}

	if release == g.RequiredRelease {
		g.Console.Info(fmt.Sprintf("Ubuntu %s detected", release))
		return g.ensureGlibc(ctx)
	}

	g.Console.Header("⬆️", fmt.Sprintf("Ubuntu %s detected, upgrading to %s", release, g.RequiredRelease))
	if err := g.upgrade(ctx); err != nil {
		return err
	}

	release, err = g.CurrentRelease()
	if err != nil {
		return err
	}
	if release != g.RequiredRelease {
		return &UpgradeError{Reason: fmt.Sprintf("release is %s after upgrade, want %s", release, g.RequiredRelease)}
	}
	if err := g.ensureGlibc(ctx); err != nil {
		return err
	}

	if g.RebootOnUpgrade {
		g.Console.Warn("rebooting to finish the release upgrade")
		return g.Runner.Run(ctx, "", "sudo", "shutdown", "-r", "now")
	}
	g.Console.Success(fmt.Sprintf("upgraded to Ubuntu %s", g.RequiredRelease))
	return nil
}

// CurrentRelease reads VERSION_ID from the os-release file.
func (g Gate) CurrentRelease() (string, error) {
	payload, err := os.ReadFile(g.OSReleasePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", g.OSReleasePath, err)
	}
	for _, line := range strings.Split(string(payload), "\n") {
		if value, ok := strings.CutPrefix(line, "VERSION_ID="); ok {
			return strings.Trim(strings.TrimSpace(value), `"`), nil
		}
	}
	return "", fmt.Errorf("no VERSION_ID in %s", g.OSReleasePath)
}

// ensureGlibc verifies the C library floor and reinstalls libc6 once when
// it is too old. Still too old afterwards is fatal.
func (g Gate) ensureGlibc(ctx context.Context) error {
	version, err := g.GlibcVersion(ctx)
	if err != nil {
		return err
	}
	if !VersionBelow(version, g.MinGlibc) {
		return nil
	}

	g.Console.Warn(fmt.Sprintf("glibc %s below required %s, reinstalling libc6", version, g.MinGlibc))
	if err := g.Runner.Run(ctx, "", "sudo", "apt-get", "install", "--reinstall", "-y", "libc6"); err != nil {
		return fmt.Errorf("reinstall libc6: %w", err)
	}
	if err := g.Runner.Run(ctx, "", "sudo", "ldconfig"); err != nil {
		return fmt.Errorf("ldconfig: %w", err)
	}

	version, err = g.GlibcVersion(ctx)
	if err != nil {
		return err
	}
	if VersionBelow(version, g.MinGlibc) {
		return &UpgradeError{Reason: fmt.Sprintf("glibc %s still below %s after reinstall", version, g.MinGlibc)}
	}
	return nil
}

// GlibcVersion parses the trailing version from the first line of
// `ldd --version`.
func (g Gate) GlibcVersion(ctx context.Context) (string, error) {
	output, err := g.Runner.RunOutput(ctx, "", "ldd", "--version")
	if err != nil {
		return "", fmt.Errorf("ldd --version: %w", err)
	}
	lines := strings.SplitN(string(output), "\n", 2)
	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return "", fmt.Errorf("unparseable ldd output")
	}
	return fields[len(fields)-1], nil
}

// upgrade runs the full noninteractive release upgrade: package state
// repair, clean sources, index refresh with retries, debconf preseeding,
// upgrader install, and the dedicated upgrade tool with a full-upgrade
// fallback.
func (g Gate) upgrade(ctx context.Context) error {
	if err := g.repairPackageState(ctx); err != nil {
		return err
	}
	if err := g.rewriteSources(ctx); err != nil {
		return err
	}

	g.Console.ItemPlain("refreshing package indices")
	if err := retry.Do(ctx, 3, g.Delay, func() error {
		return g.Runner.Run(ctx, "", "sudo", "apt-get", "update")
	}); err != nil {
		return &UpgradeError{Reason: fmt.Sprintf("apt-get update: %v", err)}
	}

	if err := g.preseedDebconf(ctx); err != nil {
		return err
	}
	if err := g.Runner.Run(ctx, "", "sudo", "apt-get", "install", "-y", "ubuntu-release-upgrader-core"); err != nil {
		return &UpgradeError{Reason: fmt.Sprintf("install release upgrader: %v", err)}
	}
	if err := g.shell(ctx, `printf '[DEFAULT]\nPrompt=lts\n' | sudo tee /etc/update-manager/release-upgrades >/dev/null`); err != nil {
		return err
	}

	g.Console.ItemPlain("running distribution upgrade (this takes a while)")
	upgradeErr := g.Runner.Run(ctx, "", "sudo",
		"DEBIAN_FRONTEND=noninteractive",
		"do-release-upgrade", "-f", "DistUpgradeViewNonInteractive")
	if upgradeErr != nil {
		g.Console.Warn("do-release-upgrade failed, falling back to full-upgrade")
		if err := g.Runner.Run(ctx, "", "sudo",
			"DEBIAN_FRONTEND=noninteractive",
			"apt-get", "full-upgrade", "-y"); err != nil {
			return &UpgradeError{Reason: fmt.Sprintf("full-upgrade fallback: %v", err)}
		}
	}
	return nil
}

// repairPackageState fixes broken installs and clears stale apt locks and
// caches left by interrupted package operations.
func (g Gate) repairPackageState(ctx context.Context) error {
	steps := [][]string{
		{"sudo", "dpkg", "--configure", "-a"},
		{"sudo", "apt-get", "install", "-f", "-y"},
		{"sudo", "rm", "-f", "/var/lib/apt/lists/lock", "/var/cache/apt/archives/lock", "/var/lib/dpkg/lock-frontend"},
		{"sudo", "apt-get", "clean"},
	}
	for _, step := range steps {
		if err := g.Runner.Run(ctx, "", step[0], step[1:]...); err != nil {
			return &UpgradeError{Reason: fmt.Sprintf("%s: %v", strings.Join(step, " "), err)}
		}
	}
	return nil
}

// rewriteSources strips conflicting third-party package sources and writes
// a clean source set for the target release.
func (g Gate) rewriteSources(ctx context.Context) error {
	if err := g.shell(ctx, `sudo rm -f /etc/apt/sources.list.d/*.list /etc/apt/sources.list.d/*.sources`); err != nil {
		return err
	}
	sources := strings.Join([]string{
		fmt.Sprintf("deb http://archive.ubuntu.com/ubuntu %s main restricted universe multiverse", g.RequiredCodename),
		fmt.Sprintf("deb http://archive.ubuntu.com/ubuntu %s-updates main restricted universe multiverse", g.RequiredCodename),
		fmt.Sprintf("deb http://security.ubuntu.com/ubuntu %s-security main restricted universe multiverse", g.RequiredCodename),
	}, `\n`)
	return g.shell(ctx, fmt.Sprintf(`printf '%s\n' | sudo tee /etc/apt/sources.list >/dev/null`, sources))
}

// preseedDebconf answers the prompts that packages in the upgrade set are
// known to raise, keeping the run fully noninteractive.
func (g Gate) preseedDebconf(ctx context.Context) error {
	seeds := []string{
		`libc6 libraries/restart-without-asking boolean true`,
		`libssl3t64 libssl3t64/restart-services string`,
		`grub-pc grub-pc/install_devices_empty boolean true`,
	}
	for _, seed := range seeds {
		if err := g.shell(ctx, fmt.Sprintf(`echo '%s' | sudo debconf-set-selections`, seed)); err != nil {
			return err
		}
	}
	return nil
}

func (g Gate) shell(ctx context.Context, line string) error {
	if err := g.Runner.Run(ctx, "", "bash", "-c", line); err != nil {
		return &UpgradeError{Reason: fmt.Sprintf("%s: %v", line, err)}
	}
	return nil
}

// VersionBelow compares two "major.minor" strings numerically.
func VersionBelow(version, floor string) bool {
	vMajor, vMinor := splitVersion(version)
	fMajor, fMinor := splitVersion(floor)
	if vMajor != fMajor {
		return vMajor < fMajor
	}
	return vMinor < fMinor
}

func splitVersion(value string) (int, int) {
	parts := strings.SplitN(strings.TrimSpace(value), ".", 3)
	major, _ := strconv.Atoi(parts[0])
	minor := 0
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}
