// Where: internal/app/doctor.go
// What: Read-only machine health report.
// Why: Show what setup would have to fix without changing anything.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/osgate"
	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/toolchain"
	"github.com/provekit/proofup/internal/ui"
)

func runDoctor(_ CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)
	ctx := context.Background()
	failed := false

	cfg, err := config.LoadGlobalConfigOrDefault()
	if err != nil {
		return exitWithError(out, err)
	}
	profile, err := config.ResolveProfile(cfg)
	if err != nil {
		return exitWithError(out, err)
	}

	console.Header("🩺", "proofup doctor")

	gate := osgate.Gate{
		Runner:          deps.Runner,
		Console:         console,
		RequiredRelease: requiredRelease,
		MinGlibc:        minGlibc,
		OSReleasePath:   osReleasePath(deps),
	}
	if release, err := gate.CurrentRelease(); err != nil {
		console.Error(fmt.Sprintf("os-release: %v", err))
		failed = true
	} else if release != requiredRelease {
		console.Error(fmt.Sprintf("Ubuntu %s installed, %s required", release, requiredRelease))
		failed = true
	} else {
		console.Success(fmt.Sprintf("Ubuntu %s", release))
	}

	if glibc, err := gate.GlibcVersion(ctx); err != nil {
		console.Error(fmt.Sprintf("glibc: %v", err))
		failed = true
	} else if osgate.VersionBelow(glibc, minGlibc) {
		console.Error(fmt.Sprintf("glibc %s installed, %s required", glibc, minGlibc))
		failed = true
	} else {
		console.Success(fmt.Sprintf("glibc %s", glibc))
	}

	home, err := resolveHome(deps)
	if err != nil {
		return exitWithError(out, err)
	}
	for _, tool := range toolchain.Catalog(home) {
		if _, err := runner.LookPath(tool.Binary); err != nil {
			console.Error(fmt.Sprintf("%s missing (%s)", tool.Name, tool.Binary))
			failed = true
			continue
		}
		console.Success(fmt.Sprintf("%s (%s)", tool.Name, tool.Binary))
	}

	if profile.RequiresDocker {
		if err := pingDocker(ctx, deps); err != nil {
			console.Error(err.Error())
			failed = true
		} else {
			console.Success("docker daemon reachable")
		}
	}

	configHome, err := config.HomeDir()
	if err != nil {
		return exitWithError(out, err)
	}
	store := envstore.Store{
		Path:    filepath.Join(configHome, envstore.EnvFileName),
		Profile: profile,
		// No prompter: doctor never creates the file.
	}
	if _, err := store.LoadOrCreate(); err != nil {
		console.Error(fmt.Sprintf("credentials: %v", err))
		failed = true
	} else {
		console.Success("credentials complete")
	}

	if failed {
		return 1
	}
	console.Success("all checks passed")
	return 0
}
