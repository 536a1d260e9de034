// Where: cmd/proofup/cli.go
// What: CLI dependency wiring helpers.
// Why: Centralize construction for testability.
package main

import (
	"os"

	"github.com/provekit/proofup/internal/app"
	"github.com/provekit/proofup/internal/devnet"
	"github.com/provekit/proofup/internal/interaction"
	"github.com/provekit/proofup/internal/runner"
)

// buildDependencies constructs all runtime dependencies required by the CLI.
// The Docker client is constructed lazily: only profiles backed by a local
// proving environment ever need the daemon.
func buildDependencies() app.Dependencies {
	return app.Dependencies{
		Out:           os.Stdout,
		Runner:        runner.ExecRunner{},
		Prompter:      interaction.HuhPrompter{},
		DockerFactory: devnet.NewDockerClient,
	}
}
