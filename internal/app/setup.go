// Where: internal/app/setup.go
// What: The setup orchestrator command.
// Why: Run OS gate, tool installs, env store, repo sync, and project setup
//      in the one fixed order that makes re-runs safe.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/devnet"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/gitrepo"
	"github.com/provekit/proofup/internal/interaction"
	"github.com/provekit/proofup/internal/osgate"
	"github.com/provekit/proofup/internal/project"
	"github.com/provekit/proofup/internal/toolchain"
	"github.com/provekit/proofup/internal/ui"
)

// Target platform for the prover toolchain.
const (
	requiredRelease  = "24.04"
	requiredCodename = "noble"
	minGlibc         = "2.39"
)

// starterRepoURL is the template repository cloned into the workspace.
const starterRepoURL = "https://github.com/provekit/starters.git"

const defaultRetryDelay = 5 * time.Second

func runSetup(cli CLI, deps Dependencies, out io.Writer) int {
	console := ui.New(out)
	ctx := context.Background()

	selector, err := resolveSelector(cli.Setup.Selector, deps.Prompter)
	if err != nil {
		return exitWithError(out, err)
	}
	descriptors, err := project.Resolve(selector)
	if err != nil {
		return exitWithError(out, err)
	}

	cfg, err := config.LoadGlobalConfigOrDefault()
	if err != nil {
		return exitWithError(out, err)
	}
	profile, err := config.ResolveProfile(cfg)
	if err != nil {
		return exitWithError(out, err)
	}

	home, err := resolveHome(deps)
	if err != nil {
		return exitWithError(out, err)
	}
	delay := deps.RetryDelay
	if delay == 0 {
		delay = defaultRetryDelay
	}

	console.Header("🚀", fmt.Sprintf("proofup setup (%s, network %s)", selector, profile.Name))

	gate := osgate.Gate{
		Runner:           deps.Runner,
		Console:          console,
		RequiredRelease:  requiredRelease,
		RequiredCodename: requiredCodename,
		MinGlibc:         minGlibc,
		OSReleasePath:    osReleasePath(deps),
		RebootOnUpgrade:  cfg.RebootOnUpgrade,
		Delay:            delay,
	}
	if err := gate.EnsureRelease(ctx); err != nil {
		return exitWithError(out, err)
	}

	installer := toolchain.Installer{
		Runner:      deps.Runner,
		Console:     console,
		Delay:       delay,
		ProfilePath: filepath.Join(home, ".bashrc"),
	}
	for _, tool := range toolchain.Catalog(home) {
		if err := installer.EnsureInstalled(ctx, tool); err != nil {
			return exitWithError(out, err)
		}
	}

	record, err := loadRecord(cfg, profile, deps)
	if err != nil {
		return exitWithError(out, err)
	}

	if profile.RequiresDocker {
		if err := pingDocker(ctx, deps); err != nil {
			return exitWithError(out, err)
		}
	}

	workspace, err := config.DefaultWorkspace(cfg)
	if err != nil {
		return exitWithError(out, err)
	}
	syncer := gitrepo.Syncer{Runner: deps.Runner, Console: console}
	if err := syncer.Sync(ctx, starterRepoURL, workspace); err != nil {
		return exitWithError(out, err)
	}

	initializer := project.Initializer{
		Runner:            deps.Runner,
		Console:           console,
		Workspace:         workspace,
		Profile:           profile,
		ProveFailureFatal: cfg.ProveFailureFatal,
	}
	for _, descriptor := range descriptors {
		if err := initializer.Setup(ctx, descriptor, record); err != nil {
			return exitWithError(out, err)
		}
	}

	syncer.Commit(ctx, workspace, "proofup setup "+selector)

	console.Success(fmt.Sprintf("Setup complete: %s", selector))
	return 0
}

// resolveSelector validates a supplied selector or, when none was given,
// asks interactively with "all" as the default. Without a terminal the
// default is taken silently so unattended runs keep working.
func resolveSelector(value string, prompter interaction.Prompter) (string, error) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed, nil
	}
	if prompter == nil || !interaction.IsTerminal(os.Stdin) {
		return project.SelectorAll, nil
	}

	options := make([]interaction.SelectOption, 0, len(project.Selectors()))
	for _, name := range project.Selectors() {
		label := name
		if name == project.SelectorAll {
			label = "all (default)"
		}
		options = append(options, interaction.SelectOption{Label: label, Value: name})
	}
	selected, err := prompter.SelectValue("Which project set?", options)
	if err != nil {
		return "", err
	}
	if selected == "" {
		return project.SelectorAll, nil
	}
	return selected, nil
}

// loadRecord runs the environment store against the per-user env file.
func loadRecord(cfg config.GlobalConfig, profile config.Profile, deps Dependencies) (envstore.Record, error) {
	configHome, err := config.HomeDir()
	if err != nil {
		return envstore.Record{}, err
	}
	store := envstore.Store{
		Path:     filepath.Join(configHome, envstore.EnvFileName),
		Profile:  profile,
		Prompter: deps.Prompter,
	}
	return store.LoadOrCreate()
}

func pingDocker(ctx context.Context, deps Dependencies) error {
	factory := deps.DockerFactory
	if factory == nil {
		factory = devnet.NewDockerClient
	}
	client, err := factory()
	if err != nil {
		return err
	}
	return devnet.PingDaemon(ctx, client)
}

func resolveHome(deps Dependencies) (string, error) {
	if deps.Home != "" {
		return deps.Home, nil
	}
	return os.UserHomeDir()
}

func osReleasePath(deps Dependencies) string {
	if deps.OSReleasePath != "" {
		return deps.OSReleasePath
	}
	return "/etc/os-release"
}
