// Where: internal/app/app.go
// What: CLI entrypoint logic.
// Why: Provide a testable command dispatcher.
package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/devnet"
	"github.com/provekit/proofup/internal/interaction"
	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/version"
)

// Dependencies holds all injected dependencies required for CLI command
// execution. This structure enables dependency injection for testing and
// allows swapping implementations of various subsystems.
type Dependencies struct {
	Out      io.Writer
	Runner   runner.CommandRunner
	Prompter interaction.Prompter
	// DockerFactory builds the client for the devnet daemon check lazily,
	// so profiles without Docker never touch the SDK.
	DockerFactory func() (devnet.DockerClient, error)
	// Home overrides the user home directory in tests.
	Home string
	// OSReleasePath overrides /etc/os-release in tests.
	OSReleasePath string
	// RetryDelay overrides the fixed backoff between retry attempts.
	RetryDelay time.Duration
}

// CLI defines the command-line interface structure parsed by Kong.
type CLI struct {
	Setup   SetupCmd   `cmd:"" help:"Prepare this machine and the selected example projects"`
	Doctor  DoctorCmd  `cmd:"" help:"Check OS, tools, Docker, and credentials without changing anything"`
	Config  ConfigCmd  `cmd:"" name:"config" help:"Manage configuration"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

type SetupCmd struct {
	Selector string `arg:"" optional:"" help:"Project set: all | email-proof | teleport | time-travel | web-proof"`
}

type DoctorCmd struct{}

type VersionCmd struct{}

type ConfigCmd struct {
	Show       ConfigShowCmd       `cmd:"" help:"Show effective configuration (credentials masked)"`
	SetProfile ConfigSetProfileCmd `cmd:"" name:"set-profile" help:"Switch the active network profile"`
	Path       ConfigPathCmd       `cmd:"" help:"Print the global config file path"`
}

type (
	ConfigShowCmd struct{}
	ConfigPathCmd struct{}

	ConfigSetProfileCmd struct {
		Name string `arg:"" help:"Profile name"`
	}
)

// Run is the main entry point for CLI command execution.
// It parses the command-line arguments, identifies the requested command,
// and dispatches to the appropriate handler. Returns 0 on success, 1 on error.
func Run(args []string, deps Dependencies) int {
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	if err := config.EnsureGlobalConfig(); err != nil {
		return exitWithError(out, err)
	}

	// Handle no arguments: show current configuration and status
	if len(args) == 0 {
		return runInfo(deps, out)
	}

	cli := CLI{}
	parser, err := kong.New(&cli)
	if err != nil {
		return exitWithError(out, err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return exitWithError(out, err)
	}

	command := ctx.Command()
	if exitCode, handled := dispatchCommand(command, cli, deps, out); handled {
		return exitCode
	}

	fmt.Fprintln(out, "unknown command")
	return 1
}

type commandHandler func(CLI, Dependencies, io.Writer) int

type prefixHandler struct {
	prefix  string
	handler commandHandler
}

func dispatchCommand(command string, cli CLI, deps Dependencies, out io.Writer) (int, bool) {
	exactHandlers := map[string]commandHandler{
		"setup":       runSetup,
		"doctor":      runDoctor,
		"config show": runConfigShow,
		"config path": runConfigPath,
		"version":     func(_ CLI, _ Dependencies, out io.Writer) int { return runVersion(out) },
	}

	if handler, ok := exactHandlers[command]; ok {
		return handler(cli, deps, out), true
	}

	prefixHandlers := []prefixHandler{
		{prefix: "setup", handler: runSetup},
		{prefix: "config set-profile", handler: runConfigSetProfile},
	}

	for _, entry := range prefixHandlers {
		if strings.HasPrefix(command, entry.prefix) {
			return entry.handler(cli, deps, out), true
		}
	}

	return 1, false
}

// runVersion prints the version information of the CLI.
func runVersion(out io.Writer) int {
	fmt.Fprintln(out, version.GetVersion())
	return 0
}

func exitWithError(out io.Writer, err error) int {
	fmt.Fprintln(out, err)
	return 1
}
