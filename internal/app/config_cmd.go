// Where: internal/app/config_cmd.go
// What: Config subcommands.
// Why: Inspect and change the persisted global configuration.
package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/ui"
)

func runConfigShow(_ CLI, deps Dependencies, out io.Writer) int {
	return runInfo(deps, out)
}

func runConfigPath(_ CLI, _ Dependencies, out io.Writer) int {
	path, err := config.GlobalConfigPath()
	if err != nil {
		return exitWithError(out, err)
	}
	fmt.Fprintln(out, path)
	return 0
}

func runConfigSetProfile(cli CLI, _ Dependencies, out io.Writer) int {
	console := ui.New(out)
	name := strings.TrimSpace(cli.Config.SetProfile.Name)

	path, err := config.GlobalConfigPath()
	if err != nil {
		return exitWithError(out, err)
	}
	cfg, err := config.LoadGlobalConfigOrDefault()
	if err != nil {
		return exitWithError(out, err)
	}

	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return exitWithError(out, err)
	}
	if _, ok := profiles[name]; !ok {
		return exitWithError(out, fmt.Errorf("unknown network profile %q (known: %s)",
			name, strings.Join(config.ProfileNames(profiles), ", ")))
	}

	cfg.Profile = name
	if err := config.SaveGlobalConfig(path, cfg); err != nil {
		return exitWithError(out, err)
	}
	console.Success(fmt.Sprintf("active profile set to %s", name))
	return 0
}
