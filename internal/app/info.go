// Where: internal/app/info.go
// What: No-argument status display.
// Why: Show effective configuration before the user commits to a setup run.
package app

import (
	"io"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/envstore"
	"github.com/provekit/proofup/internal/ui"
)

// runInfo handles the case when proofup is invoked without arguments.
// It displays the active profile, workspace, and masked credentials.
func runInfo(_ Dependencies, out io.Writer) int {
	console := ui.New(out)

	cfg, err := config.LoadGlobalConfigOrDefault()
	if err != nil {
		return exitWithError(out, err)
	}
	profile, err := config.ResolveProfile(cfg)
	if err != nil {
		return exitWithError(out, err)
	}
	configPath, err := config.GlobalConfigPath()
	if err != nil {
		return exitWithError(out, err)
	}
	workspace, err := config.DefaultWorkspace(cfg)
	if err != nil {
		return exitWithError(out, err)
	}

	console.Header("🔗", "Network")
	console.Item("Profile", profile.Name)
	console.Item("Chain", profile.ChainName)
	console.Item("RPC", profile.JSONRPCURL)

	console.Header("📁", "Paths")
	console.Item("Config", configPath)
	console.Item("Workspace", workspace)

	console.Header("🔑", "Credentials")
	envPath := filepath.Join(filepath.Dir(configPath), envstore.EnvFileName)
	values, err := godotenv.Read(envPath)
	if err != nil {
		console.ItemPlain("no credential file yet (run `proofup setup`)")
		return 0
	}
	console.Item("API token", envstore.Mask(values[envstore.KeyAPIToken]))
	console.Item("Private key", envstore.Mask(values[envstore.KeyPrivateKey]))
	console.Item("Chain name", values[envstore.KeyChainName])
	console.Item("RPC URL", values[envstore.KeyJSONRPCURL])
	return 0
}
