// Where: internal/config/profiles.go
// What: Network profile catalog and user profile loading.
// Why: Pair chain names with RPC endpoints and per-network env filenames.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	sigsyaml "sigs.k8s.io/yaml"
)

// Profile pairs a chain name with its RPC endpoint, selecting test versus
// main network for every generated env file and prove task.
type Profile struct {
	Name       string `json:"name" yaml:"name"`
	ChainName  string `json:"chain_name" yaml:"chain_name"`
	JSONRPCURL string `json:"json_rpc_url" yaml:"json_rpc_url"`
	// RequiresDocker marks profiles backed by a local proving environment.
	RequiresDocker bool `json:"requires_docker,omitempty" yaml:"requires_docker,omitempty"`
}

// EnvFileName returns the per-project env filename for the profile,
// e.g. ".env.testnet.local". Regenerated files carry the .local suffix so
// the starter repo's ignore rule keeps them out of version control.
func (p Profile) EnvFileName() string {
	return fmt.Sprintf(".env.%s.local", p.Name)
}

// ProveTask returns the package.json script name exercising the prover
// against this profile, e.g. "prove:testnet".
func (p Profile) ProveTask() string {
	return "prove:" + p.Name
}

// builtinProfiles is the compiled-in network catalog.
var builtinProfiles = []Profile{
	{Name: "testnet", ChainName: "optimismSepolia", JSONRPCURL: "https://sepolia.optimism.io"},
	{Name: "mainnet", ChainName: "optimism", JSONRPCURL: "https://mainnet.optimism.io"},
	{Name: "devnet", ChainName: "anvilDev", JSONRPCURL: "http://localhost:8545", RequiresDocker: true},
}

//go:embed schema/profiles.schema.json
var profileSchemaFS embed.FS

// userProfilesFile mirrors the structure of ~/.proofup/profiles.yaml.
type userProfilesFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

// LoadProfiles returns the merged profile catalog: built-ins plus any
// entries from the user profiles file at path. User entries override
// built-ins with the same name. An empty path skips the user file.
func LoadProfiles(path string) (map[string]Profile, error) {
	merged := make(map[string]Profile, len(builtinProfiles))
	for _, p := range builtinProfiles {
		merged[p.Name] = p
	}

	if strings.TrimSpace(path) == "" {
		return merged, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merged, nil
		}
		return nil, err
	}

	parsed, err := parseUserProfiles(payload)
	if err != nil {
		return nil, fmt.Errorf("profiles file %s: %w", path, err)
	}
	for _, p := range parsed.Profiles {
		merged[p.Name] = p
	}
	return merged, nil
}

// ResolveProfile looks up name in the merged catalog.
func ResolveProfile(cfg GlobalConfig) (Profile, error) {
	profiles, err := LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return Profile{}, err
	}
	profile, ok := profiles[cfg.Profile]
	if !ok {
		return Profile{}, fmt.Errorf("unknown network profile %q (known: %s)",
			cfg.Profile, strings.Join(ProfileNames(profiles), ", "))
	}
	return profile, nil
}

// ProfileNames returns the sorted names of the catalog.
func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseUserProfiles validates the YAML payload against the embedded JSON
// schema before decoding it.
func parseUserProfiles(payload []byte) (userProfilesFile, error) {
	jsonData, err := sigsyaml.YAMLToJSON(payload)
	if err != nil {
		return userProfilesFile{}, fmt.Errorf("convert yaml to json: %w", err)
	}

	sch, err := loadProfileSchema()
	if err != nil {
		return userProfilesFile{}, err
	}

	var document any
	if err := json.Unmarshal(jsonData, &document); err != nil {
		return userProfilesFile{}, fmt.Errorf("decode json: %w", err)
	}
	if err := sch.Validate(document); err != nil {
		return userProfilesFile{}, err
	}

	var parsed userProfilesFile
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		return userProfilesFile{}, err
	}
	return parsed, nil
}

func loadProfileSchema() (*jsonschema.Schema, error) {
	raw, err := profileSchemaFS.ReadFile("schema/profiles.schema.json")
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("profiles.schema.json", strings.NewReader(string(raw))); err != nil {
		return nil, err
	}
	return compiler.Compile("profiles.schema.json")
}
