// Where: internal/envstore/envstore.go
// What: Persisted environment record (credentials + network parameters).
// Why: One load-or-create path for the four keys every setup step needs.
package envstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/provekit/proofup/internal/config"
	"github.com/provekit/proofup/internal/interaction"
)

// The four keys of the environment record. Credentials are never defaulted;
// the chain parameters fall back to the active network profile.
const (
	KeyAPIToken   = "API_TOKEN"
	KeyPrivateKey = "PRIVATE_KEY"
	KeyChainName  = "CHAIN_NAME"
	KeyJSONRPCURL = "JSON_RPC_URL"
)

// EnvFileName is the backing file inside the proofup home directory.
const EnvFileName = ".env"

// ErrConfigIncomplete signals that a required key is still empty after
// load-or-create. This aborts the run before any external tool invocation.
var ErrConfigIncomplete = errors.New("environment record incomplete")

// Record is the flat environment record persisted to ~/.proofup/.env.
type Record struct {
	APIToken   string
	PrivateKey string
	ChainName  string
	JSONRPCURL string
}

// Map returns the record as the key-value mapping written to env files.
func (r Record) Map() map[string]string {
	return map[string]string{
		KeyAPIToken:   r.APIToken,
		KeyPrivateKey: r.PrivateKey,
		KeyChainName:  r.ChainName,
		KeyJSONRPCURL: r.JSONRPCURL,
	}
}

// Validate reports ErrConfigIncomplete naming the first empty key.
func (r Record) Validate() error {
	for _, field := range []struct {
		key   string
		value string
	}{
		{KeyAPIToken, r.APIToken},
		{KeyPrivateKey, r.PrivateKey},
		{KeyChainName, r.ChainName},
		{KeyJSONRPCURL, r.JSONRPCURL},
	} {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrConfigIncomplete, field.key)
		}
	}
	return nil
}

// Store loads and creates the persisted environment record.
type Store struct {
	// Path of the backing env file.
	Path string
	// Profile supplies defaults for the chain parameters.
	Profile config.Profile
	// Prompter collects credentials on first run. Nil disables prompting,
	// turning a missing file into ErrConfigIncomplete.
	Prompter interaction.Prompter
}

// LoadOrCreate reads the backing file when present, merging profile
// defaults for missing chain parameters. When absent it prompts for the
// two credential fields, writes the file owner-read-write-only, and
// returns the combined record. Either way the post-condition is a record
// with all four keys non-empty, or ErrConfigIncomplete.
func (s Store) LoadOrCreate() (Record, error) {
	record, err := s.load()
	if err != nil {
		if !os.IsNotExist(err) {
			return Record{}, err
		}
		record, err = s.create()
		if err != nil {
			return Record{}, err
		}
	}

	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	return record, nil
}

func (s Store) load() (Record, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return Record{}, err
	}
	values, err := godotenv.Read(s.Path)
	if err != nil {
		return Record{}, err
	}

	record := Record{
		APIToken:   values[KeyAPIToken],
		PrivateKey: values[KeyPrivateKey],
		ChainName:  values[KeyChainName],
		JSONRPCURL: values[KeyJSONRPCURL],
	}
	if strings.TrimSpace(record.ChainName) == "" {
		record.ChainName = s.Profile.ChainName
	}
	if strings.TrimSpace(record.JSONRPCURL) == "" {
		record.JSONRPCURL = s.Profile.JSONRPCURL
	}
	return record, nil
}

func (s Store) create() (Record, error) {
	if s.Prompter == nil {
		return Record{}, fmt.Errorf("%w: %s missing and prompting disabled", ErrConfigIncomplete, s.Path)
	}

	token, err := s.Prompter.Input("API token", nil)
	if err != nil {
		return Record{}, err
	}
	privateKey, err := s.Prompter.Secret("Test wallet private key")
	if err != nil {
		return Record{}, err
	}

	record := Record{
		APIToken:   strings.TrimSpace(token),
		PrivateKey: strings.TrimSpace(privateKey),
		ChainName:  s.Profile.ChainName,
		JSONRPCURL: s.Profile.JSONRPCURL,
	}
	if err := record.Validate(); err != nil {
		return Record{}, err
	}
	if err := Write(s.Path, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Write persists the record as a key=value file restricted to the owner.
func Write(path string, record Record) error {
	content, err := godotenv.Marshal(record.Map())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content+"\n"), 0o600); err != nil {
		return err
	}
	// WriteFile does not change the mode of a pre-existing file.
	return os.Chmod(path, 0o600)
}

// Mask returns a redacted form of a credential value for display. Slicing
// happens on runes so multi-byte values stay valid UTF-8.
func Mask(value string) string {
	trimmed := []rune(strings.TrimSpace(value))
	if len(trimmed) == 0 {
		return "(unset)"
	}
	if len(trimmed) <= 8 {
		return "****"
	}
	return string(trimmed[:4]) + "…" + string(trimmed[len(trimmed)-4:])
}
