// Where: internal/project/render.go
// What: Per-network env file rendering.
// Why: Regenerate each project's runtime env file from the current record.
package project

import (
	"bytes"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/provekit/proofup/internal/envstore"
)

// envFileTemplate is the runtime env file consumed by the prover scripts.
// Values are trimmed and quoted so keys survive shells and dotenv parsers
// alike.
const envFileTemplate = `API_TOKEN={{ .APIToken | trim | quote }}
PRIVATE_KEY={{ .PrivateKey | trim | quote }}
CHAIN_NAME={{ .ChainName | trim | quote }}
JSON_RPC_URL={{ .JSONRPCURL | trim | quote }}
`

var envTemplate = template.Must(
	template.New("project-env").Funcs(sprig.TxtFuncMap()).Parse(envFileTemplate))

// RenderEnvFile writes the per-network env file for the record, overwriting
// any previous content. The file lives next to the runtime manifests and is
// excluded from version control by the checkout's ignore rule.
func RenderEnvFile(path string, record envstore.Record) error {
	var buf bytes.Buffer
	if err := envTemplate.Execute(&buf, record); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
