// Where: cmd/proofup/main.go
// What: CLI entrypoint.
// Why: Execute proofup commands with configured dependencies.
package main

import (
	"os"

	"github.com/provekit/proofup/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:], buildDependencies()))
}
