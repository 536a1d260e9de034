// Where: internal/gitrepo/gitrepo.go
// What: Starter repository clone/pull and final commit helpers.
// Why: Keep the local template checkout in sync without ever losing it.
package gitrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/provekit/proofup/internal/runner"
	"github.com/provekit/proofup/internal/ui"
)

// IgnoreRule keeps generated per-network env files out of the checkout's
// version control.
const IgnoreRule = ".env.*.local"

// Syncer clones or updates the starter repository checkout.
type Syncer struct {
	Runner  runner.CommandRunner
	Console *ui.Console
}

// Sync ensures localPath holds a working checkout of remoteURL. An
// existing repository is pulled fast-forward only; a pull failure is a
// warning, never a deletion. A non-repository leftover at the path is
// removed before a fresh clone.
func (s Syncer) Sync(ctx context.Context, remoteURL, localPath string) error {
	if _, err := os.Stat(filepath.Join(localPath, ".git")); err == nil {
		s.Console.Info(fmt.Sprintf("updating %s", localPath))
		if err := s.Runner.Run(ctx, localPath, "git", "pull", "--ff-only", "origin", "main"); err != nil {
			s.Console.Warn(fmt.Sprintf("pull failed, continuing with existing checkout: %v", err))
		}
		return s.ensureIgnoreRule(localPath)
	}

	if _, err := os.Stat(localPath); err == nil {
		// Leftover directory without version control metadata.
		if err := os.RemoveAll(localPath); err != nil {
			return fmt.Errorf("remove stale %s: %w", localPath, err)
		}
	}

	s.Console.Info(fmt.Sprintf("cloning %s", remoteURL))
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	if err := s.Runner.Run(ctx, "", "git", "clone", remoteURL, localPath); err != nil {
		return fmt.Errorf("clone %s: %w", remoteURL, err)
	}
	return s.ensureIgnoreRule(localPath)
}

// Commit stages and commits any changes in the checkout. Nothing to commit
// is not an error; this step is best-effort by contract.
func (s Syncer) Commit(ctx context.Context, localPath, message string) {
	if err := s.Runner.RunQuiet(ctx, localPath, "git", "add", "-A"); err != nil {
		s.Console.Warn(fmt.Sprintf("git add failed: %v", err))
		return
	}
	if err := s.Runner.RunQuiet(ctx, localPath, "git", "commit", "-m", message); err != nil {
		s.Console.ItemPlain("nothing to commit")
	}
}

// ensureIgnoreRule appends the generated-env ignore rule to the checkout's
// .gitignore exactly once.
func (s Syncer) ensureIgnoreRule(localPath string) error {
	path := filepath.Join(localPath, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == IgnoreRule {
			return nil
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	prefix := ""
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		prefix = "\n"
	}
	_, err = fmt.Fprintf(file, "%s%s\n", prefix, IgnoreRule)
	return err
}
