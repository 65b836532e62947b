package docs

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/thomas-vilte/matebot/internal/logger"
)

// ResolveRoot returns the worktree root of the repository containing dir, or
// dir itself when it is not inside a repository.
func ResolveRoot(ctx context.Context, dir string) string {
	log := logger.FromContext(ctx)

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		log.Debug("not inside a git repository, using directory as docs root",
			"dir", abs,
			"error", err)
		return abs
	}

	wt, err := repo.Worktree()
	if err != nil {
		log.Debug("repository has no worktree, using directory as docs root",
			"dir", abs,
			"error", err)
		return abs
	}

	return wt.Filesystem.Root()
}
