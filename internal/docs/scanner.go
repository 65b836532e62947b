package docs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

// Scanner discovers documentation files under a root directory.
type Scanner struct {
	root         string
	extension    string
	excludedDirs map[string]bool
}

func NewScanner(root, extension string, excludedDirs []string) *Scanner {
	excluded := make(map[string]bool, len(excludedDirs))
	for _, dir := range excludedDirs {
		excluded[dir] = true
	}
	return &Scanner{
		root:         root,
		extension:    strings.ToLower(extension),
		excludedDirs: excluded,
	}
}

// HasExtension reports whether path is a documentation file, ignoring case.
func HasExtension(path, extension string) bool {
	return strings.HasSuffix(strings.ToLower(path), strings.ToLower(extension))
}

// Scan returns every documentation file with its full text, sorted by path.
// Excluded directories and paths ignored by .gitignore files are skipped.
func (s *Scanner) Scan(ctx context.Context) ([]models.DocFile, error) {
	log := logger.FromContext(ctx)

	patterns, err := gitignore.ReadPatterns(osfs.New(s.root), nil)
	if err != nil {
		log.Warn("could not read .gitignore patterns, continuing without them",
			"root", s.root,
			"error", err)
		patterns = nil
	}
	matcher := gitignore.NewMatcher(patterns)

	files := make([]models.DocFile, 0)
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			log.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil || rel == "." {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if s.excludedDirs[d.Name()] || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !HasExtension(d.Name(), s.extension) || matcher.Match(parts, false) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn("could not read documentation file", "path", rel, "error", err)
			return nil
		}

		files = append(files, models.DocFile{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, domainErrors.ErrScanDocs.WithError(err).WithContext("root", s.root)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	log.Debug("documentation files discovered",
		"root", s.root,
		"count", len(files))

	return files, nil
}
