package docs

import (
	"context"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

// Writer applies a validated plan under a root directory. Each entry replaces
// the whole target file.
type Writer struct {
	fs     billy.Filesystem
	dryRun bool
}

func NewWriter(root string, dryRun bool) *Writer {
	return NewWriterWithFS(osfs.New(root), dryRun)
}

func NewWriterWithFS(fs billy.Filesystem, dryRun bool) *Writer {
	return &Writer{fs: fs, dryRun: dryRun}
}

// Apply writes every update. A failing file is logged and skipped; the
// remaining updates still apply.
func (w *Writer) Apply(ctx context.Context, plan *models.DocUpdatePlan) models.DocWriteResult {
	log := logger.FromContext(ctx)
	result := models.DocWriteResult{
		Written: make([]string, 0, len(plan.Updates)),
		Failed:  make([]string, 0),
	}

	for _, update := range plan.Updates {
		file := path.Clean(strings.TrimSpace(update.File))

		if w.dryRun {
			log.Info("dry run, skipping write",
				"file", file,
				"action", update.Action,
				"reason", update.Reason,
				"size", len(update.Content))
			continue
		}

		if dir := path.Dir(file); dir != "." {
			if err := w.fs.MkdirAll(dir, 0755); err != nil {
				log.Error("failed to create documentation directory",
					"error", err,
					"file", file)
				result.Failed = append(result.Failed, file)
				continue
			}
		}

		if err := util.WriteFile(w.fs, file, []byte(update.Content), 0644); err != nil {
			log.Error("failed to write documentation file",
				"error", err,
				"file", file)
			result.Failed = append(result.Failed, file)
			continue
		}

		log.Info("documentation file written",
			"file", file,
			"action", update.Action,
			"reason", update.Reason)
		result.Written = append(result.Written, file)
	}

	return result
}
