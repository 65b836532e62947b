package docs

import (
	"fmt"
	"path/filepath"
	"strings"

	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/models"
)

// ValidatePlan checks every entry before anything is written. A single bad
// entry rejects the whole plan.
func ValidatePlan(root string, plan *models.DocUpdatePlan) error {
	if plan == nil {
		return domainErrors.ErrInvalidPlan.WithContext("reason", "plan is missing")
	}

	for i, update := range plan.Updates {
		if err := validateUpdate(root, update); err != nil {
			return domainErrors.ErrInvalidPlan.
				WithError(err).
				WithContext("index", i).
				WithContext("file", update.File)
		}
	}
	return nil
}

func validateUpdate(root string, update models.DocUpdate) error {
	switch update.Action {
	case models.DocActionUpdate, models.DocActionCreate:
	default:
		return fmt.Errorf("unknown action %q", update.Action)
	}

	file := strings.TrimSpace(update.File)
	if file == "" {
		return fmt.Errorf("empty file path")
	}
	if filepath.IsAbs(file) || strings.HasPrefix(file, "/") || strings.HasPrefix(file, `\`) || filepath.VolumeName(file) != "" {
		return fmt.Errorf("absolute path %q", file)
	}

	rel, err := filepath.Rel(root, filepath.Join(root, filepath.FromSlash(file)))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the working tree", file)
	}
	if strings.Split(filepath.ToSlash(rel), "/")[0] == ".git" {
		return fmt.Errorf("path %q points into .git", file)
	}

	return nil
}
