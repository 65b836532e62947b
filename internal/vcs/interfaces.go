package vcs

import (
	"context"

	"github.com/thomas-vilte/matebot/internal/models"
)

// VCSClient defines the source-control operations the CI commands rely on.
type VCSClient interface {
	// GetPR fetches the Pull Request metadata.
	GetPR(ctx context.Context, prNumber int) (models.PullRequestSummary, error)
	// GetPRDiff fetches the unified diff of the Pull Request. An empty string means no changes.
	GetPRDiff(ctx context.Context, prNumber int) (string, error)
	// ListWorkflowRuns lists the CI runs associated with a commit.
	ListWorkflowRuns(ctx context.Context, sha string) ([]models.WorkflowRun, error)
	// CreateComment posts a comment on the Pull Request conversation.
	CreateComment(ctx context.Context, prNumber int, body string) error
}
