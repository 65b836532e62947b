package services

import (
	"context"
	"strings"

	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

// prReader defines the methods needed by DiffFetcher from a VCS provider.
type prReader interface {
	GetPR(ctx context.Context, prNumber int) (models.PullRequestSummary, error)
	GetPRDiff(ctx context.Context, prNumber int) (string, error)
}

type DiffFetcher struct {
	vcsClient prReader
}

func NewDiffFetcher(vcsClient prReader) *DiffFetcher {
	return &DiffFetcher{vcsClient: vcsClient}
}

// FetchDiff logs the PR metadata and returns its unified diff. An empty
// string means the PR has no content changes.
func (f *DiffFetcher) FetchDiff(ctx context.Context, prNumber int) (string, error) {
	log := logger.FromContext(ctx)

	pr, err := f.vcsClient.GetPR(ctx, prNumber)
	if err != nil {
		return "", err
	}

	log.Info("pull request loaded",
		"pr_number", prNumber,
		"title", pr.Title,
		"state", pr.State,
		"commits", pr.Commits,
		"additions", pr.Additions,
		"deletions", pr.Deletions,
		"changed_files", pr.ChangedFiles)

	diff, err := f.vcsClient.GetPRDiff(ctx, prNumber)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(diff) == "" {
		log.Info("pull request has no diff", "pr_number", prNumber)
		return "", nil
	}

	log.Debug("pull request diff fetched",
		"pr_number", prNumber,
		"size", len(diff))

	return diff, nil
}
