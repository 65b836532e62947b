package models

type (
	// PullRequestSummary is a read-only view of a Pull Request, fetched fresh on every run.
	PullRequestSummary struct {
		Number       int
		HeadSHA      string
		BaseSHA      string
		Title        string
		Body         string
		State        string
		Commits      int
		Additions    int
		Deletions    int
		ChangedFiles int
	}

	// PRContext is the PR metadata handed to the documentation updater.
	PRContext struct {
		Title string
		Body  string
	}

	// ReviewResult describes what a review run did.
	ReviewResult struct {
		PRNumber      int
		WaitOutcome   string
		DiffSize      int
		ModelCalled   bool
		CommentPosted bool
		Usage         *TokenUsage
	}
)
