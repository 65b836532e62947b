package models

const (
	DocActionUpdate = "update"
	DocActionCreate = "create"
)

type (
	// DocUpdatePlan is the model's proposal. Every entry carries the full
	// target file text, never a patch.
	DocUpdatePlan struct {
		Updates []DocUpdate `json:"updates"`
		Summary string      `json:"summary"`
	}

	DocUpdate struct {
		File    string `json:"file"`
		Action  string `json:"action"`
		Content string `json:"content"`
		Reason  string `json:"reason"`
	}

	// DocFile is an existing documentation file read from the working tree.
	DocFile struct {
		Path    string
		Content string
	}

	// FileDiff is the diff of one changed source file against the merge base.
	FileDiff struct {
		Path string
		Diff string
	}

	DocWriteResult struct {
		Written []string
		Failed  []string
	}

	// DocsResult describes what a documentation update run did.
	DocsResult struct {
		MergeBase    string
		ChangedFiles []string
		DiffedFiles  []string
		Plan         *DocUpdatePlan
		Written      []string
		Failed       []string
		Usage        *TokenUsage
	}
)
