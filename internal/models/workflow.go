package models

const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
)

// WorkflowRun is a CI run associated with a commit. Conclusion is only
// meaningful once the run is terminal.
type WorkflowRun struct {
	ID         int64
	Name       string
	Status     string
	Conclusion string
	HeadSHA    string
}

// IsTerminal reports whether the run can no longer change state.
func (r WorkflowRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted
}
