package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeAI            ErrorType = "AI"
	TypeVCS           ErrorType = "VCS"
	TypeGit           ErrorType = "GIT"
	TypeDocs          ErrorType = "DOCS"
	TypeInternal      ErrorType = "INTERNAL"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinels by type and message so that copies produced by the
// With* builders still satisfy errors.Is against the original variable.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Git errors
var (
	ErrMergeBase = NewAppError(TypeGit, "Failed to compute merge base", nil).
			WithSuggestion("Fetch the trunk branch with full history: git fetch --unshallow origin main")

	ErrGetChangedFiles = NewAppError(TypeGit, "Failed to get changed files", nil).
				WithSuggestion("Make sure both commits exist locally: git log --oneline")

	ErrGetDiff = NewAppError(TypeGit, "Failed to get diff", nil)

	ErrNotInGitRepo = NewAppError(TypeGit, "Not in a git repository", nil).
			WithSuggestion("Run the command from the repository checkout")
)

// Configuration errors
var (
	ErrAPIKeyMissing = NewAppError(TypeConfiguration, "AI API key is missing", nil).
				WithSuggestion("Set ANTHROPIC_API_KEY (or the key of the configured provider)")

	ErrTokenMissing = NewAppError(TypeConfiguration, "GitHub token is missing", nil).
			WithSuggestion("Set GITHUB_TOKEN in the job environment")

	ErrRepositoryMissing = NewAppError(TypeConfiguration, "Repository owner or name is missing", nil).
				WithSuggestion("Set REPO_OWNER and REPO_NAME, or GITHUB_REPOSITORY=owner/name")

	ErrPRNumberMissing = NewAppError(TypeConfiguration, "Pull request number is missing or invalid", nil).
				WithSuggestion("Set PR_NUMBER to the pull request number")

	ErrInvalidConfig = NewAppError(TypeConfiguration, "Invalid configuration", nil)

	ErrProviderNotSupported = NewAppError(TypeConfiguration, "AI provider not supported", nil).
				WithSuggestion("Use one of: anthropic, gemini, openai")
)

// VCS errors
var (
	ErrRepositoryNotFound = NewAppError(TypeVCS, "repository or resource not found", nil).
				WithSuggestion("Check repository name and token access permissions")

	ErrGitHubTokenInvalid = NewAppError(TypeVCS, "GitHub token is invalid or expired", nil).
				WithSuggestion("Check the GITHUB_TOKEN secret of the job")

	ErrGitHubInsufficientPerms = NewAppError(TypeVCS, "GitHub token has insufficient permissions", nil).
					WithSuggestion("Grant the job 'pull-requests: write', 'issues: write' and 'actions: read' permissions")

	ErrGitHubRateLimit = NewAppError(TypeVCS, "GitHub API rate limit exceeded", nil).
				WithSuggestion("Wait a few minutes and re-run the job")

	ErrUnexpectedResponse = NewAppError(TypeVCS, "unexpected response", nil)

	ErrCreateComment = NewAppError(TypeVCS, "failed to create comment", nil)

	ErrWorkflowTimeout = NewAppError(TypeVCS, "timed out waiting for workflow", nil).
				WithSuggestion("Raise --timeout or check that the workflow runs for this commit")
)

// AI errors
var (
	ErrAIGeneration = NewAppError(TypeAI, "AI generation failed", nil).
			WithSuggestion("Try again or check your API key configuration")

	ErrInvalidAIOutput = NewAppError(TypeAI, "invalid AI output format", nil).
				WithSuggestion("This is likely a temporary issue, please try again")

	ErrQuotaExceeded = NewAppError(TypeAI, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrAIKeyInvalid = NewAppError(TypeAI, "AI API key is invalid", nil).
			WithSuggestion("Rotate the provider API key secret of the job")
)

// Docs errors
var (
	ErrNoJSONObject = NewAppError(TypeDocs, "no JSON object found in model response", nil)

	ErrInvalidPlan = NewAppError(TypeDocs, "invalid documentation update plan", nil)

	ErrScanDocs = NewAppError(TypeDocs, "failed to scan documentation files", nil)

	ErrWriteDoc = NewAppError(TypeDocs, "failed to write documentation file", nil)
)
