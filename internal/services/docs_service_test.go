package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matebot/internal/config"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/models"
)

type docsFixture struct {
	git       *MockGitService
	completer *MockCompleter
	scanner   *MockDocScanner
	writer    *MockDocWriter
	config    *config.Config
	service   *DocsService
}

func newDocsFixture(t *testing.T) *docsFixture {
	t.Helper()

	f := &docsFixture{
		git:       &MockGitService{},
		completer: &MockCompleter{},
		scanner:   &MockDocScanner{},
		writer:    &MockDocWriter{},
		config:    config.Default(),
	}
	f.completer.On("GetProviderName").Return("anthropic").Maybe()
	f.completer.On("GetModelName").Return("claude-sonnet-4-5").Maybe()

	f.service = NewDocsService(
		WithDocsGitService(f.git),
		WithDocsCompleter(f.completer),
		WithDocsScanner(f.scanner),
		WithDocsWriter(f.writer),
		WithDocsConfig(f.config),
		WithDocsRoot("/work/repo"),
	)
	return f
}

var prContext = models.PRContext{Title: "Add retry flag", Body: "Adds --retry"}

func TestDocsService_Update(t *testing.T) {
	t.Run("should only diff non-documentation files", func(t *testing.T) {
		f := newDocsFixture(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"src/a.js", "README.md"}, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "src/a.js").Return("+export const retry = true", nil).Once()
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{{Path: "README.md", Content: "# Project"}}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "## src/a.js") &&
				strings.Contains(prompt, "+export const retry = true") &&
				strings.Contains(prompt, "# Project") &&
				strings.Contains(prompt, "Add retry flag") &&
				strings.Contains(prompt, "Adds --retry")
		}), 8192).Return(models.Completion{Text: `{"updates":[{"file":"README.md","action":"update","content":"# Project\n\nUse --retry.","reason":"new flag"}],"summary":"Documented --retry"}`}, nil).Once()
		f.writer.On("Apply", mock.Anything, mock.MatchedBy(func(plan *models.DocUpdatePlan) bool {
			return len(plan.Updates) == 1 && plan.Updates[0].File == "README.md"
		})).Return(models.DocWriteResult{Written: []string{"README.md"}, Failed: []string{}}).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Equal(t, "abc123", result.MergeBase)
		assert.Equal(t, []string{"src/a.js"}, result.ChangedFiles)
		assert.Equal(t, []string{"src/a.js"}, result.DiffedFiles)
		assert.Equal(t, []string{"README.md"}, result.Written)
		assert.Equal(t, "Documented --retry", result.Plan.Summary)
		f.git.AssertNotCalled(t, "FileDiff", mock.Anything, mock.Anything, mock.Anything, "README.md")
		f.git.AssertExpectations(t)
		f.completer.AssertExpectations(t)
		f.writer.AssertExpectations(t)
	})

	t.Run("should stop when only documentation changed", func(t *testing.T) {
		f := newDocsFixture(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"README.md", "docs/GUIDE.MD"}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Empty(t, result.ChangedFiles)
		f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		f.scanner.AssertNotCalled(t, "Scan", mock.Anything)
	})

	t.Run("should stop when nothing changed", func(t *testing.T) {
		f := newDocsFixture(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Empty(t, result.ChangedFiles)
		f.git.AssertNotCalled(t, "FileDiff", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should cap diffs at the configured number of files", func(t *testing.T) {
		f := newDocsFixture(t)

		changed := make([]string, 0, 12)
		for i := 0; i < 12; i++ {
			changed = append(changed, fmt.Sprintf("src/file%02d.go", i))
		}

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return(changed, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", mock.Anything).Return("+change", nil)
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.Anything, 8192).
			Return(models.Completion{Text: `{"updates":[],"summary":"nothing"}`}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Len(t, result.ChangedFiles, 12)
		assert.Equal(t, changed[:10], result.DiffedFiles)
		f.git.AssertNumberOfCalls(t, "FileDiff", 10)
		f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("should skip files with empty diffs", func(t *testing.T) {
		f := newDocsFixture(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"bin/tool", "src/a.js"}, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "bin/tool").Return("", nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "src/a.js").Return("+x", nil).Once()
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return !strings.Contains(prompt, "bin/tool") && strings.Contains(prompt, "src/a.js")
		}), 8192).Return(models.Completion{Text: `{"updates":[],"summary":"nothing"}`}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Equal(t, []string{"src/a.js"}, result.DiffedFiles)
	})

	t.Run("should still ask the model when every diff is empty", func(t *testing.T) {
		f := newDocsFixture(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"bin/tool"}, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "bin/tool").Return("", nil).Once()
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{{Path: "README.md", Content: "# Project"}}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return !strings.Contains(prompt, "## bin/tool") &&
				strings.Contains(prompt, "# Project") &&
				strings.Contains(prompt, "Add retry flag")
		}), 8192).Return(models.Completion{Text: `{"updates":[],"summary":"nothing"}`}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Empty(t, result.DiffedFiles)
		f.completer.AssertExpectations(t)
		f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("should skip a file whose diff fails", func(t *testing.T) {
		f := newDocsFixture(t)
		ctx, logs := captureLogs(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"src/gone.go", "src/a.js"}, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "src/gone.go").Return("", domainErrors.ErrGetDiff).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "src/a.js").Return("+x", nil).Once()
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return !strings.Contains(prompt, "src/gone.go") && strings.Contains(prompt, "src/a.js")
		}), 8192).Return(models.Completion{Text: `{"updates":[],"summary":"nothing"}`}, nil).Once()

		result, err := f.service.Update(ctx, prContext)

		require.NoError(t, err)
		assert.Equal(t, []string{"src/a.js"}, result.DiffedFiles)
		assert.Contains(t, logs.String(), "could not diff file")
		assert.Contains(t, logs.String(), "src/gone.go")
	})

	t.Run("should write nothing when the plan has no updates", func(t *testing.T) {
		f := newDocsFixture(t)
		expectOneDiff(f)
		f.completer.On("Complete", mock.Anything, mock.Anything, 8192).
			Return(models.Completion{Text: "Here you go:\n```json\n{\"updates\":[],\"summary\":\"Docs are current\"}\n```"}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		require.NotNil(t, result.Plan)
		assert.Equal(t, "Docs are current", result.Plan.Summary)
		f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	softFailures := []struct {
		name     string
		response string
	}{
		{name: "no JSON object", response: "I think the docs are fine as they are."},
		{name: "invalid JSON", response: `{"updates": [ {"file": "README.md", "action": `},
		{name: "wrong shape", response: `{"updates": "README.md", "summary": 3}`},
		{name: "unknown action", response: `{"updates":[{"file":"README.md","action":"delete","content":""}],"summary":"s"}`},
		{name: "escaping path", response: `{"updates":[{"file":"../../etc/motd","action":"create","content":"x"}],"summary":"s"}`},
		{name: "absolute path", response: `{"updates":[{"file":"/etc/motd","action":"create","content":"x"}],"summary":"s"}`},
	}
	for _, tt := range softFailures {
		t.Run("should be a no-op on "+tt.name, func(t *testing.T) {
			ctx, logs := captureLogs(t)
			f := newDocsFixture(t)
			expectOneDiff(f)
			f.completer.On("Complete", mock.Anything, mock.Anything, 8192).
				Return(models.Completion{Text: tt.response}, nil).Once()

			result, err := f.service.Update(ctx, prContext)

			require.NoError(t, err)
			assert.Nil(t, result.Plan)
			assert.Empty(t, result.Written)
			f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
			assert.Contains(t, logs.String(), "no files changed")
		})
	}

	t.Run("should report per-file write failures without failing", func(t *testing.T) {
		f := newDocsFixture(t)
		expectOneDiff(f)
		f.completer.On("Complete", mock.Anything, mock.Anything, 8192).Return(models.Completion{
			Text: `{"updates":[{"file":"README.md","action":"update","content":"a"},{"file":"docs/b.md","action":"create","content":"b"}],"summary":"s"}`,
		}, nil).Once()
		f.writer.On("Apply", mock.Anything, mock.Anything).
			Return(models.DocWriteResult{Written: []string{"docs/b.md"}, Failed: []string{"README.md"}}).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Equal(t, []string{"docs/b.md"}, result.Written)
		assert.Equal(t, []string{"README.md"}, result.Failed)
	})

	t.Run("should do nothing when the merge base cannot be computed", func(t *testing.T) {
		f := newDocsFixture(t)
		ctx, logs := captureLogs(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("", domainErrors.ErrMergeBase).Once()

		result, err := f.service.Update(ctx, prContext)

		require.NoError(t, err)
		assert.Empty(t, result.MergeBase)
		assert.Empty(t, result.ChangedFiles)
		assert.Contains(t, logs.String(), "could not compute changed files")
		f.git.AssertNotCalled(t, "ChangedFiles", mock.Anything, mock.Anything, mock.Anything)
		f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("should do nothing when changed files cannot be listed", func(t *testing.T) {
		f := newDocsFixture(t)
		ctx, logs := captureLogs(t)

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return(nil, domainErrors.ErrGetChangedFiles).Once()

		result, err := f.service.Update(ctx, prContext)

		require.NoError(t, err)
		assert.Empty(t, result.ChangedFiles)
		assert.Contains(t, logs.String(), "could not compute changed files")
		f.scanner.AssertNotCalled(t, "Scan", mock.Anything)
		f.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should fail when the model call fails", func(t *testing.T) {
		f := newDocsFixture(t)
		expectOneDiff(f)
		f.completer.On("Complete", mock.Anything, mock.Anything, 8192).
			Return(models.Completion{}, domainErrors.ErrAIGeneration).Once()

		_, err := f.service.Update(context.Background(), prContext)

		assert.ErrorIs(t, err, domainErrors.ErrAIGeneration)
		f.writer.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("should honor a custom trunk and extension", func(t *testing.T) {
		f := newDocsFixture(t)
		f.config.Docs.TrunkBranch = "origin/develop"
		f.config.Docs.Extension = ".rst"

		f.git.On("MergeBase", mock.Anything, "HEAD", "origin/develop").Return("abc123", nil).Once()
		f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"index.rst", "README.md"}, nil).Once()
		f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "README.md").Return("+x", nil).Once()
		f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{}, nil).Once()
		f.completer.On("Complete", mock.Anything, mock.Anything, 8192).
			Return(models.Completion{Text: `{"updates":[],"summary":""}`}, nil).Once()

		result, err := f.service.Update(context.Background(), prContext)

		require.NoError(t, err)
		assert.Equal(t, []string{"README.md"}, result.ChangedFiles)
	})
}

func expectOneDiff(f *docsFixture) {
	f.git.On("MergeBase", mock.Anything, "HEAD", "origin/main").Return("abc123", nil).Once()
	f.git.On("ChangedFiles", mock.Anything, "abc123", "HEAD").Return([]string{"src/a.js"}, nil).Once()
	f.git.On("FileDiff", mock.Anything, "abc123", "HEAD", "src/a.js").Return("+x", nil).Once()
	f.scanner.On("Scan", mock.Anything).Return([]models.DocFile{{Path: "README.md", Content: "# Project"}}, nil).Once()
}
