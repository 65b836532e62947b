package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matebot/internal/models"
)

type (
	MockVCSClient struct {
		mock.Mock
	}

	MockCompleter struct {
		mock.Mock
	}

	MockGitService struct {
		mock.Mock
	}

	MockDocScanner struct {
		mock.Mock
	}

	MockDocWriter struct {
		mock.Mock
	}
)

func (m *MockVCSClient) GetPR(ctx context.Context, prNumber int) (models.PullRequestSummary, error) {
	args := m.Called(ctx, prNumber)
	return args.Get(0).(models.PullRequestSummary), args.Error(1)
}

func (m *MockVCSClient) GetPRDiff(ctx context.Context, prNumber int) (string, error) {
	args := m.Called(ctx, prNumber)
	return args.String(0), args.Error(1)
}

func (m *MockVCSClient) ListWorkflowRuns(ctx context.Context, sha string) ([]models.WorkflowRun, error) {
	args := m.Called(ctx, sha)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkflowRun), args.Error(1)
}

func (m *MockVCSClient) CreateComment(ctx context.Context, prNumber int, body string) error {
	args := m.Called(ctx, prNumber, body)
	return args.Error(0)
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error) {
	args := m.Called(ctx, prompt, maxTokens)
	return args.Get(0).(models.Completion), args.Error(1)
}

func (m *MockCompleter) GetModelName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCompleter) GetProviderName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockGitService) MergeBase(ctx context.Context, a, b string) (string, error) {
	args := m.Called(ctx, a, b)
	return args.String(0), args.Error(1)
}

func (m *MockGitService) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	args := m.Called(ctx, base, head)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockGitService) FileDiff(ctx context.Context, base, head, path string) (string, error) {
	args := m.Called(ctx, base, head, path)
	return args.String(0), args.Error(1)
}

func (m *MockDocScanner) Scan(ctx context.Context) ([]models.DocFile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DocFile), args.Error(1)
}

func (m *MockDocWriter) Apply(ctx context.Context, plan *models.DocUpdatePlan) models.DocWriteResult {
	args := m.Called(ctx, plan)
	return args.Get(0).(models.DocWriteResult)
}
