package services

import (
	"context"

	"github.com/thomas-vilte/matebot/internal/ai"
	"github.com/thomas-vilte/matebot/internal/config"
	"github.com/thomas-vilte/matebot/internal/docs"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

const headRevision = "HEAD"

// docsGitService defines the git operations needed by DocsService.
type docsGitService interface {
	MergeBase(ctx context.Context, a, b string) (string, error)
	ChangedFiles(ctx context.Context, base, head string) ([]string, error)
	FileDiff(ctx context.Context, base, head, path string) (string, error)
}

type docScanner interface {
	Scan(ctx context.Context) ([]models.DocFile, error)
}

type docWriter interface {
	Apply(ctx context.Context, plan *models.DocUpdatePlan) models.DocWriteResult
}

type DocsService struct {
	git       docsGitService
	completer ai.Completer
	scanner   docScanner
	writer    docWriter
	config    *config.Config
	root      string
}

type DocsOption func(*DocsService)

func WithDocsGitService(git docsGitService) DocsOption {
	return func(s *DocsService) {
		s.git = git
	}
}

func WithDocsCompleter(completer ai.Completer) DocsOption {
	return func(s *DocsService) {
		s.completer = completer
	}
}

func WithDocsScanner(scanner docScanner) DocsOption {
	return func(s *DocsService) {
		s.scanner = scanner
	}
}

func WithDocsWriter(writer docWriter) DocsOption {
	return func(s *DocsService) {
		s.writer = writer
	}
}

func WithDocsConfig(cfg *config.Config) DocsOption {
	return func(s *DocsService) {
		s.config = cfg
	}
}

// WithDocsRoot sets the working tree root that plan paths are resolved against.
func WithDocsRoot(root string) DocsOption {
	return func(s *DocsService) {
		s.root = root
	}
}

func NewDocsService(opts ...DocsOption) *DocsService {
	s := &DocsService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.Default()
	}
	if s.root == "" {
		s.root = s.config.Docs.Root
	}
	return s
}

// changedSince returns the merge base of HEAD and trunk, plus every path
// changed between them.
func (s *DocsService) changedSince(ctx context.Context, trunk string) (string, []string, error) {
	base, err := s.git.MergeBase(ctx, headRevision, trunk)
	if err != nil {
		return "", nil, err
	}
	changed, err := s.git.ChangedFiles(ctx, base, headRevision)
	if err != nil {
		return "", nil, err
	}
	return base, changed, nil
}

// Update proposes and applies documentation changes for the code changed
// since the merge base with the trunk branch. Git failures while listing or
// diffing files and unusable model output are logged no-ops, not errors.
func (s *DocsService) Update(ctx context.Context, pr models.PRContext) (models.DocsResult, error) {
	log := logger.FromContext(ctx)
	var result models.DocsResult

	if s.git == nil || s.completer == nil || s.scanner == nil || s.writer == nil {
		return result, domainErrors.NewAppError(domainErrors.TypeInternal, "docs service is not fully configured", nil)
	}

	trunk := s.config.Docs.TrunkBranch
	extension := s.config.Docs.Extension

	base, changed, err := s.changedSince(ctx, trunk)
	if err != nil {
		log.Warn("could not compute changed files, nothing to document",
			"error", err,
			"trunk", trunk)
		return result, nil
	}
	result.MergeBase = base

	result.ChangedFiles = make([]string, 0, len(changed))
	for _, file := range changed {
		if docs.HasExtension(file, extension) {
			continue
		}
		result.ChangedFiles = append(result.ChangedFiles, file)
	}

	log.Info("changed files computed",
		"merge_base", base,
		"trunk", trunk,
		"total", len(changed),
		"non_docs", len(result.ChangedFiles))

	if len(result.ChangedFiles) == 0 {
		log.Info("no code changes since merge base, nothing to document")
		return result, nil
	}

	selected := result.ChangedFiles
	if len(selected) > s.config.Docs.MaxFiles {
		log.Info("too many changed files, only the first ones are analyzed",
			"max_files", s.config.Docs.MaxFiles,
			"skipped", len(selected)-s.config.Docs.MaxFiles)
		selected = selected[:s.config.Docs.MaxFiles]
	}

	diffs := make([]models.FileDiff, 0, len(selected))
	for _, file := range selected {
		diff, err := s.git.FileDiff(ctx, base, headRevision, file)
		if err != nil {
			log.Warn("could not diff file, skipping",
				"error", err,
				"file", file)
			continue
		}
		if diff == "" {
			log.Debug("skipping file with empty diff", "file", file)
			continue
		}
		diffs = append(diffs, models.FileDiff{Path: file, Diff: diff})
		result.DiffedFiles = append(result.DiffedFiles, file)
	}

	if len(diffs) == 0 {
		log.Info("changed files have no textual diff, asking with PR context only")
	}

	existing, err := s.scanner.Scan(ctx)
	if err != nil {
		return result, err
	}

	prompt, err := ai.RenderPrompt("docsPrompt", ai.GetDocsPromptTemplate(s.config.Language), ai.PromptData{
		Diffs:   diffs,
		Docs:    existing,
		PRTitle: pr.Title,
		PRBody:  pr.Body,
	})
	if err != nil {
		return result, domainErrors.NewAppError(domainErrors.TypeInternal, "failed to render docs prompt", err)
	}

	log.Info("requesting documentation updates",
		"provider", s.completer.GetProviderName(),
		"model", s.completer.GetModelName(),
		"diffs", len(diffs),
		"docs", len(existing))

	completion, err := s.completer.Complete(ctx, prompt, s.config.AI.DocsMaxTokens)
	if err != nil {
		return result, err
	}
	result.Usage = completion.Usage

	plan, err := ai.ParseDocUpdatePlan(completion.Text)
	if err != nil {
		log.Warn("model response is not a usable update plan, no files changed",
			"error", err,
			"response", completion.Text)
		return result, nil
	}
	if err := docs.ValidatePlan(s.root, plan); err != nil {
		log.Warn("update plan rejected, no files changed",
			"error", err,
			"response", completion.Text)
		return result, nil
	}
	result.Plan = plan

	if len(plan.Updates) == 0 {
		log.Info("model proposed no documentation changes", "summary", plan.Summary)
		return result, nil
	}

	written := s.writer.Apply(ctx, plan)
	result.Written = written.Written
	result.Failed = written.Failed

	log.Info("documentation update finished",
		"written", len(written.Written),
		"failed", len(written.Failed),
		"summary", plan.Summary)

	return result, nil
}
