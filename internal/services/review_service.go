package services

import (
	"context"

	"github.com/thomas-vilte/matebot/internal/ai"
	"github.com/thomas-vilte/matebot/internal/config"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/i18n"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
	"github.com/thomas-vilte/matebot/internal/vcs"
)

// workflowWaiter defines the methods needed by ReviewService to serialize
// against the prerequisite workflow.
type workflowWaiter interface {
	Wait(ctx context.Context, workflowName, sha string) (string, error)
}

type ReviewService struct {
	vcsClient vcs.VCSClient
	completer ai.Completer
	waiter    workflowWaiter
	fetcher   *DiffFetcher
	trans     *i18n.Translations
	config    *config.Config
	skipWait  bool
}

type ReviewOption func(*ReviewService)

func WithReviewVCSClient(client vcs.VCSClient) ReviewOption {
	return func(s *ReviewService) {
		s.vcsClient = client
	}
}

func WithReviewCompleter(completer ai.Completer) ReviewOption {
	return func(s *ReviewService) {
		s.completer = completer
	}
}

func WithReviewWaiter(waiter workflowWaiter) ReviewOption {
	return func(s *ReviewService) {
		s.waiter = waiter
	}
}

func WithReviewTranslations(trans *i18n.Translations) ReviewOption {
	return func(s *ReviewService) {
		s.trans = trans
	}
}

func WithReviewConfig(cfg *config.Config) ReviewOption {
	return func(s *ReviewService) {
		s.config = cfg
	}
}

func WithReviewSkipWait(skip bool) ReviewOption {
	return func(s *ReviewService) {
		s.skipWait = skip
	}
}

func NewReviewService(opts ...ReviewOption) *ReviewService {
	s := &ReviewService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.config == nil {
		s.config = config.Default()
	}
	if s.vcsClient != nil {
		s.fetcher = NewDiffFetcher(s.vcsClient)
		if s.waiter == nil {
			s.waiter = NewWorkflowWaiter(s.vcsClient, WaitOptions{
				Timeout:      s.config.Review.WaitTimeout,
				PollInterval: s.config.Review.PollInterval,
			})
		}
	}

	return s
}

// Review runs the whole review sequence for one PR: wait for the
// prerequisite workflow, fetch the diff, ask the model and post the comment.
// Any failure is returned as is; nothing is retried.
func (s *ReviewService) Review(ctx context.Context, prNumber int) (models.ReviewResult, error) {
	log := logger.FromContext(ctx).With("pr_number", prNumber)
	result := models.ReviewResult{PRNumber: prNumber}

	if s.vcsClient == nil || s.completer == nil || s.trans == nil {
		return result, domainErrors.NewAppError(domainErrors.TypeInternal, "review service is not fully configured", nil)
	}

	pr, err := s.vcsClient.GetPR(ctx, prNumber)
	if err != nil {
		return result, err
	}

	switch {
	case pr.HeadSHA == "":
		log.Warn("head commit not resolvable, skipping wait for prerequisite workflow",
			"workflow", s.config.Review.PrerequisiteWorkflow)
		result.WaitOutcome = WaitOutcomeSkipped
	case s.skipWait:
		log.Info("wait for prerequisite workflow disabled",
			"workflow", s.config.Review.PrerequisiteWorkflow)
		result.WaitOutcome = WaitOutcomeSkipped
	default:
		outcome, err := s.waiter.Wait(ctx, s.config.Review.PrerequisiteWorkflow, pr.HeadSHA)
		if err != nil {
			return result, err
		}
		result.WaitOutcome = outcome
	}

	diff, err := s.fetcher.FetchDiff(ctx, prNumber)
	if err != nil {
		return result, err
	}
	result.DiffSize = len(diff)

	if diff == "" {
		log.Info("no code changes, posting informational comment")
		if err := s.vcsClient.CreateComment(ctx, prNumber, s.trans.GetMessage("review.no_changes", 0, nil)); err != nil {
			return result, err
		}
		result.CommentPosted = true
		return result, nil
	}

	prompt, err := ai.RenderPrompt("reviewPrompt", ai.GetReviewPromptTemplate(s.config.Language), ai.PromptData{Diff: diff})
	if err != nil {
		return result, domainErrors.NewAppError(domainErrors.TypeInternal, "failed to render review prompt", err)
	}

	log.Info("requesting AI review",
		"provider", s.completer.GetProviderName(),
		"model", s.completer.GetModelName(),
		"diff_size", len(diff))

	result.ModelCalled = true
	completion, err := s.completer.Complete(ctx, prompt, s.config.AI.ReviewMaxTokens)
	if err != nil {
		return result, err
	}
	result.Usage = completion.Usage

	body := s.trans.GetMessage("review.comment_header", 0, nil) + "\n\n" + completion.Text
	if err := s.vcsClient.CreateComment(ctx, prNumber, body); err != nil {
		return result, err
	}
	result.CommentPosted = true

	log.Info("AI review posted", "review_length", len(completion.Text))

	return result, nil
}
