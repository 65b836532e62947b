package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/go-github/v80/github"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
	"github.com/thomas-vilte/matebot/internal/vcs"
)

var _ vcs.VCSClient = (*GitHubClient)(nil)

// requester is the slice of Requester the client needs; tests swap it for a mock.
type requester interface {
	Do(ctx context.Context, path string, opts RequestOptions) (*Response, error)
}

type GitHubClient struct {
	requester requester
	owner     string
	repo      string
}

func NewGitHubClient(owner, repo, token, apiURL string) (*GitHubClient, error) {
	r, err := NewRequester(nil, apiURL, token)
	if err != nil {
		return nil, err
	}
	return NewGitHubClientWithRequester(r, owner, repo), nil
}

func NewGitHubClientWithRequester(r requester, owner, repo string) *GitHubClient {
	return &GitHubClient{
		requester: r,
		owner:     owner,
		repo:      repo,
	}
}

func (ghc *GitHubClient) repoPath() string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(ghc.owner), url.PathEscape(ghc.repo))
}

// send performs one call and turns transport failures and non-2xx answers
// into domain errors. The body of a successful answer is returned as is.
func (ghc *GitHubClient) send(ctx context.Context, path string, opts RequestOptions, operation string) (interface{}, *domainErrors.AppError) {
	resp, err := ghc.requester.Do(ctx, path, opts)
	if err != nil {
		return nil, ghc.mapError(err, operation)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, ghc.mapError(statusError(resp), operation)
	}
	return resp.Body, nil
}

func (ghc *GitHubClient) GetPR(ctx context.Context, prNumber int) (models.PullRequestSummary, error) {
	log := logger.FromContext(ctx)

	log.Debug("fetching github pull request",
		"owner", ghc.owner,
		"repo", ghc.repo,
		"pr_number", prNumber)

	resp, appErr := ghc.send(ctx, fmt.Sprintf("%s/pulls/%d", ghc.repoPath(), prNumber), RequestOptions{}, "get PR")
	if appErr != nil {
		log.Error("failed to fetch github PR",
			"error", appErr,
			"pr_number", prNumber)
		return models.PullRequestSummary{}, appErr.WithContext("pr_number", prNumber)
	}

	var pr github.PullRequest
	if err := decodeObject(resp, &pr); err != nil {
		return models.PullRequestSummary{}, domainErrors.ErrUnexpectedResponse.
			WithError(err).
			WithContext("operation", "get PR").
			WithContext("pr_number", prNumber)
	}

	return models.PullRequestSummary{
		Number:       prNumber,
		HeadSHA:      pr.GetHead().GetSHA(),
		BaseSHA:      pr.GetBase().GetSHA(),
		Title:        pr.GetTitle(),
		Body:         pr.GetBody(),
		State:        pr.GetState(),
		Commits:      pr.GetCommits(),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
	}, nil
}

// GetPRDiff requests the same PR resource with the diff media type. Any
// response that is not text, such as an empty object, counts as no diff.
func (ghc *GitHubClient) GetPRDiff(ctx context.Context, prNumber int) (string, error) {
	log := logger.FromContext(ctx)

	resp, appErr := ghc.send(ctx, fmt.Sprintf("%s/pulls/%d", ghc.repoPath(), prNumber), RequestOptions{
		Headers: map[string]string{"Accept": mediaTypeDiff},
	}, "get PR diff")
	if appErr != nil {
		return "", appErr.WithContext("pr_number", prNumber)
	}

	diff, ok := resp.(string)
	if !ok {
		log.Debug("diff response is not text, treating as no changes",
			"pr_number", prNumber,
			"type", fmt.Sprintf("%T", resp))
		return "", nil
	}

	return diff, nil
}

func (ghc *GitHubClient) ListWorkflowRuns(ctx context.Context, sha string) ([]models.WorkflowRun, error) {
	path := fmt.Sprintf("%s/actions/runs?head_sha=%s", ghc.repoPath(), url.QueryEscape(sha))

	resp, appErr := ghc.send(ctx, path, RequestOptions{}, "list workflow runs")
	if appErr != nil {
		return nil, appErr.WithContext("sha", sha)
	}

	obj, ok := resp.(map[string]interface{})
	if !ok {
		return nil, domainErrors.ErrUnexpectedResponse.
			WithContext("operation", "list workflow runs").
			WithContext("type", fmt.Sprintf("%T", resp))
	}
	if _, ok := obj["workflow_runs"].([]interface{}); !ok {
		return nil, domainErrors.ErrUnexpectedResponse.
			WithContext("operation", "list workflow runs").
			WithContext("reason", "missing workflow_runs array")
	}

	var runs github.WorkflowRuns
	if err := decodeObject(obj, &runs); err != nil {
		return nil, domainErrors.ErrUnexpectedResponse.
			WithError(err).
			WithContext("operation", "list workflow runs")
	}

	result := make([]models.WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		result = append(result, models.WorkflowRun{
			ID:         run.GetID(),
			Name:       run.GetName(),
			Status:     run.GetStatus(),
			Conclusion: run.GetConclusion(),
			HeadSHA:    run.GetHeadSHA(),
		})
	}
	return result, nil
}

func (ghc *GitHubClient) CreateComment(ctx context.Context, prNumber int, body string) error {
	log := logger.FromContext(ctx)

	resp, appErr := ghc.send(ctx, fmt.Sprintf("%s/issues/%d/comments", ghc.repoPath(), prNumber), RequestOptions{
		Method: http.MethodPost,
		Body:   &github.IssueComment{Body: github.Ptr(body)},
	}, "create comment")
	if appErr != nil {
		log.Error("failed to create PR comment",
			"error", appErr,
			"pr_number", prNumber)
		return appErr.WithContext("pr_number", prNumber)
	}

	var comment github.IssueComment
	if err := decodeObject(resp, &comment); err == nil {
		log.Info("comment posted",
			"pr_number", prNumber,
			"comment_id", comment.GetID(),
			"url", comment.GetHTMLURL())
	}

	return nil
}

func (ghc *GitHubClient) mapError(err error, operation string) *domainErrors.AppError {
	repo := fmt.Sprintf("%s/%s", ghc.owner, ghc.repo)

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return domainErrors.ErrGitHubRateLimit.
			WithError(err).
			WithContext("operation", operation).
			WithContext("reset", rateErr.Rate.Reset.String())
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return domainErrors.ErrGitHubTokenInvalid.
				WithError(err).
				WithContext("operation", operation)
		case http.StatusForbidden:
			return domainErrors.ErrGitHubInsufficientPerms.
				WithError(err).
				WithContext("operation", operation).
				WithContext("repo", repo)
		case http.StatusNotFound:
			return domainErrors.ErrRepositoryNotFound.
				WithError(err).
				WithContext("operation", operation).
				WithContext("repo", repo)
		case http.StatusTooManyRequests:
			return domainErrors.ErrGitHubRateLimit.
				WithError(err).
				WithContext("operation", operation).
				WithContext("retry_after", ghErr.Response.Header.Get("Retry-After"))
		}
	}

	if operation == "create comment" {
		return domainErrors.ErrCreateComment.WithError(err).WithContext("repo", repo)
	}
	return domainErrors.NewAppError(domainErrors.TypeVCS, operation+" failed", err).WithContext("repo", repo)
}

// statusError describes a non-2xx answer the way go-github reports API
// errors. A 403 with no remaining quota is reported as a rate limit.
func statusError(resp *Response) error {
	httpResp := &http.Response{StatusCode: resp.StatusCode, Header: resp.Header}

	message := http.StatusText(resp.StatusCode)
	switch body := resp.Body.(type) {
	case map[string]interface{}:
		if m, ok := body["message"].(string); ok && m != "" {
			message = m
		}
	case string:
		if body != "" {
			message = body
		}
	}

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return &github.RateLimitError{
			Rate:     github.Rate{Reset: github.Timestamp{Time: rateLimitReset(resp.Header)}},
			Response: httpResp,
			Message:  message,
		}
	}
	return &github.ErrorResponse{Response: httpResp, Message: message}
}

func rateLimitReset(h http.Header) time.Time {
	secs, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}

// decodeObject converts a generic JSON object into one of go-github's types.
func decodeObject(v interface{}, out interface{}) error {
	if _, ok := v.(map[string]interface{}); !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
