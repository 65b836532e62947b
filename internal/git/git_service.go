package git

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
)

// GitService runs git commands in a working directory. An empty dir means
// the process working directory.
type GitService struct {
	dir string
}

func NewGitService(dir string) *GitService {
	return &GitService{dir: dir}
}

func (s *GitService) run(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.FromContext(ctx).Debug("running git command", "args", strings.Join(args, " "))

	err := cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

// MergeBase returns the best common ancestor of two revisions.
func (s *GitService) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, stderr, err := s.run(ctx, "merge-base", a, b)
	if err != nil {
		return "", errors.ErrMergeBase.
			WithError(err).
			WithContext("revisions", a+" "+b).
			WithContext("stderr", stderr)
	}

	base := strings.TrimSpace(out)
	if base == "" {
		return "", errors.ErrMergeBase.WithContext("revisions", a+" "+b)
	}
	return base, nil
}

// rawPaths makes git print paths byte for byte and read pathspecs literally,
// so names with non-ASCII or glob characters round-trip between calls.
var rawPaths = []string{"--literal-pathspecs", "-c", "core.quotePath=false"}

// ChangedFiles lists the paths that differ between base and head.
func (s *GitService) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	args := append(append([]string{}, rawPaths...), "diff", "--name-only", "-z", base, head)
	out, stderr, err := s.run(ctx, args...)
	if err != nil {
		return nil, errors.ErrGetChangedFiles.
			WithError(err).
			WithContext("range", base+".."+head).
			WithContext("stderr", stderr)
	}

	files := make([]string, 0)
	for _, path := range strings.Split(out, "\x00") {
		if path != "" {
			files = append(files, path)
		}
	}
	return files, nil
}

// FileDiff returns the unified diff of one path between base and head.
func (s *GitService) FileDiff(ctx context.Context, base, head, path string) (string, error) {
	args := append(append([]string{}, rawPaths...), "diff", base, head, "--", path)
	out, stderr, err := s.run(ctx, args...)
	if err != nil {
		return "", errors.ErrGetDiff.
			WithError(err).
			WithContext("file", path).
			WithContext("stderr", stderr)
	}
	return out, nil
}

// GetRepoInfo returns owner, repository name and hosting provider parsed
// from the origin remote.
func (s *GitService) GetRepoInfo(ctx context.Context) (string, string, string, error) {
	out, stderr, err := s.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", "", "", errors.ErrNotInGitRepo.WithError(err).WithContext("stderr", stderr)
	}

	return parseRepoURL(strings.TrimSpace(out))
}

var (
	sshRegex   = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	httpsRegex = regexp.MustCompile(`https://(?:[^@/]+@)?([^/]+)/([^/]+)/(.+?)(?:\.git)?$`)
)

func parseRepoURL(url string) (string, string, string, error) {
	var matches []string
	if sshRegex.MatchString(url) {
		matches = sshRegex.FindStringSubmatch(url)
	} else if httpsRegex.MatchString(url) {
		matches = httpsRegex.FindStringSubmatch(url)
	}

	if len(matches) >= 4 {
		provider := detectProvider(matches[1])
		repoName := strings.TrimSuffix(matches[3], ".git")
		return matches[2], repoName, provider, nil
	}

	return "", "", "", errors.ErrRepositoryMissing.WithError(fmt.Errorf("cannot parse remote %q", url))
}

func detectProvider(host string) string {
	if strings.Contains(host, "github") {
		return "github"
	}
	if strings.Contains(host, "gitlab") {
		return "gitlab"
	}
	return "unknown"
}
