package providers

import (
	"github.com/thomas-vilte/matebot/internal/config"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/vcs"
	"github.com/thomas-vilte/matebot/internal/vcs/github"
)

// NewVCSClient creates the GitHub client for the configured repository
func NewVCSClient(cfg *config.Config) (vcs.VCSClient, error) {
	if cfg.GitHub.Token == "" {
		return nil, domainErrors.ErrTokenMissing
	}
	if cfg.GitHub.Owner == "" || cfg.GitHub.Repo == "" {
		return nil, domainErrors.ErrRepositoryMissing
	}

	client, err := github.NewGitHubClient(cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Token, cfg.GitHub.APIURL)
	if err != nil {
		return nil, domainErrors.ErrInvalidConfig.WithError(err).WithContext("api_url", cfg.GitHub.APIURL)
	}
	return client, nil
}
