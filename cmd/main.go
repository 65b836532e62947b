package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomas-vilte/matebot/internal/cli/registry"
	docscmd "github.com/thomas-vilte/matebot/internal/commands/docs"
	"github.com/thomas-vilte/matebot/internal/commands/review"
	"github.com/thomas-vilte/matebot/internal/commands/wait"
	cfg "github.com/thomas-vilte/matebot/internal/config"
	"github.com/thomas-vilte/matebot/internal/docs"
	"github.com/thomas-vilte/matebot/internal/git"
	"github.com/thomas-vilte/matebot/internal/i18n"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/providers"
	"github.com/thomas-vilte/matebot/internal/services"
	"github.com/thomas-vilte/matebot/internal/ui"
	"github.com/thomas-vilte/matebot/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgApp, err := cfg.Load(cfg.LoadOptions{})
	if err != nil {
		ui.HandleAppError(os.Stderr, err, nil)
		return 1
	}

	logger.Initialize(cfgApp.Debug, cfgApp.Verbose)

	translations, err := i18n.NewTranslations(cfgApp.Language)
	if err != nil {
		logger.Error(ctx, "failed to load translations", err)
		return 1
	}

	app, err := initializeApp(cfgApp, translations)
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		return 1
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error(ctx, "command failed", err)
		ui.HandleAppError(os.Stderr, err, translations)
		return 1
	}
	return 0
}

func initializeApp(cfgApp *cfg.Config, translations *i18n.Translations) (*cli.Command, error) {
	registerCommand := registry.NewRegistry(cfgApp, translations)

	reviewProvider := func(ctx context.Context, skipWait bool) (review.ReviewService, error) {
		vcsClient, err := providers.NewVCSClient(cfgApp)
		if err != nil {
			return nil, err
		}
		completer, err := providers.NewCompleter(ctx, cfgApp)
		if err != nil {
			return nil, err
		}
		return services.NewReviewService(
			services.WithReviewVCSClient(vcsClient),
			services.WithReviewCompleter(completer),
			services.WithReviewTranslations(translations),
			services.WithReviewConfig(cfgApp),
			services.WithReviewSkipWait(skipWait),
		), nil
	}

	docsProvider := func(ctx context.Context, dryRun bool) (docscmd.DocsService, error) {
		completer, err := providers.NewCompleter(ctx, cfgApp)
		if err != nil {
			return nil, err
		}
		root := docs.ResolveRoot(ctx, cfgApp.Docs.Root)
		logger.Debug(ctx, "documentation root resolved", "root", root)

		return services.NewDocsService(
			services.WithDocsGitService(git.NewGitService(root)),
			services.WithDocsCompleter(completer),
			services.WithDocsScanner(docs.NewScanner(root, cfgApp.Docs.Extension, cfgApp.Docs.ExcludedDirs)),
			services.WithDocsWriter(docs.NewWriter(root, dryRun)),
			services.WithDocsConfig(cfgApp),
			services.WithDocsRoot(root),
		), nil
	}

	waitProvider := func(_ context.Context, opts services.WaitOptions) (wait.Waiter, error) {
		vcsClient, err := providers.NewVCSClient(cfgApp)
		if err != nil {
			return nil, err
		}
		return services.NewWorkflowWaiter(vcsClient, opts), nil
	}

	if err := registerCommand.Register(cfg.CommandReview, review.NewReviewCommand(reviewProvider)); err != nil {
		return nil, err
	}
	if err := registerCommand.Register(cfg.CommandUpdateDocs, docscmd.NewUpdateDocsCommand(docsProvider)); err != nil {
		return nil, err
	}
	if err := registerCommand.Register(cfg.CommandWaitWorkflow, wait.NewWaitCommand(waitProvider)); err != nil {
		return nil, err
	}

	return &cli.Command{
		Name:    "matebot",
		Usage:   translations.GetMessage("app_usage", 0, nil),
		Version: version.FullVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: translations.GetMessage("flags.config_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   translations.GetMessage("flags.debug_usage", 0, nil),
				Sources: cli.EnvVars("MATEBOT_DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   translations.GetMessage("flags.verbose_usage", 0, nil),
				Value:   true,
				Sources: cli.EnvVars("MATEBOT_VERBOSE"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.IsSet("config") {
				reloaded, err := cfg.Load(cfg.LoadOptions{Path: cmd.String("config")})
				if err != nil {
					return ctx, err
				}
				*cfgApp = *reloaded
				if err := translations.SetLanguage(cfgApp.Language); err != nil {
					return ctx, err
				}
			}

			logger.Initialize(cfgApp.Debug || cmd.Bool("debug"), cmd.Bool("verbose"))
			logger.Debug(ctx, "configuration loaded",
				"file", cfgApp.PathFile,
				"config", cfgApp.String())

			fillRepositoryFromRemote(ctx, cfgApp)
			return ctx, nil
		},
		Commands: registerCommand.CreateCommands(),
	}, nil
}

// fillRepositoryFromRemote completes a missing owner or repository name from
// the origin remote of the current checkout.
func fillRepositoryFromRemote(ctx context.Context, config *cfg.Config) {
	if config.GitHub.Owner != "" && config.GitHub.Repo != "" {
		return
	}

	owner, repo, provider, err := git.NewGitService(".").GetRepoInfo(ctx)
	if err != nil || provider != "github" {
		logger.Debug(ctx, "repository not resolvable from origin remote",
			"provider", provider,
			"error", err)
		return
	}

	if config.GitHub.Owner == "" {
		config.GitHub.Owner = owner
	}
	if config.GitHub.Repo == "" {
		config.GitHub.Repo = repo
	}
}
