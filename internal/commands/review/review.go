package review

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/thomas-vilte/matebot/internal/commands"
	cfg "github.com/thomas-vilte/matebot/internal/config"
	"github.com/thomas-vilte/matebot/internal/i18n"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
	"github.com/thomas-vilte/matebot/internal/ui"
	"github.com/urfave/cli/v3"
)

// ReviewService is the slice of services.ReviewService the command drives.
type ReviewService interface {
	Review(ctx context.Context, prNumber int) (models.ReviewResult, error)
}

// ReviewServiceProvider builds the service once flags and config are final.
type ReviewServiceProvider func(ctx context.Context, skipWait bool) (ReviewService, error)

type ReviewCommand struct {
	provider ReviewServiceProvider
	out      io.Writer
}

func NewReviewCommand(provider ReviewServiceProvider) *ReviewCommand {
	return &ReviewCommand{
		provider: provider,
		out:      os.Stdout,
	}
}

func (c *ReviewCommand) CreateCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:  cfg.CommandReview,
		Usage: t.GetMessage("review.command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pr-number",
				Aliases: []string{"n"},
				Usage:   t.GetMessage("review.pr_number_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "skip-wait",
				Usage: t.GetMessage("review.skip_wait_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = commands.NewRunContext(ctx, cfg.CommandReview)
			log := logger.FromContext(ctx)
			start := time.Now()

			if cmd.IsSet("pr-number") {
				config.PR.Number = int(cmd.Int("pr-number"))
			}
			if err := config.Validate(cfg.CommandReview); err != nil {
				return err
			}

			log.Info("executing review command",
				"pr_number", config.PR.Number,
				"repo", config.GitHub.Owner+"/"+config.GitHub.Repo,
				"provider", config.AI.Provider,
				"model", config.ModelName())

			service, err := c.provider(ctx, cmd.Bool("skip-wait"))
			if err != nil {
				return fmt.Errorf(t.GetMessage("error.service_creation", 0, nil)+": %w", err)
			}

			result, err := service.Review(ctx, config.PR.Number)
			if err != nil {
				log.Error("review failed",
					"error", err,
					"duration_ms", time.Since(start).Milliseconds())
				return err
			}

			log.Info("review command finished",
				"wait_outcome", result.WaitOutcome,
				"model_called", result.ModelCalled,
				"duration_ms", time.Since(start).Milliseconds())

			data := map[string]interface{}{"PRNumber": result.PRNumber}
			if result.ModelCalled {
				ui.PrintSuccess(c.out, t.GetMessage("review.success", 0, data))
				ui.PrintTokenUsage(c.out, result.Usage, t)
			} else {
				ui.PrintInfo(c.out, t.GetMessage("review.no_changes_posted", 0, data))
			}
			return nil
		},
	}
}
