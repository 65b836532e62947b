package wait

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/thomas-vilte/matebot/internal/commands"
	cfg "github.com/thomas-vilte/matebot/internal/config"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/i18n"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/services"
	"github.com/thomas-vilte/matebot/internal/ui"
	"github.com/urfave/cli/v3"
)

type Waiter interface {
	Wait(ctx context.Context, workflowName, sha string) (string, error)
}

// WaiterProvider builds a waiter bounded by the given options.
type WaiterProvider func(ctx context.Context, opts services.WaitOptions) (Waiter, error)

type WaitCommand struct {
	provider WaiterProvider
	out      io.Writer
}

func NewWaitCommand(provider WaiterProvider) *WaitCommand {
	return &WaitCommand{
		provider: provider,
		out:      os.Stdout,
	}
}

func (c *WaitCommand) CreateCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:  cfg.CommandWaitWorkflow,
		Usage: t.GetMessage("wait.command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workflow",
				Aliases: []string{"w"},
				Usage:   t.GetMessage("wait.workflow_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:    "sha",
				Usage:   t.GetMessage("wait.sha_usage", 0, nil),
				Sources: cli.EnvVars("GITHUB_SHA"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: t.GetMessage("flags.timeout_usage", 0, nil),
			},
			&cli.DurationFlag{
				Name:  "poll-interval",
				Usage: t.GetMessage("flags.poll_interval_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "fail-on-timeout",
				Usage: t.GetMessage("wait.fail_on_timeout_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = commands.NewRunContext(ctx, cfg.CommandWaitWorkflow)
			log := logger.FromContext(ctx)
			start := time.Now()

			if cmd.IsSet("workflow") {
				config.Review.PrerequisiteWorkflow = cmd.String("workflow")
			}
			if cmd.IsSet("timeout") {
				config.Review.WaitTimeout = cmd.Duration("timeout")
			}
			if cmd.IsSet("poll-interval") {
				config.Review.PollInterval = cmd.Duration("poll-interval")
			}
			if err := config.Validate(cfg.CommandWaitWorkflow); err != nil {
				return err
			}

			sha := cmd.String("sha")
			if sha == "" {
				return domainErrors.ErrInvalidConfig.
					WithContext("reason", "commit SHA is required").
					WithSuggestion("Pass --sha or set GITHUB_SHA")
			}
			workflow := config.Review.PrerequisiteWorkflow

			waiter, err := c.provider(ctx, services.WaitOptions{
				Timeout:      config.Review.WaitTimeout,
				PollInterval: config.Review.PollInterval,
			})
			if err != nil {
				return fmt.Errorf(t.GetMessage("error.service_creation", 0, nil)+": %w", err)
			}

			outcome, err := waiter.Wait(ctx, workflow, sha)
			if err != nil {
				return err
			}

			log.Info("wait-workflow command finished",
				"workflow", workflow,
				"sha", sha,
				"outcome", outcome,
				"duration_ms", time.Since(start).Milliseconds())

			data := map[string]interface{}{"Workflow": workflow, "Outcome": outcome}
			if outcome != services.WaitOutcomeTimeout {
				ui.PrintSuccess(c.out, t.GetMessage("wait.result", 0, data))
				return nil
			}

			ui.PrintWarning(c.out, t.GetMessage("wait.timed_out", 0, data))
			if cmd.Bool("fail-on-timeout") {
				return domainErrors.ErrWorkflowTimeout.
					WithContext("workflow", workflow).
					WithContext("timeout", config.Review.WaitTimeout.String())
			}
			return nil
		},
	}
}
