package docs

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

type DocsService interface {
	Update(ctx context.Context, pr models.PRContext) (models.DocsResult, error)
}

// DocsServiceProvider builds the service once flags and config are final.
type DocsServiceProvider func(ctx context.Context, dryRun bool) (DocsService, error)

type UpdateDocsCommand struct {
	provider DocsServiceProvider
	out      io.Writer
}

func NewUpdateDocsCommand(provider DocsServiceProvider) *UpdateDocsCommand {
	return &UpdateDocsCommand{
		provider: provider,
		out:      os.Stdout,
	}
}

func (c *UpdateDocsCommand) CreateCommand(t *i18n.Translations, config *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:  cfg.CommandUpdateDocs,
		Usage: t.GetMessage("docs.command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: t.GetMessage("docs.dry_run_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "trunk",
				Usage: t.GetMessage("docs.trunk_usage", 0, nil),
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: t.GetMessage("docs.root_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx = commands.NewRunContext(ctx, cfg.CommandUpdateDocs)
			log := logger.FromContext(ctx)
			start := time.Now()

			if cmd.IsSet("trunk") {
				config.Docs.TrunkBranch = cmd.String("trunk")
			}
			if cmd.IsSet("root") {
				config.Docs.Root = cmd.String("root")
			}
			if err := config.Validate(cfg.CommandUpdateDocs); err != nil {
				return err
			}

			dryRun := cmd.Bool("dry-run")
			log.Info("executing update-docs command",
				"trunk", config.Docs.TrunkBranch,
				"extension", config.Docs.Extension,
				"dry_run", dryRun,
				"provider", config.AI.Provider,
				"model", config.ModelName())

			service, err := c.provider(ctx, dryRun)
			if err != nil {
				return fmt.Errorf(t.GetMessage("error.service_creation", 0, nil)+": %w", err)
			}

			result, err := service.Update(ctx, models.PRContext{
				Title: config.PR.Title,
				Body:  config.PR.Body,
			})
			if err != nil {
				log.Error("documentation update failed",
					"error", err,
					"duration_ms", time.Since(start).Milliseconds())
				return err
			}

			log.Info("update-docs command finished",
				"changed_files", len(result.ChangedFiles),
				"written", len(result.Written),
				"failed", len(result.Failed),
				"duration_ms", time.Since(start).Milliseconds())

			c.report(t, result, dryRun)
			return nil
		},
	}
}

func (c *UpdateDocsCommand) report(t *i18n.Translations, result models.DocsResult, dryRun bool) {
	switch {
	case result.Plan == nil || len(result.Plan.Updates) == 0:
		ui.PrintInfo(c.out, t.GetMessage("docs.no_updates", 0, nil))
	case dryRun:
		ui.PrintWarning(c.out, t.GetMessage("docs.dry_run_notice", 0, nil))
	default:
		msg := t.GetMessage("docs.success", 0, map[string]interface{}{
			"Written": len(result.Written),
			"Failed":  len(result.Failed),
		})
		if len(result.Failed) > 0 {
			ui.PrintWarning(c.out, msg)
		} else {
			ui.PrintSuccess(c.out, msg)
		}
	}
	ui.PrintTokenUsage(c.out, result.Usage, t)
}
