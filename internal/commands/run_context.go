package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/thomas-vilte/matebot/internal/logger"
)

// NewRunContext tags the context logger with the command name and a fresh
// run id so every line of one invocation can be correlated.
func NewRunContext(ctx context.Context, command string) context.Context {
	return logger.With(ctx,
		"command", command,
		"run_id", uuid.NewString())
}
