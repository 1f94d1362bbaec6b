package command

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"emporia/internal/logging"
)

// Invoker executes commands and keeps the successful ones in history.
// It is not safe for concurrent use: build one per workflow.
type Invoker struct {
	history []Command
	lg      *zap.Logger
}

// NewInvoker returns an idle invoker. A nil logger discards output.
func NewInvoker(lg *zap.Logger) *Invoker {
	return &Invoker{lg: logging.OrNop(lg)}
}

// ExecuteCommand runs c. On success c is appended to history. On failure
// every command in history is undone, newest first, and the original error
// is returned. If any undo fails the result is a *RollbackError.
func (i *Invoker) ExecuteCommand(ctx context.Context, c Command) (any, error) {
	name := nameOf(c)
	result, err := c.Execute(ctx)
	if err != nil {
		i.lg.Debug("command failed, rolling back",
			zap.String("command", name),
			zap.Int("history", len(i.history)),
			zap.Error(err),
		)
		if rbErr := i.Rollback(ctx); rbErr != nil {
			return nil, &RollbackError{Cause: err, Compensation: rbErr}
		}
		return nil, err
	}
	i.history = append(i.history, c)
	i.lg.Debug("command executed", zap.String("command", name))
	return result, nil
}

// ExecuteCommands runs commands in order and collects their results. The
// first failure stops the sequence and rolls back like ExecuteCommand.
func (i *Invoker) ExecuteCommands(ctx context.Context, commands ...Command) ([]any, error) {
	results := make([]any, 0, len(commands))
	for _, c := range commands {
		res, err := i.ExecuteCommand(ctx, c)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Rollback undoes every command in history in reverse order and clears the
// history. All commands are undone even if some undo calls fail; their
// errors are combined in the returned error.
func (i *Invoker) Rollback(ctx context.Context) error {
	var failed []error
	for idx := len(i.history) - 1; idx >= 0; idx-- {
		c := i.history[idx]
		if err := c.Undo(ctx); err != nil {
			i.lg.Warn("undo failed", zap.String("command", nameOf(c)), zap.Error(err))
			failed = append(failed, errors.Wrapf(err, "undo %s", nameOf(c)))
			continue
		}
		i.lg.Debug("command undone", zap.String("command", nameOf(c)))
	}
	i.history = nil
	if len(failed) == 0 {
		return nil
	}
	return &CompensationError{Errs: failed}
}

// History reports how many executed commands are tracked.
func (i *Invoker) History() int {
	return len(i.history)
}

// CompensationError collects the undo failures of one rollback.
type CompensationError struct {
	Errs []error
}

func (e *CompensationError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *CompensationError) Unwrap() []error { return e.Errs }

// RollbackError reports a failed step together with the undo failures that
// followed it. Unwrap yields the step's error.
type RollbackError struct {
	Cause        error
	Compensation error
}

func (e *RollbackError) Error() string {
	return e.Cause.Error() + " (rollback failed: " + e.Compensation.Error() + ")"
}

func (e *RollbackError) Unwrap() error { return e.Cause }
