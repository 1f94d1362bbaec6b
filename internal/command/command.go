// Package command runs compensable steps in sequence and undoes the completed
// ones in reverse order when a later step fails.
package command

import "context"

// Command is one compensable step. Undo reverses the effect of the most
// recent successful Execute on the same value and must be a no-op when
// Execute never completed.
type Command interface {
	Execute(ctx context.Context) (any, error)
	Undo(ctx context.Context) error
}

// Namer is implemented by commands that report a name for logs and spans.
type Namer interface {
	Name() string
}

func nameOf(c Command) string {
	if n, ok := c.(Namer); ok {
		return n.Name()
	}
	return "command"
}
