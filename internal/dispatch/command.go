package dispatch

import "context"

// Outcome is a command's verdict on its enclosing dispatcher.
type Outcome int

const (
	// OutcomeStay keeps the current dispatcher looping.
	OutcomeStay Outcome = iota
	// OutcomeExit terminates the current dispatcher.
	OutcomeExit
)

// Command is a single menu capability. Behavior is composed from small
// values implementing this interface; there is no controller hierarchy.
type Command interface {
	// Description is the menu line shown for this command.
	Description() string
	// Applicable reports whether the command is currently offered to the
	// session. The dispatcher re-evaluates this every cycle, so role
	// changes take effect on the next prompt.
	Applicable(ctx context.Context, sess *Session) bool
	// Execute runs the command with the session identity as input and
	// reports whether the enclosing dispatcher should terminate.
	Execute(ctx context.Context, sess *Session, term Terminal) (Outcome, error)
}

// command is the closure-backed Command used by all bindings.
type command struct {
	description string
	applicable  func(ctx context.Context, sess *Session) bool
	execute     func(ctx context.Context, sess *Session, term Terminal) (Outcome, error)
}

func (c *command) Description() string { return c.description }

func (c *command) Applicable(ctx context.Context, sess *Session) bool {
	if c.applicable == nil {
		return true
	}
	return c.applicable(ctx, sess)
}

func (c *command) Execute(ctx context.Context, sess *Session, term Terminal) (Outcome, error) {
	return c.execute(ctx, sess, term)
}

// returnCommand closes the current dispatcher and hands control back to
// the parent menu.
func returnCommand() Command {
	return &command{
		description: "Return",
		execute: func(context.Context, *Session, Terminal) (Outcome, error) {
			return OutcomeExit, nil
		},
	}
}
