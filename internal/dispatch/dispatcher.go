package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gather/internal/observability"
)

// Dispatcher presents a list of commands and executes selections until a
// command signals exit. Dispatchers nest: a command may build and run a
// child dispatcher scoped to a narrower context, threading the same
// session through it.
type Dispatcher struct {
	title    string
	commands []Command
}

// NewDispatcher returns a dispatcher over the candidate commands. The menu
// keeps the given order; filtering never reorders.
func NewDispatcher(title string, commands ...Command) *Dispatcher {
	return &Dispatcher{title: title, commands: commands}
}

// Run loops: filter, present, select, execute. Out-of-range or non-numeric
// selections re-prompt in place with no state change. Command failures are
// printed and control returns to the prompt; only terminal I/O errors (EOF)
// propagate.
func (d *Dispatcher) Run(ctx context.Context, sess *Session, term Terminal) error {
	for {
		offered := make([]Command, 0, len(d.commands))
		for _, cmd := range d.commands {
			if cmd.Applicable(ctx, sess) {
				offered = append(offered, cmd)
			}
		}
		if len(offered) == 0 {
			return nil
		}

		if d.title != "" {
			term.Print("")
			term.Print(d.title)
		}
		for i, cmd := range offered {
			term.Print(fmt.Sprintf("%d. %s", i+1, cmd.Description()))
		}

		choice, ok, err := d.readSelection(term, len(offered))
		if err != nil {
			return err
		}
		if !ok {
			// Invalid input is a retry, not an error and not an exit.
			continue
		}

		selected := offered[choice-1]
		outcome, err := selected.Execute(ctx, sess, term)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Input is gone; a nested dispatcher already hit it.
				return err
			}
			observability.CommandExecutions.WithLabelValues(selected.Description(), "error").Inc()
			term.Print(err.Error())
			continue
		}
		observability.CommandExecutions.WithLabelValues(selected.Description(), "ok").Inc()
		if outcome == OutcomeExit {
			return nil
		}
	}
}

// readSelection reads one 1-based menu choice. ok is false when the input
// is not a number in range.
func (d *Dispatcher) readSelection(term Terminal, max int) (int, bool, error) {
	line, err := term.Prompt("Enter the number of the action you wish to take: ")
	if err != nil {
		return 0, false, err
	}
	n, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil || n < 1 || n > max {
		term.Print("The number input is invalid.")
		return 0, false, nil
	}
	return n, true, nil
}
