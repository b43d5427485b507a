package dispatch

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// Terminal is the protocol-neutral presentation boundary: the dispatcher
// hands it description strings and receives raw line input back. Whether
// the other side is a tty or something else is not its concern.
type Terminal interface {
	// Prompt prints the label without a newline and reads one line.
	Prompt(label string) (string, error)
	// Print writes one message followed by a newline.
	Print(msg string)
}

// ConsoleTerminal is the stdin/stdout Terminal used by the console
// deployment. Pause runs after each read, giving the menu the original's
// small beat between input and response; tests leave it nil.
type ConsoleTerminal struct {
	in    *bufio.Reader
	out   io.Writer
	Pause func()
}

// NewConsoleTerminal returns a terminal over the given reader and writer
// with the default 200ms pause.
func NewConsoleTerminal(in io.Reader, out io.Writer) *ConsoleTerminal {
	return &ConsoleTerminal{
		in:    bufio.NewReader(in),
		out:   out,
		Pause: func() { time.Sleep(200 * time.Millisecond) },
	}
}

// Prompt implements Terminal.
func (t *ConsoleTerminal) Prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	if t.Pause != nil {
		t.Pause()
	}
	// Trim the trailing newline, tolerating CRLF input.
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// Print implements Terminal.
func (t *ConsoleTerminal) Print(msg string) {
	fmt.Fprintln(t.out, msg)
}
