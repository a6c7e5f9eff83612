package alert

import (
	"context"
	"fmt"
	"io"
)

// ConsoleNotifier writes alerts to a stream, normally stdout. It is always
// wired so alerts remain visible even when no chat sink is configured.
type ConsoleNotifier struct {
	out io.Writer
}

// NewConsoleNotifier creates a console sink writing to out.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Notify(_ context.Context, msg Message) error {
	_, err := fmt.Fprintln(c.out, msg.Format())
	return err
}
