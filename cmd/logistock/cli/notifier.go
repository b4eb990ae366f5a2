package cli

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/logistock/logistock/internal/shared"
)

// ColorNotifier prints outcomes: successes in green on stdout, warnings in
// yellow and errors in red on stderr. It is safe for concurrent use.
type ColorNotifier struct {
	mu      sync.Mutex
	stdout  io.Writer
	stderr  io.Writer
	success *color.Color
	warning *color.Color
	failure *color.Color
}

// NewColorNotifier builds a notifier writing to stdout and stderr.
func NewColorNotifier(stdout, stderr io.Writer, noColor bool) *ColorNotifier {
	n := &ColorNotifier{
		stdout:  stdout,
		stderr:  stderr,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if noColor {
		n.success.DisableColor()
		n.warning.DisableColor()
		n.failure.DisableColor()
	}
	return n
}

// Notify implements shared.Notifier.
func (n *ColorNotifier) Notify(o shared.Outcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch o.Kind {
	case shared.OutcomeSuccess:
		_, _ = n.success.Fprintf(n.stdout, "%s: %s\n", o.Title, o.Message)
	case shared.OutcomeWarning:
		_, _ = n.warning.Fprintf(n.stderr, "warning: %s: %s\n", o.Title, o.Message)
	default:
		_, _ = n.failure.Fprintf(n.stderr, "error: %s: %s\n", o.Title, o.Message)
	}
}

// Print writes plain command output to stdout.
func (n *ColorNotifier) Print(lines ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, line := range lines {
		_, _ = io.WriteString(n.stdout, line+"\n")
	}
}
