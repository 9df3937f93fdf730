package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandNotifier runs a local command, typically a desktop notifier such
// as notify-send or terminal-notifier, with the run headline.
type CommandNotifier struct {
	command string
	args    []string
	title   string
	timeout time.Duration
}

// CommandOption is a functional option for CommandNotifier
type CommandOption func(*CommandNotifier)

// WithCommandTitle sets the value of the {{title}} placeholder
func WithCommandTitle(title string) CommandOption {
	return func(c *CommandNotifier) {
		c.title = title
	}
}

// WithCommandTimeout bounds the command's run time
func WithCommandTimeout(d time.Duration) CommandOption {
	return func(c *CommandNotifier) {
		c.timeout = d
	}
}

// NewCommandNotifier creates a notifier from a command line. The
// placeholders {{title}} and {{message}} in the arguments are replaced;
// without arguments the title and message are appended.
func NewCommandNotifier(commandLine string, opts ...CommandOption) *CommandNotifier {
	fields := strings.Fields(commandLine)
	c := &CommandNotifier{
		title:   "shapespec",
		timeout: 10 * time.Second,
	}
	if len(fields) > 0 {
		c.command = fields[0]
		c.args = fields[1:]
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name of the notifier
func (c *CommandNotifier) Name() string {
	return "command"
}

// Notify runs the command
func (c *CommandNotifier) Notify(summary *RunSummary) error {
	if c.command == "" {
		return fmt.Errorf("no notification command configured")
	}

	message := Headline(summary)
	if summary.IsRecovery {
		message += " (recovered)"
	}

	args := c.buildArgs(message)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, c.command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("notification command failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (c *CommandNotifier) buildArgs(message string) []string {
	if len(c.args) == 0 {
		return []string{c.title, message}
	}
	replacer := strings.NewReplacer("{{title}}", c.title, "{{message}}", message)
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = replacer.Replace(a)
	}
	return args
}
