package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// runCommand executes a suite's command through sh -c in baseDir and
// returns its standard output.
func (r *Runner) runCommand(ctx context.Context, command, baseDir string) ([]byte, error) {
	cmdStr := strings.TrimSpace(command)
	if cmdStr == "" {
		return nil, fmt.Errorf("empty command")
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	execCmd.Dir = baseDir
	execCmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	if err := execCmd.Run(); err != nil {
		return nil, fmt.Errorf("command failed: %s: %v\nOutput: %s", cmdStr, err, strings.TrimSpace(stderr.String()))
	}

	if r.config.Verbose && stderr.Len() > 0 {
		fmt.Fprintf(os.Stderr, "Command stderr: %s\n", stderr.String())
	}

	return stdout.Bytes(), nil
}
