package installer

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// CommandRunner abstracts subprocess execution so tests can fake the
// privileged tool. Implementations report the exit code separately from
// execution errors: a non-zero exit is a result, not a runner failure.
type CommandRunner interface {
	Run(ctx context.Context, stdin, name string, args ...string) (exitCode int, output []byte, err error)
}

// execRunner runs commands through os/exec.
type execRunner struct{}

// NewExecRunner returns the CommandRunner backed by os/exec.
func NewExecRunner() CommandRunner {
	return execRunner{}
}

// Run executes the command, feeding stdin and capturing combined output.
func (execRunner) Run(ctx context.Context, stdin, name string, args ...string) (int, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), output, nil
		}

		return -1, output, err
	}

	return 0, output, nil
}
