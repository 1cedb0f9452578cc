package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"
)

// Exit codes the runner synthesises itself; everything else is the child's
// real exit code.
const (
	exitInvalidCommand = 2
	exitTimeout        = 124
	exitNotSpawnable   = 126
	exitNotFound       = 127
)

// killGracePeriod is how long a timed-out child gets between SIGTERM and
// SIGKILL.
const killGracePeriod = 5 * time.Second

// Result is the outcome of one command execution.
type Result struct {
	ExitCode int64
	// Output is the child's standard output followed by its standard error,
	// as UTF-8 with lossy replacement of undecodable bytes.
	Output string
	// FailureReason is empty when the command ran to completion, whatever
	// its exit code.
	FailureReason string
}

// RunJob executes a job command. The command is split with POSIX shell-style
// word rules (quotes honoured, no globbing, no variable expansion) and the
// argv is spawned directly: no shell is ever involved, so shell
// metacharacters in arguments stay literal.
func RunJob(ctx context.Context, command string, timeout time.Duration, workDir string) Result {
	argv, err := shellquote.Split(command)
	if err != nil {
		return Result{
			ExitCode:      exitInvalidCommand,
			FailureReason: fmt.Sprintf("invalid command: %v", err),
		}
	}
	if len(argv) == 0 {
		return Result{
			ExitCode:      exitInvalidCommand,
			FailureReason: "invalid command: empty command",
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// On timeout, terminate before killing so the child can flush.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGracePeriod

	runErr := cmd.Run()
	output := strings.ToValidUTF8(stdout.String()+stderr.String(), "�")

	if runErr == nil {
		return Result{ExitCode: 0, Output: output}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{
			ExitCode:      exitTimeout,
			Output:        output,
			FailureReason: fmt.Sprintf("timeout exceeded (%ds)", int64(timeout.Seconds())),
		}
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(runErr, exec.ErrNotFound):
		return Result{
			ExitCode:      exitNotFound,
			FailureReason: fmt.Sprintf("command not found: %s", argv[0]),
		}
	case errors.As(runErr, &exitErr):
		return Result{ExitCode: int64(exitErr.ExitCode()), Output: output}
	default:
		return Result{
			ExitCode:      exitNotSpawnable,
			Output:        output,
			FailureReason: fmt.Sprintf("command failed to start: %v", runErr),
		}
	}
}
