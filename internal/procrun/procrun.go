// Package procrun runs external generator processes with a timeout and
// captured, size-capped output. It reports outcomes as data so callers can
// fold them into diagnostics without re-parsing error strings.
package procrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/vk/rtlforge/internal/ctxlog"
)

// maxCapturedOutput caps each captured stream. Generators log compilation
// noise freely; only the head is useful in a diagnostic.
const maxCapturedOutput = 1 << 20

// Call describes one process invocation.
type Call struct {
	// Argv is the command and its arguments, already expanded.
	Argv []string

	// Dir is the working directory the process runs in.
	Dir string

	// Env holds extra environment entries appended to the parent
	// environment.
	Env []string

	// Timeout bounds the invocation. Zero means no limit.
	Timeout time.Duration
}

// Result captures one finished invocation.
type Result struct {
	// ExitCode is the process exit code; -1 when the process never ran or
	// was killed before exiting on its own.
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	TimedOut bool
}

// Run executes the call and waits for completion. A non-nil error means the
// invocation is unusable: the process could not start, timed out, or exited
// non-zero. The Result is populated in every case where the process ran.
func Run(ctx context.Context, call Call) (*Result, error) {
	if len(call.Argv) == 0 {
		return &Result{ExitCode: -1}, fmt.Errorf("empty command")
	}

	logger := ctxlog.FromContext(ctx).With("command", call.Argv[0])

	execCtx := ctx
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, call.Argv[0], call.Argv[1:]...)
	cmd.Dir = call.Dir
	if len(call.Env) > 0 {
		cmd.Env = append(os.Environ(), call.Env...)
	}

	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}
	cmd.Stdout = &limitedWriter{w: stdoutBuf, limit: maxCapturedOutput}
	cmd.Stderr = &limitedWriter{w: stderrBuf, limit: maxCapturedOutput}

	logger.Debug("Starting generator process.", "argv", call.Argv, "dir", call.Dir, "timeout", call.Timeout)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return &Result{ExitCode: -1}, fmt.Errorf("failed to start process: %w", err)
	}
	err := cmd.Wait()

	result := &Result{
		ExitCode: 0,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.TimedOut = true
			logger.Debug("Generator process timed out.", "duration", result.Duration)
			return result, fmt.Errorf("process timed out after %s", call.Timeout)
		}
		if result.ExitCode > 0 || exitErr != nil {
			logger.Debug("Generator process failed.", "exit_code", result.ExitCode, "duration", result.Duration)
			return result, fmt.Errorf("process exited with code %d", result.ExitCode)
		}
		return result, err
	}

	logger.Debug("Generator process finished.", "duration", result.Duration)
	return result, nil
}

// limitedWriter wraps a writer and enforces a size limit. Once the limit is
// reached, further writes are discarded.
type limitedWriter struct {
	w       io.Writer
	limit   int
	written int
}

func (lw *limitedWriter) Write(p []byte) (n int, err error) {
	remaining := lw.limit - lw.written
	if remaining <= 0 {
		return len(p), nil
	}

	toWrite := p
	if len(p) > remaining {
		toWrite = p[:remaining]
	}

	n, err = lw.w.Write(toWrite)
	lw.written += n
	if err != nil {
		return n, err
	}
	return len(p), nil
}
