package gotest

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/logging"
)

// Source produces a test2json event stream.
type Source interface {
	Events(ctx context.Context, fn func(TestEvent) error) error
}

// ReaderSource replays a recorded stream, e.g. `go test -json ./... > out`.
type ReaderSource struct {
	R io.Reader
}

// Events decodes the stream.
func (s ReaderSource) Events(ctx context.Context, fn func(TestEvent) error) error {
	return Decode(ctx, s.R, fn)
}

// Runner runs `go test -json` and streams its events.
type Runner struct {
	// GoBin is the go command; "go" when empty.
	GoBin string
	// Args are passed after `test -json`, e.g. package patterns and flags.
	Args []string
	// Dir is the working directory; the current one when empty.
	Dir string
	// Env overrides the environment when non-nil.
	Env []string
	// Stderr receives the command's stderr; os.Stderr when nil.
	Stderr io.Writer
	Logger *logging.Logger
}

// Events starts the go command and decodes its stdout while stderr is
// copied through. A non-zero exit of go test is not an error: failing
// tests are reported in the stream. Cancelling ctx kills the command.
func (r *Runner) Events(ctx context.Context, fn func(TestEvent) error) error {
	goBin := r.GoBin
	if goBin == "" {
		goBin = "go"
	}
	stderr := r.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	args := append([]string{"test", "-json"}, r.Args...)
	cmd := exec.CommandContext(ctx, goBin, args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	logger.Debug("starting go test", "go", goBin, "args", args, "dir", r.Dir)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", goBin, err)
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		if _, err := io.Copy(stderr, errPipe); err != nil {
			logger.Warn("copying go test stderr failed", "error", err)
		}
	})

	decodeErr := Decode(ctx, stdout, fn)
	if decodeErr != nil {
		// Drain so the command is not blocked on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
	}
	wg.Wait()
	waitErr := cmd.Wait()

	if decodeErr != nil {
		return decodeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			logger.Debug("go test exited", "code", exitErr.ExitCode())
			return nil
		}
		return fmt.Errorf("go test failed: %w", waitErr)
	}
	return nil
}
