package gotest

import (
	"context"
	"runtime"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/logging"
)

// Host drives one test session: it publishes SessionStart, converts the
// source stream into report events, and publishes SessionFinish with the
// resulting exit status. Subscribers on Bus (the report log plugin, the
// progress printer) see every event in order.
type Host struct {
	Bus *event.Bus
	// Version is reported in SessionStart; runtime.Version() when empty.
	Version string
	Logger  *logging.Logger
}

// Result describes a finished session.
type Result struct {
	ExitStatus int
	Summary    Summary
}

// Run executes the session. The returned error joins stream and
// subscriber failures; Result is valid either way.
func (h *Host) Run(ctx context.Context, src Source) (Result, error) {
	logger := h.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	version := h.Version
	if version == "" {
		version = runtime.Version()
	}

	if err := h.Bus.Publish(event.NewSessionStartEvent(version)); err != nil {
		logger.Error("session start failed", "error", err)
		return Result{ExitStatus: ExitInternalError}, err
	}

	conv := NewConverter(h.Bus.Publish)
	var errs []error
	streamErr := src.Events(ctx, conv.Handle)
	if err := conv.Finish(); err != nil {
		errs = append(errs, err)
	}

	res := Result{Summary: conv.Summary()}
	switch {
	case ctx.Err() != nil:
		res.ExitStatus = ExitInterrupted
		logger.Warn("session interrupted", "reason", ctx.Err())
	case streamErr != nil:
		res.ExitStatus = ExitInternalError
		errs = append(errs, streamErr)
	case len(errs) > 0:
		res.ExitStatus = ExitInternalError
	default:
		res.ExitStatus = res.Summary.ExitStatus()
	}

	if err := h.Bus.Publish(event.NewSessionFinishEvent(res.ExitStatus)); err != nil {
		errs = append(errs, err)
	}

	logger.Info("session finished", "exit_status", res.ExitStatus, "summary", res.Summary.String())
	return res, errors.Join(errs...)
}
