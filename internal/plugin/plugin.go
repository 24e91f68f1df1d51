// Package plugin connects a test host's lifecycle hooks to a report log
// session.
//
// Configure decides whether this process owns a report log at all: only the
// controlling process does, never a worker, and only when a path was given.
// The returned Plugin forwards each hook to its session, either by direct
// calls or through an event.Bus after Register.
package plugin

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/format"
	"github.com/Iron-Ham/reportlog/internal/logging"
	"github.com/Iron-Ham/reportlog/internal/record"
	"github.com/Iron-Ham/reportlog/internal/session"
)

// WorkerEnv marks a process as a worker of a distributed run. Workers never
// open a report log.
const WorkerEnv = "REPORTLOG_WORKER"

// Config holds the host options relevant to report logging.
type Config struct {
	// Path is the --report-log destination. Empty disables the subsystem.
	Path string
	// SummaryLevel is the --summary-report-level value.
	SummaryLevel string
	// ExcludeLogsOnPassed is --report-log-exclude-logs-on-passed-tests.
	ExcludeLogsOnPassed bool
	// Version is reported in the SessionStart record.
	Version string
}

type options struct {
	logger *logging.Logger
	opener session.Opener
	getenv func(string) string
}

// Option configures Configure.
type Option func(*options)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOpener overrides how the session resolves its destination.
func WithOpener(op session.Opener) Option {
	return func(o *options) { o.opener = op }
}

// WithGetenv overrides environment lookup for worker detection.
func WithGetenv(getenv func(string) string) Option {
	return func(o *options) { o.getenv = getenv }
}

// Plugin is the configured report log integration for one host run.
type Plugin struct {
	cfg     Config
	session *session.Session
	logger  *logging.Logger

	bus  *event.Bus
	subs []string
}

// Configure creates the plugin and opens its report log. It returns
// (nil, nil) when no path is configured or the process is a worker.
func Configure(cfg Config, opts ...Option) (*Plugin, error) {
	o := options{
		logger: logging.NopLogger(),
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Path == "" {
		return nil, nil
	}
	if o.getenv(WorkerEnv) != "" {
		o.logger.Debug("worker process, report log disabled", "path", cfg.Path)
		return nil, nil
	}

	level, err := format.ParseLevel(cfg.SummaryLevel)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithSession("")
	s, err := session.New(session.Config{
		Path:                cfg.Path,
		Level:               level,
		ExcludeLogsOnPassed: cfg.ExcludeLogsOnPassed,
	}, session.WithLogger(logger), session.WithOpener(o.opener))
	if err != nil {
		return nil, err
	}
	if err := s.Open(); err != nil {
		return nil, err
	}

	return &Plugin{cfg: cfg, session: s, logger: logger}, nil
}

// Path returns the report log destination.
func (p *Plugin) Path() string {
	return p.cfg.Path
}

// Session returns the underlying log session.
func (p *Plugin) Session() *session.Session {
	return p.session
}

// OnSessionStart records the start of the run.
func (p *Plugin) OnSessionStart() error {
	return p.session.Write(event.NewSessionStartEvent(p.cfg.Version))
}

// OnSessionFinish records the end of the run with the host's exit status.
func (p *Plugin) OnSessionFinish(exitStatus int) error {
	return p.session.Write(event.NewSessionFinishEvent(exitStatus))
}

// OnTestReport records one test phase report.
func (p *Plugin) OnTestReport(rec *record.Record) error {
	return p.session.Write(event.NewTestReportEvent(rec))
}

// OnCollectReport records one collection report.
func (p *Plugin) OnCollectReport(rec *record.Record) error {
	return p.session.Write(event.NewCollectReportEvent(rec))
}

// OnWarning records a warning raised during the run.
func (p *Plugin) OnWarning(category, filename string, lineno int, message, when string, location []any) error {
	return p.session.Write(event.NewWarningMessageEvent(category, filename, lineno, message, when, location))
}

// OnTerminalSummary announces the log path in the host's terminal summary.
func (p *Plugin) OnTerminalSummary(tr TerminalReporter) {
	tr.WriteSep("-", fmt.Sprintf("generated report log file: %s", p.cfg.Path))
}

// Register subscribes the plugin to every lifecycle event on bus. Write
// failures are returned to the publisher.
func (p *Plugin) Register(bus *event.Bus) {
	p.bus = bus
	for _, t := range []string{
		event.TypeSessionStart,
		event.TypeCollectReport,
		event.TypeTestReport,
		event.TypeWarningMessage,
		event.TypeSessionFinish,
	} {
		p.subs = append(p.subs, bus.Subscribe(t, p.session.Write))
	}
}

// Unconfigure detaches the plugin from its bus and closes the session.
// It is safe to call more than once.
func (p *Plugin) Unconfigure() error {
	if p.bus != nil {
		for _, id := range p.subs {
			p.bus.Unsubscribe(id)
		}
		p.bus, p.subs = nil, nil
	}
	if err := p.session.Close(); err != nil {
		p.logger.Error("failed to close report log", "error", err)
		return errors.Wrap(err, "closing report log")
	}
	return nil
}
