// Package session owns one report log from open to close.
//
// A Session binds a destination path to a formatter whose mode is fixed at
// construction. It moves through three states:
//
//	Created --Open/first Write--> Open --Close--> Closed
//
// Closing writes whatever trailer the formatter needs to leave a valid
// document, so an interrupted run still produces a parseable file.
package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/format"
	"github.com/Iron-Ham/reportlog/internal/logging"
	"github.com/Iron-Ham/reportlog/internal/sink"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateCreated State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config describes a report log session.
type Config struct {
	// Path is the destination file. Its suffix selects compression.
	Path string
	// Level selects line mode (LevelNone) or the filtered summary array.
	Level format.Level
	// ExcludeLogsOnPassed strips captured logs from passing test reports.
	ExcludeLogsOnPassed bool
}

// Writer is the destination a session writes to. *sink.Sink satisfies it.
type Writer interface {
	io.Writer
	Flush() error
	Close() error
}

// Opener resolves a path into a Writer.
type Opener func(path string) (Writer, error)

func openSink(path string) (Writer, error) {
	return sink.Open(path)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOpener replaces the sink resolver, mainly for tests.
func WithOpener(o Opener) Option {
	return func(s *Session) {
		if o != nil {
			s.open = o
		}
	}
}

// Session is one report log. It is safe for concurrent use; writes are
// serialized in arrival order.
type Session struct {
	mu sync.Mutex

	cfg       Config
	formatter format.Formatter
	open      Opener
	logger    *logging.Logger

	out     Writer
	state   State
	written int
}

// New creates a session in the Created state. No file is touched until
// Open or the first Write.
func New(cfg Config, opts ...Option) (*Session, error) {
	if cfg.Path == "" {
		return nil, errors.NewSessionError("no report log path", errors.ErrNoDestination)
	}
	if cfg.Level < format.LevelNone || cfg.Level > format.LevelFailed {
		return nil, errors.NewSessionError(cfg.Level.String(), errors.ErrInvalidLevel).WithPath(cfg.Path)
	}

	s := &Session{
		cfg:    cfg,
		open:   openSink,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithPath(cfg.Path)
	s.formatter = format.New(format.Options{
		Level:               cfg.Level,
		ExcludeLogsOnPassed: cfg.ExcludeLogsOnPassed,
		OnSanitize: func(reportType string) {
			s.logger.Warn("record contained unencodable values", "report_type", reportType)
		},
	})
	return s, nil
}

// Path returns the destination path.
func (s *Session) Path() string {
	return s.cfg.Path
}

// Level returns the summary level the session was created with.
func (s *Session) Level() format.Level {
	return s.cfg.Level
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open resolves the destination. Opening an open session is a no-op;
// opening a closed one fails with ErrSessionClosed.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked()
}

func (s *Session) openLocked() error {
	switch s.state {
	case StateOpen:
		return nil
	case StateClosed:
		return s.closedError()
	}

	w, err := s.open(s.cfg.Path)
	if err != nil {
		s.logger.Error("failed to open report log", "error", err)
		return err
	}
	s.out = w
	s.state = StateOpen
	s.logger.Debug("report log opened", "level", s.cfg.Level.String(), "writer", fmt.Sprint(w))
	return nil
}

// Write formats ev and appends it to the log, opening the destination on
// first use. Events the formatter filters out are accepted and dropped.
func (s *Session) Write(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return s.closedError()
	}
	if err := s.openLocked(); err != nil {
		return err
	}

	data, err := s.formatter.Format(ev)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := s.writeLocked(data); err != nil {
		s.logger.Error("failed to write event", "report_type", ev.EventType(), "error", err)
		return err
	}
	s.written++
	return nil
}

func (s *Session) writeLocked(data []byte) error {
	if _, err := s.out.Write(data); err != nil {
		return err
	}
	return s.out.Flush()
}

// Close writes the formatter trailer, flushes and closes the destination.
// A session that was never opened is simply marked closed. Calling Close
// again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	if prev == StateClosed {
		return nil
	}
	s.state = StateClosed
	if prev == StateCreated {
		return nil
	}

	var errs []error
	if tail := s.formatter.Close(); len(tail) > 0 {
		if err := s.writeLocked(tail); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.out.Close(); err != nil {
		errs = append(errs, err)
	}
	s.out = nil

	s.logger.Debug("report log closed", "events_written", s.written)
	return errors.Join(errs...)
}

func (s *Session) closedError() error {
	return errors.NewSessionError("session is closed", errors.ErrSessionClosed).
		WithPath(s.cfg.Path).
		WithState(s.state.String())
}
