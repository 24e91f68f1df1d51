package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

// Level names accepted by NewLogger and the logging.level setting.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Logger wraps slog with the attributes the report log carries around:
// session id and report path. Child loggers share the parent's output.
type Logger struct {
	logger *slog.Logger
	closer *sharedCloser
}

// sharedCloser lets every child of a file logger close the file once.
type sharedCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (s *sharedCloser) Close() error {
	s.once.Do(func() {
		if err := s.c.Close(); err != nil {
			s.err = errors.Wrap(err, "closing log file")
		}
	})
	return s.err
}

// NewLogger creates a Logger. When path is non-empty, JSON lines go to a
// RotatingWriter at path. Otherwise logs go to stderr, colourised when
// stderr is a terminal. Messages below level are dropped; an unknown level
// means INFO.
func NewLogger(path, level string, rotation RotationConfig) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if path == "" {
		return &Logger{logger: slog.New(consoleHandler(os.Stderr, opts))}, nil
	}

	rw, err := NewRotatingWriter(path, rotation)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(rw, opts)),
		closer: &sharedCloser{c: rw},
	}, nil
}

// NewWithWriter creates a Logger that writes JSON lines to w. The caller
// owns w.
func NewWithWriter(w io.Writer, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return &Logger{logger: slog.New(h)}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return &Logger{logger: slog.New(slog.DiscardHandler)}
}

func consoleHandler(f *os.File, opts *slog.HandlerOptions) slog.Handler {
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return slog.NewTextHandler(f, opts)
	}
	return tint.NewHandler(f, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.TimeOnly,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
}

func slogLevel(level string) slog.Level {
	if l, ok := levels[strings.ToUpper(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// NewSessionID returns a fresh identifier for a report log session.
func NewSessionID() string {
	return uuid.NewString()
}

// WithSession returns a child Logger tagged with sessionID. An empty
// sessionID is replaced by a new random one.
func (l *Logger) WithSession(sessionID string) *Logger {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	return l.child(slog.String("session_id", sessionID))
}

// WithPath returns a child Logger tagged with a report log path.
func (l *Logger) WithPath(path string) *Logger {
	return l.child(slog.String("path", path))
}

// With returns a child Logger carrying alternating key/value pairs. Pairs
// whose key is not a string are dropped, as is a trailing lone key.
func (l *Logger) With(args ...any) *Logger {
	var attrs []any
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			attrs = append(attrs, slog.Any(key, args[i+1]))
		}
	}
	if len(attrs) == 0 {
		return l
	}
	return l.child(attrs...)
}

func (l *Logger) child(attrs ...any) *Logger {
	return &Logger{logger: l.logger.With(attrs...), closer: l.closer}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args)
}

func (l *Logger) log(level slog.Level, msg string, args []any) {
	l.logger.Log(context.Background(), level, msg, args...)
}

// Close closes the log file, if the logger owns one. Children share the
// file, so closing any of them closes it for all; later calls are no-ops.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel normalizes level to one of the level constants, falling back
// to LevelInfo.
func ParseLevel(level string) string {
	up := strings.ToUpper(level)
	if _, ok := levels[up]; ok {
		return up
	}
	return LevelInfo
}

// ValidLevels returns the level names from most to least verbose.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
