// Package errors holds the sentinel errors and typed errors shared across
// reportlog, plus thin wrappers over the standard errors package.
//
// # Error Types
//
// Each typed error belongs to one subsystem:
//   - SinkError: opening, writing or closing a report log destination
//   - SessionError: log session lifecycle violations
//   - FormatError: a report record that cannot satisfy the summary schema
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewSinkError("open failed", cause).WithPath("/tmp/log.json.gz")
//	err := errors.NewFormatError("missing crash message", errors.ErrMissingField).
//	    WithReportType("TestReport").
//	    WithField("longrepr.reprcrash.message")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSinkLocked) { ... }
//
//	var formatErr *errors.FormatError
//	if errors.As(err, &formatErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard library helpers, re-exported so callers need a single import.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sink sentinels.
var (
	// ErrSinkLocked means another session already owns the destination file.
	ErrSinkLocked = New("report log is locked by another session")
	// ErrSinkClosed means a write reached a sink that was already closed.
	ErrSinkClosed = New("report log sink is closed")
)

// Session sentinels.
var (
	ErrSessionClosed = New("log session is closed")
	ErrNoDestination = New("no report log destination configured")
)

// Formatting sentinels.
var (
	// ErrMissingField means a report lacks a field the summary schema requires.
	ErrMissingField = New("required report field missing")
	// ErrDocumentClosed means an event arrived after the summary array was terminated.
	ErrDocumentClosed = New("summary document already closed")
	ErrInvalidLevel   = New("invalid summary report level")
)

// ReportLogError is implemented by every error type in this package.
type ReportLogError interface {
	error
	Unwrap() error
	Is(target error) bool
	// IsUserFacing reports whether the message can be shown to end users
	// as is.
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	userFacing bool
}

func (e *baseError) Error() string {
	return e.render("")
}

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) Is(target error) bool {
	return e.cause != nil && errors.Is(e.cause, target)
}

func (e *baseError) IsUserFacing() bool { return e.userFacing }

// render produces "<kind> [k=v, ...]: message: cause". kv holds key/value
// pairs; pairs with an empty value are left out.
func (e *baseError) render(kind string, kv ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	var ctx []string
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			ctx = append(ctx, kv[i]+"="+kv[i+1])
		}
	}
	if len(ctx) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(ctx, ", "))
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.message)
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// SinkError reports a failure opening, writing or closing a report log file.
//
//	err := errors.NewSinkError("open failed", os.ErrPermission).WithPath("/var/log/r.json")
//	fmt.Println(err) // "sink error [path=/var/log/r.json]: open failed: permission denied"
type SinkError struct {
	baseError
	Path  string
	Codec string
}

func NewSinkError(message string, cause error) *SinkError {
	return &SinkError{baseError: baseError{message: message, cause: cause, userFacing: true}}
}

func (e *SinkError) WithPath(path string) *SinkError {
	e.Path = path
	return e
}

// WithCodec records the compression codec ("gzip", "bzip2", "xz").
func (e *SinkError) WithCodec(codec string) *SinkError {
	e.Codec = codec
	return e
}

func (e *SinkError) Error() string {
	return e.render("sink error", "path", e.Path, "codec", e.Codec)
}

func (e *SinkError) Is(target error) bool {
	_, ok := target.(*SinkError)
	return ok || e.baseError.Is(target)
}

// SessionError reports a log session used outside its lifecycle.
type SessionError struct {
	baseError
	Path  string
	State string
}

func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{baseError: baseError{message: message, cause: cause, userFacing: true}}
}

func (e *SessionError) WithPath(path string) *SessionError {
	e.Path = path
	return e
}

// WithState records the session state when the failure happened.
func (e *SessionError) WithState(state string) *SessionError {
	e.State = state
	return e
}

func (e *SessionError) Error() string {
	return e.render("session error", "path", e.Path, "state", e.State)
}

func (e *SessionError) Is(target error) bool {
	_, ok := target.(*SessionError)
	return ok || e.baseError.Is(target)
}

// FormatError is raised when a report record cannot be reduced to the
// summary schema, e.g. a failed report without a crash message. Its
// message names internal fields, so it is not user facing.
type FormatError struct {
	baseError
	ReportType string
	Field      string
}

func NewFormatError(message string, cause error) *FormatError {
	return &FormatError{baseError: baseError{message: message, cause: cause}}
}

// WithReportType records the report kind ("TestReport", "CollectReport").
func (e *FormatError) WithReportType(reportType string) *FormatError {
	e.ReportType = reportType
	return e
}

// WithField records the dotted path of the offending field.
func (e *FormatError) WithField(field string) *FormatError {
	e.Field = field
	return e
}

func (e *FormatError) Error() string {
	return e.render("format error", "report", e.ReportType, "field", e.Field)
}

func (e *FormatError) Is(target error) bool {
	_, ok := target.(*FormatError)
	return ok || e.baseError.Is(target)
}

// IsUserFacing reports whether err, or an error it wraps, is a
// ReportLogError marked safe to show end users.
func IsUserFacing(err error) bool {
	var rlErr ReportLogError
	return err != nil && As(err, &rlErr) && rlErr.IsUserFacing()
}

// Wrap prefixes err with message. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
