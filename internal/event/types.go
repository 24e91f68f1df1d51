// Package event defines the test-session lifecycle events that reportlog
// serializes, and the hook bus that delivers them.
package event

import (
	"time"

	"github.com/Iron-Ham/reportlog/internal/record"
)

// Report type tags written under record.ReportTypeKey.
const (
	TypeSessionStart   = "SessionStart"
	TypeSessionFinish  = "SessionFinish"
	TypeTestReport     = "TestReport"
	TypeCollectReport  = "CollectReport"
	TypeWarningMessage = "WarningMessage"
)

// Event is the interface that all lifecycle events implement.
type Event interface {
	// EventType returns the report type tag, e.g. "TestReport".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Record returns the event's canonical JSON-ready mapping, tagged with
	// its report type. Implementations never mutate host-provided data.
	Record() *record.Record
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionStartEvent is emitted once, before any report.
type SessionStartEvent struct {
	baseEvent
	Version string // Host test framework version
}

// NewSessionStartEvent creates a SessionStartEvent.
func NewSessionStartEvent(version string) SessionStartEvent {
	return SessionStartEvent{
		baseEvent: newBaseEvent(TypeSessionStart),
		Version:   version,
	}
}

// Record returns {"pytest_version": version, "$report_type": "SessionStart"}.
// The version key keeps the name downstream report-log readers look for.
func (e SessionStartEvent) Record() *record.Record {
	return record.New(
		record.F("pytest_version", e.Version),
		record.F(record.ReportTypeKey, e.eventType),
	)
}

// SessionFinishEvent is emitted once, after the last report.
type SessionFinishEvent struct {
	baseEvent
	ExitStatus int
}

// NewSessionFinishEvent creates a SessionFinishEvent.
func NewSessionFinishEvent(exitStatus int) SessionFinishEvent {
	return SessionFinishEvent{
		baseEvent:  newBaseEvent(TypeSessionFinish),
		ExitStatus: exitStatus,
	}
}

// Record returns {"exitstatus": code, "$report_type": "SessionFinish"}.
func (e SessionFinishEvent) Record() *record.Record {
	return record.New(
		record.F("exitstatus", e.ExitStatus),
		record.F(record.ReportTypeKey, e.eventType),
	)
}

// -----------------------------------------------------------------------------
// Report Events
// -----------------------------------------------------------------------------

// TestReportEvent carries the host's serialized form of one test phase
// result. Data is opaque apart from the keys the summary formatter reads
// (outcome, location, longrepr, sections).
type TestReportEvent struct {
	baseEvent
	Data *record.Record
}

// NewTestReportEvent creates a TestReportEvent.
func NewTestReportEvent(data *record.Record) TestReportEvent {
	return TestReportEvent{
		baseEvent: newBaseEvent(TypeTestReport),
		Data:      data,
	}
}

// Record returns Data, tagged with the report type when the host omitted it.
func (e TestReportEvent) Record() *record.Record {
	return tagged(e.Data, e.eventType)
}

// CollectReportEvent carries the host's serialized form of one collection result.
type CollectReportEvent struct {
	baseEvent
	Data *record.Record
}

// NewCollectReportEvent creates a CollectReportEvent.
func NewCollectReportEvent(data *record.Record) CollectReportEvent {
	return CollectReportEvent{
		baseEvent: newBaseEvent(TypeCollectReport),
		Data:      data,
	}
}

// Record returns Data, tagged with the report type when the host omitted it.
func (e CollectReportEvent) Record() *record.Record {
	return tagged(e.Data, e.eventType)
}

// tagged returns data unchanged when it already carries a report type,
// otherwise a copy with the tag appended.
func tagged(data *record.Record, reportType string) *record.Record {
	if record.Present(data, record.ReportTypeKey) {
		return data
	}
	out := record.Clone(data)
	out.Set(record.ReportTypeKey, reportType)
	return out
}

// -----------------------------------------------------------------------------
// Warning Events
// -----------------------------------------------------------------------------

// WarningMessageEvent is emitted for each warning recorded during the run.
type WarningMessageEvent struct {
	baseEvent
	Category string // Warning class name; empty when unknown
	Filename string
	Lineno   int
	Message  string
	When     string // Phase: "config", "collect" or "runtest"
	Location []any  // (filename, lineno, function) or nil
}

// NewWarningMessageEvent creates a WarningMessageEvent.
func NewWarningMessageEvent(category, filename string, lineno int, message, when string, location []any) WarningMessageEvent {
	return WarningMessageEvent{
		baseEvent: newBaseEvent(TypeWarningMessage),
		Category:  category,
		Filename:  filename,
		Lineno:    lineno,
		Message:   message,
		When:      when,
		Location:  location,
	}
}

// Record returns the warning fields followed by the report type, phase
// and location. An empty category is written as null.
func (e WarningMessageEvent) Record() *record.Record {
	var category any
	if e.Category != "" {
		category = e.Category
	}
	var location any
	if e.Location != nil {
		location = e.Location
	}
	return record.New(
		record.F("category", category),
		record.F("filename", e.Filename),
		record.F("lineno", e.Lineno),
		record.F("message", e.Message),
		record.F(record.ReportTypeKey, e.eventType),
		record.F("when", e.When),
		record.F("location", location),
	)
}
