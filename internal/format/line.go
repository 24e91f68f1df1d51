package format

import (
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/record"
)

// capturedLogSections are the section names removed from passing test
// reports when log exclusion is enabled.
var capturedLogSections = map[string]bool{
	"Captured log setup":    true,
	"Captured log call":     true,
	"Captured log teardown": true,
}

// LineFormatter writes one JSON object per line. No event is dropped.
type LineFormatter struct {
	excludeLogs bool
	onSanitize  func(string)
}

// Format returns the compact encoding of ev's record followed by "\n".
func (f *LineFormatter) Format(ev event.Event) ([]byte, error) {
	rec := ev.Record()
	if f.excludeLogs && ev.EventType() == event.TypeTestReport {
		if outcome, _ := record.String(rec, "outcome"); Outcome(outcome) == OutcomePassed {
			rec = stripCapturedLogs(rec)
		}
	}

	data, sanitized, err := record.Encode(rec)
	if err != nil {
		return nil, err
	}
	if sanitized && f.onSanitize != nil {
		f.onSanitize(ev.EventType())
	}
	return append(data, '\n'), nil
}

// Close returns nil; every line is complete on its own.
func (f *LineFormatter) Close() []byte {
	return nil
}

// stripCapturedLogs returns a copy of rec whose "sections" list no longer
// contains captured-log entries. Each section is a (name, content) pair.
func stripCapturedLogs(rec *record.Record) *record.Record {
	v, ok := rec.Get("sections")
	if !ok {
		return rec
	}
	sections, ok := v.([]any)
	if !ok {
		return rec
	}

	kept := make([]any, 0, len(sections))
	for _, s := range sections {
		if name, ok := sectionName(s); ok && capturedLogSections[name] {
			continue
		}
		kept = append(kept, s)
	}

	out := record.Clone(rec)
	out.Set("sections", kept)
	return out
}

// sectionName extracts the name of a (name, content) section entry, which
// may arrive as []any, []string or [2]string depending on the producer.
func sectionName(s any) (string, bool) {
	switch v := s.(type) {
	case []any:
		if len(v) > 0 {
			name, ok := v[0].(string)
			return name, ok
		}
	case []string:
		if len(v) > 0 {
			return v[0], true
		}
	case [2]string:
		return v[0], true
	}
	return "", false
}
