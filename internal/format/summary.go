package format

import (
	"bytes"
	"reflect"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/record"
)

// crashMessagePath locates the failure message inside a failed report.
var crashMessagePath = []string{"longrepr", "reprcrash", "message"}

// SummaryFormatter writes the session as one JSON array:
//
//	[{start},
//	{reduced report},
//	{finish}]
//
// Elements are joined by ",\n". Events that contribute nothing add no
// separator either, so the array never has dangling commas.
type SummaryFormatter struct {
	level      Level
	onSanitize func(string)

	opened bool // "[" written
	closed bool // "]" written
}

// Format returns the bytes ev adds to the array, or nil when ev is
// filtered out. Located reports are reduced to {outcome, location[, message]};
// a failed report without longrepr.reprcrash.message is a FormatError.
func (f *SummaryFormatter) Format(ev event.Event) ([]byte, error) {
	rec := ev.Record()

	var (
		elem   *record.Record
		finish bool
	)
	if outcome, ok := record.String(rec, "outcome"); ok {
		o := Outcome(outcome)
		if !f.level.Includes(o) {
			return nil, nil
		}
		reduced, err := reduce(ev.EventType(), rec, o)
		if err != nil {
			return nil, err
		}
		if reduced == nil {
			return nil, nil
		}
		elem = reduced
	} else if record.Present(rec, "pytest_version") {
		elem = rec
	} else if record.Present(rec, "exitstatus") {
		elem = rec
		finish = true
	} else {
		return nil, nil
	}

	if f.closed {
		return nil, errors.NewFormatError("event after session finish", errors.ErrDocumentClosed).
			WithReportType(ev.EventType())
	}

	data, sanitized, err := record.Encode(elem)
	if err != nil {
		return nil, err
	}
	if sanitized && f.onSanitize != nil {
		f.onSanitize(ev.EventType())
	}

	var buf bytes.Buffer
	if f.opened {
		buf.WriteString(",\n")
	} else {
		buf.WriteByte('[')
		f.opened = true
	}
	buf.Write(data)
	if finish {
		buf.WriteByte(']')
		f.closed = true
	}
	return buf.Bytes(), nil
}

// Close terminates an unfinished array so that an interrupted run still
// leaves a parseable document. A session that wrote nothing yields "[]".
func (f *SummaryFormatter) Close() []byte {
	switch {
	case f.closed:
		return nil
	case !f.opened:
		f.opened, f.closed = true, true
		return []byte("[]")
	default:
		f.closed = true
		return []byte("]")
	}
}

// reduce narrows a retained report to the summary fields. A report with
// a location becomes {outcome, location}. Without one, a passed report is
// dropped (nil) and skipped or failed reports are kept whole. Failed
// reports also gain their crash message.
func reduce(reportType string, rec *record.Record, o Outcome) (*record.Record, error) {
	location, hasLocation := locationOf(rec)

	var out *record.Record
	switch {
	case hasLocation:
		out = record.New(record.F("outcome", string(o)), record.F("location", location))
	case o == OutcomePassed:
		return nil, nil
	default:
		out = record.Clone(rec)
	}

	if o == OutcomeFailed {
		msg, ok := record.Lookup(rec, crashMessagePath...)
		if !ok {
			return nil, errors.NewFormatError("failed report has no crash message", errors.ErrMissingField).
				WithReportType(reportType).
				WithField(record.Path(crashMessagePath...))
		}
		out.Set("message", msg)
	}
	return out, nil
}

// locationOf returns the report location when it is present and non-empty.
func locationOf(rec *record.Record) (any, bool) {
	v, ok := rec.Get("location")
	if !ok || v == nil {
		return nil, false
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String, reflect.Map:
		if rv.Len() == 0 {
			return nil, false
		}
	}
	return v, true
}
