// Package format turns lifecycle events into the bytes of a report log.
//
// Two variants exist, chosen once per session from the summary level:
//
//   - LineFormatter (level none) writes every event as one compact JSON
//     object followed by a newline.
//   - SummaryFormatter (any other level) builds a single JSON array of
//     session start, reduced outcome records and session finish.
package format

import (
	"github.com/Iron-Ham/reportlog/internal/event"
)

// Formatter converts events into bytes for the sink.
type Formatter interface {
	// Format returns the bytes to write for ev. A nil slice means the event
	// contributes nothing to the document.
	Format(ev event.Event) ([]byte, error)

	// Close returns the bytes still needed to leave the document valid when
	// the session ends, or nil. It is called once, before the sink closes.
	Close() []byte
}

// Options configures a Formatter.
type Options struct {
	// Level selects the variant: LevelNone yields a LineFormatter.
	Level Level
	// ExcludeLogsOnPassed strips captured-log sections from passing test
	// reports. Only the line variant honours it.
	ExcludeLogsOnPassed bool
	// OnSanitize, when set, is called with the event type each time a
	// record needed the sanitizer fallback.
	OnSanitize func(eventType string)
}

// New returns the Formatter variant for opts.Level.
func New(opts Options) Formatter {
	if opts.Level == LevelNone {
		return &LineFormatter{
			excludeLogs: opts.ExcludeLogsOnPassed,
			onSanitize:  opts.OnSanitize,
		}
	}
	return &SummaryFormatter{
		level:      opts.Level,
		onSanitize: opts.OnSanitize,
	}
}
