package format

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/reportlog/internal/errors"
)

// Outcome is a report outcome that takes part in summary filtering.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// rank orders outcomes: passed < skipped < failed. Unknown outcomes rank 0.
func (o Outcome) rank() int {
	switch o {
	case OutcomePassed:
		return 1
	case OutcomeSkipped:
		return 2
	case OutcomeFailed:
		return 3
	default:
		return 0
	}
}

// Level is the configured summary report level.
type Level int

const (
	// LevelNone disables filtering: every event is written as one JSON line.
	LevelNone Level = iota
	// LevelPassed keeps passed, skipped and failed reports.
	LevelPassed
	// LevelSkipped keeps skipped and failed reports.
	LevelSkipped
	// LevelFailed keeps failed reports only.
	LevelFailed
)

// String returns the flag spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelPassed:
		return "passed"
	case LevelSkipped:
		return "skipped"
	case LevelFailed:
		return "failed"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Includes reports whether a report with outcome o is retained at level l:
// o must be at or above the configured level. LevelNone includes everything.
func (l Level) Includes(o Outcome) bool {
	if l == LevelNone {
		return true
	}
	r := o.rank()
	return r != 0 && r >= int(l)
}

// ValidLevels returns the accepted level strings.
func ValidLevels() []string {
	return []string{"none", "passed", "skipped", "failed"}
}

// ParseLevel converts a level string (case-insensitive) to a Level.
// The empty string means none.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LevelNone, nil
	case "passed":
		return LevelPassed, nil
	case "skipped":
		return LevelSkipped, nil
	case "failed":
		return LevelFailed, nil
	default:
		return LevelNone, fmt.Errorf("%w: %q (valid: %s)", errors.ErrInvalidLevel, s, strings.Join(ValidLevels(), ", "))
	}
}
