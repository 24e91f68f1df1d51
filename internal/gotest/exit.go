package gotest

import "fmt"

// Exit statuses reported in SessionFinish. They follow the pytest codes so
// that existing report log consumers interpret them the same way.
const (
	ExitOK               = 0
	ExitTestsFailed      = 1
	ExitInterrupted      = 2
	ExitInternalError    = 3
	ExitUsageError       = 4
	ExitNoTestsCollected = 5
)

// Summary counts the reports produced for a run.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	// Errors counts packages that failed to build or run outside any test.
	Errors int
}

// Total returns the number of test reports.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Skipped
}

// ExitStatus derives the session exit status from the counts.
func (s Summary) ExitStatus() int {
	switch {
	case s.Failed > 0 || s.Errors > 0:
		return ExitTestsFailed
	case s.Total() == 0:
		return ExitNoTestsCollected
	default:
		return ExitOK
	}
}

// String renders "2 passed, 1 failed, 1 skipped" style counts. Zero
// counts are left out.
func (s Summary) String() string {
	var out string
	add := func(n int, label string) {
		if n == 0 {
			return
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%d %s", n, label)
	}
	add(s.Failed, "failed")
	add(s.Passed, "passed")
	add(s.Skipped, "skipped")
	switch s.Errors {
	case 0:
	case 1:
		add(1, "error")
	default:
		add(s.Errors, "errors")
	}
	if out == "" {
		return "no tests ran"
	}
	return out
}
