package gotest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// framingLine matches the lines the testing package prints around each
	// test. They carry no captured output.
	framingLine = regexp.MustCompile(`^\s*(=== (RUN|PAUSE|CONT|NAME)\s|--- (PASS|FAIL|SKIP): )`)

	// logLine matches t.Log, t.Error, t.Skip and friends:
	// "    foo_test.go:12: message".
	logLine = regexp.MustCompile(`^(\s+)([^\s:]+\.go):(\d+): ?(.*)$`)

	// diagnosticLine matches a compiler or vet style diagnostic:
	// "./foo.go:12:3: message".
	diagnosticLine = regexp.MustCompile(`^([^\s:]+\.go):(\d+)(?::\d+)?: (.*)$`)

	// packageTrailer matches the summary lines go test prints per package.
	packageTrailer = regexp.MustCompile(`^(PASS|FAIL|ok|\?|coverage:|testing:)(\s|$)`)
)

// logEntry is one captured t.Log style message.
type logEntry struct {
	file    string
	line    int
	message string
	indent  int
}

func (e logEntry) String() string {
	return e.file + ":" + strconv.Itoa(e.line) + ": " + e.message
}

// capture splits a test's output into log entries and plain stdout.
type capture struct {
	logs   []logEntry
	stdout strings.Builder
	panic  string
}

// add classifies one output line. Multi-line log messages arrive as a
// log line followed by lines indented deeper than it; those are folded
// into the previous entry.
func (c *capture) add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if framingLine.MatchString(line) {
		return
	}

	if m := logLine.FindStringSubmatch(line); m != nil {
		c.logs = append(c.logs, logEntry{file: m[2], line: atoi(m[3]), message: m[4], indent: len(m[1])})
		return
	}

	if len(c.logs) > 0 {
		last := &c.logs[len(c.logs)-1]
		if indentOf(line) > last.indent && strings.TrimSpace(line) != "" {
			last.message += "\n" + strings.TrimSpace(line)
			return
		}
	}

	if c.panic == "" && strings.HasPrefix(line, "panic: ") {
		c.panic = line
	}
	c.stdout.WriteString(line)
	c.stdout.WriteByte('\n')
}

func (c *capture) logText() string {
	parts := make([]string, len(c.logs))
	for i, e := range c.logs {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
