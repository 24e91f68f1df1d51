package plugin

import (
	"fmt"
	"io"
	"strings"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// TerminalReporter writes the host's end-of-run summary.
type TerminalReporter interface {
	// WriteSep writes title centred in a line filled with sep.
	WriteSep(sep, title string)
}

// SeparatorWriter is a TerminalReporter over a plain writer.
type SeparatorWriter struct {
	W     io.Writer
	Width int
}

// WriteSep writes "---- title ----" sized to the configured width.
func (s SeparatorWriter) WriteSep(sep, title string) {
	_, _ = fmt.Fprintln(s.W, Separator(sep, title, s.Width))
}

// Separator returns title centred between runs of sep, at most width
// columns wide. Each run is at least one sep long.
func Separator(sep, title string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if sep == "" {
		sep = "-"
	}
	if title == "" {
		return strings.Repeat(sep, width/len(sep))
	}

	n := max((width-len(title)-2)/(2*len(sep)), 1)
	fill := strings.Repeat(sep, n)
	line := fill + " " + title + " " + fill
	if trimmed := strings.TrimRight(sep, " "); len(line)+len(trimmed) <= width {
		line += trimmed
	}
	return line
}
