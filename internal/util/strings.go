// Package util holds terminal text helpers shared by the printers.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsis marks truncated text.
const Ellipsis = "..."

// Truncate shortens s to at most width visible columns, ending in
// Ellipsis. ANSI escape sequences are kept and do not count toward the
// width. A width of zero or less means unbounded.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	if width <= len(Ellipsis) {
		return strings.Repeat(".", width)
	}
	return ansi.Truncate(s, width, Ellipsis)
}
