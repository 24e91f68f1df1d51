package gotest

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/plugin"
	"github.com/Iron-Ham/reportlog/internal/record"
	"github.com/Iron-Ham/reportlog/internal/util"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case "passed":
		return passedStyle
	case "failed":
		return failedStyle
	case "skipped":
		return skippedStyle
	default:
		return mutedStyle
	}
}

// Progress prints the terminal view of a session: one line per test in
// verbose mode, collection errors always, and a closing summary line.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	width   int
	start   time.Time
	failed  []failure
}

// failure is one line of the short test summary.
type failure struct {
	label  string // FAILED for tests, ERROR for collection
	nodeid string
}

// NewProgress creates a printer writing to w, width columns wide.
func NewProgress(w io.Writer, verbose bool, width int) *Progress {
	return &Progress{w: w, verbose: verbose, width: width, start: time.Now()}
}

// Register subscribes the printer to report events on bus.
func (p *Progress) Register(bus *event.Bus) {
	bus.Subscribe(event.TypeTestReport, p.onReport)
	bus.Subscribe(event.TypeCollectReport, p.onReport)
}

func (p *Progress) onReport(ev event.Event) error {
	rec := ev.Record()
	nodeid, _ := record.String(rec, "nodeid")
	outcome, _ := record.String(rec, "outcome")
	collect := ev.EventType() == event.TypeCollectReport

	p.mu.Lock()
	defer p.mu.Unlock()

	label := strings.ToUpper(outcome)
	if collect {
		label = "ERROR"
	}
	if outcome == "failed" {
		p.failed = append(p.failed, failure{label: label, nodeid: nodeid})
	}
	if collect && outcome != "failed" {
		return nil
	}
	if !p.verbose && !collect {
		return nil
	}

	suffix := " " + outcomeStyle(outcome).Render(label)
	if d, ok := rec.Get("duration"); ok {
		if secs, ok := d.(float64); ok && secs > 0 {
			suffix += mutedStyle.Render(fmt.Sprintf(" (%.2fs)", secs))
		}
	}
	line := util.Truncate(nodeid, p.width-lipgloss.Width(suffix)) + suffix
	_, err := fmt.Fprintln(p.w, line)
	return err
}

// PrintSummary writes the failed node ids, then a separator line with the
// counts and wall time, coloured by the worst outcome.
func (p *Progress) PrintSummary(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.failed) > 0 {
		_, _ = fmt.Fprintln(p.w, plugin.Separator("=", "short test summary info", p.width))
		for _, f := range p.failed {
			_, _ = fmt.Fprintln(p.w, failedStyle.Render(f.label)+" "+util.Truncate(f.nodeid, p.width-len(f.label)-1))
		}
	}

	title := fmt.Sprintf("%s in %.2fs", s, time.Since(p.start).Seconds())
	style := passedStyle
	switch {
	case s.Failed > 0 || s.Errors > 0:
		style = failedStyle
	case s.Total() == 0 || s.Skipped > 0:
		style = skippedStyle
	}
	_, _ = fmt.Fprintln(p.w, style.Render(plugin.Separator("=", title, p.width)))
}
