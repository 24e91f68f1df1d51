package gotest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/reportlog/internal/errors"
	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/plugin"
	"github.com/Iron-Ham/reportlog/internal/record"
	"github.com/Iron-Ham/reportlog/internal/testutil"
)

func newPlugin(t *testing.T, cfg plugin.Config, bus *event.Bus) *plugin.Plugin {
	t.Helper()
	p, err := plugin.Configure(cfg, plugin.WithGetenv(func(string) string { return "" }))
	if err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	p.Register(bus)
	return p
}

func TestHostRunLineMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.jsonl.gz")
	bus := event.NewBus()
	p := newPlugin(t, plugin.Config{Path: path, Version: "go-test"}, bus)

	host := &Host{Bus: bus, Version: "go-test"}
	res, err := host.Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if err := p.Unconfigure(); err != nil {
		t.Fatalf("Unconfigure failed: %v", err)
	}

	if res.ExitStatus != ExitTestsFailed {
		t.Errorf("ExitStatus = %d, want %d", res.ExitStatus, ExitTestsFailed)
	}

	lines := testutil.ReadJSONLines(t, path)
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	if lines[0]["pytest_version"] != "go-test" {
		t.Errorf("first line = %v", lines[0])
	}
	last := lines[len(lines)-1]
	if last["$report_type"] != "SessionFinish" || last["exitstatus"] != float64(ExitTestsFailed) {
		t.Errorf("last line = %v", last)
	}
}

func TestHostRunSummaryMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.json")
	bus := event.NewBus()
	p := newPlugin(t, plugin.Config{Path: path, SummaryLevel: "failed"}, bus)

	host := &Host{Bus: bus}
	if _, err := host.Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	_ = p.Unconfigure()

	arr := testutil.ReadJSONArray(t, path)
	// start, TestDiv, broken package, finish
	if len(arr) != 4 {
		t.Fatalf("array has %d elements, want 4: %v", len(arr), arr)
	}
	if arr[0]["pytest_version"] != runtime.Version() {
		t.Errorf("start = %v", arr[0])
	}
	if arr[1]["message"] != "want 2, got 3\nextra detail" {
		t.Errorf("failed test = %v", arr[1])
	}
	if _, ok := arr[2]["location"]; ok || arr[2]["message"] != "./broken.go:5:2: undefined: missing" {
		t.Errorf("collect failure = %v", arr[2])
	}
	if arr[2]["nodeid"] != "example.com/broken" || arr[2]["longrepr"] == nil {
		t.Errorf("collect failure lost its nodeid or longrepr: %v", arr[2])
	}
}

func TestHostRunNoTests(t *testing.T) {
	bus := event.NewBus()
	var finish event.Event
	bus.Subscribe(event.TypeSessionFinish, func(ev event.Event) error {
		finish = ev
		return nil
	})

	res, err := (&Host{Bus: bus}).Run(context.Background(), ReaderSource{R: strings.NewReader("")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitStatus != ExitNoTestsCollected {
		t.Errorf("ExitStatus = %d", res.ExitStatus)
	}
	if finish == nil || finish.(event.SessionFinishEvent).ExitStatus != ExitNoTestsCollected {
		t.Errorf("SessionFinish = %v", finish)
	}
}

// cancelSource feeds a partial stream, then cancels as an interrupt would.
type cancelSource struct {
	input  string
	cancel context.CancelFunc
}

func (s cancelSource) Events(ctx context.Context, fn func(TestEvent) error) error {
	if err := Decode(ctx, strings.NewReader(s.input), fn); err != nil {
		return err
	}
	s.cancel()
	return ctx.Err()
}

func TestHostRunInterrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	bus := event.NewBus()
	p := newPlugin(t, plugin.Config{Path: path, SummaryLevel: "passed"}, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := cancelSource{
		input: stream(
			TestEvent{Action: ActionRun, Package: "p", Test: "TestA"},
			TestEvent{Action: ActionPass, Package: "p", Test: "TestA"},
			TestEvent{Action: ActionRun, Package: "p", Test: "TestB"},
		),
		cancel: cancel,
	}

	res, err := (&Host{Bus: bus}).Run(ctx, src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	_ = p.Unconfigure()

	if res.ExitStatus != ExitInterrupted {
		t.Errorf("ExitStatus = %d, want %d", res.ExitStatus, ExitInterrupted)
	}
	arr := testutil.ReadJSONArray(t, path)
	if got := arr[len(arr)-1]["exitstatus"]; got != float64(ExitInterrupted) {
		t.Errorf("finish exitstatus = %v", got)
	}
}

func TestHostRunSubscriberFailure(t *testing.T) {
	bus := event.NewBus()
	writeErr := errors.New("disk full")
	bus.Subscribe(event.TypeTestReport, func(event.Event) error { return writeErr })

	res, err := (&Host{Bus: bus}).Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())})
	if !errors.Is(err, writeErr) {
		t.Errorf("Run() error = %v, want %v", err, writeErr)
	}
	if res.ExitStatus != ExitInternalError {
		t.Errorf("ExitStatus = %d, want %d", res.ExitStatus, ExitInternalError)
	}
}

func TestProgress(t *testing.T) {
	t.Run("verbose", func(t *testing.T) {
		var buf bytes.Buffer
		bus := event.NewBus()
		prog := NewProgress(&buf, true, 60)
		prog.Register(bus)

		res, _ := (&Host{Bus: bus}).Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())})
		prog.PrintSummary(res.Summary)

		out := buf.String()
		for _, want := range []string{
			"example.com/calc::TestAdd",
			"PASSED",
			"example.com/calc::TestDiv",
			"FAILED",
			"SKIPPED",
			"example.com/broken",
			"ERROR",
			"short test summary info",
			"1 failed, 1 passed, 1 skipped, 1 error in ",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("quiet shows only errors and summary", func(t *testing.T) {
		var buf bytes.Buffer
		bus := event.NewBus()
		prog := NewProgress(&buf, false, 60)
		prog.Register(bus)

		res, _ := (&Host{Bus: bus}).Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())})
		prog.PrintSummary(res.Summary)

		out := buf.String()
		if strings.Contains(out, "PASSED") {
			t.Errorf("quiet output lists passing tests:\n%s", out)
		}
		if !strings.Contains(out, "example.com/broken") {
			t.Errorf("quiet output hides collection errors:\n%s", out)
		}
	})

	t.Run("short summary labels collection errors as ERROR", func(t *testing.T) {
		var buf bytes.Buffer
		bus := event.NewBus()
		prog := NewProgress(&buf, false, 80)
		prog.Register(bus)

		res, _ := (&Host{Bus: bus}).Run(context.Background(), ReaderSource{R: strings.NewReader(calcStream())})
		prog.PrintSummary(res.Summary)

		_, summary, ok := strings.Cut(buf.String(), "short test summary info")
		if !ok {
			t.Fatalf("no short summary:\n%s", buf.String())
		}
		var labels []string
		for _, line := range strings.Split(summary, "\n") {
			if strings.Contains(line, "example.com/broken") {
				labels = append(labels, strings.Fields(line)[0])
			}
		}
		if len(labels) != 1 || labels[0] != "ERROR" {
			t.Errorf("broken package listed as %v, want [ERROR]:\n%s", labels, summary)
		}
		if !strings.Contains(summary, "FAILED example.com/calc::TestDiv") {
			t.Errorf("failed test missing from summary:\n%s", summary)
		}
	})

	t.Run("long node ids fit the width", func(t *testing.T) {
		var buf bytes.Buffer
		bus := event.NewBus()
		NewProgress(&buf, true, 30).Register(bus)

		rec := record.New(
			record.F("nodeid", "example.com/some/deeply/nested/package::TestSomething"),
			record.F("outcome", "passed"),
		)
		if err := bus.Publish(event.NewTestReportEvent(rec)); err != nil {
			t.Fatal(err)
		}

		line := strings.TrimRight(buf.String(), "\n")
		if w := lipgloss.Width(line); w > 30 {
			t.Errorf("line is %d columns wide: %q", w, line)
		}
		if !strings.Contains(line, "...") || !strings.HasSuffix(line, "PASSED") {
			t.Errorf("line = %q", line)
		}
	})
}

func TestRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the go command")
	}

	dir := t.TempDir()
	fixture := testutil.WriteFile(t, "stream.json", calcStream())
	script := "#!/bin/sh\n" +
		"echo \"$@\" > " + filepath.Join(dir, "args") + "\n" +
		"echo 'go: downloading nothing' >&2\n" +
		"cat " + fixture + "\n" +
		"exit 1\n"
	goBin := filepath.Join(dir, "fakego")
	if err := os.WriteFile(goBin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	r := &Runner{GoBin: goBin, Args: []string{"-count=1", "./..."}, Stderr: &stderr}

	var n int
	if err := r.Events(context.Background(), func(TestEvent) error { n++; return nil }); err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if n == 0 {
		t.Error("no events decoded")
	}
	if !strings.Contains(stderr.String(), "go: downloading nothing") {
		t.Errorf("stderr = %q", stderr.String())
	}
	args, _ := os.ReadFile(filepath.Join(dir, "args"))
	if got := strings.TrimSpace(string(args)); got != "test -json -count=1 ./..." {
		t.Errorf("go invoked with %q", got)
	}

	t.Run("missing binary", func(t *testing.T) {
		r := &Runner{GoBin: filepath.Join(dir, "does-not-exist")}
		if err := r.Events(context.Background(), func(TestEvent) error { return nil }); err == nil {
			t.Error("expected start failure")
		}
	})
}
