package gotest

import (
	"path"
	"strings"

	"github.com/Iron-Ham/reportlog/internal/event"
	"github.com/Iron-Ham/reportlog/internal/record"
)

// Section names used in converted reports.
const (
	SectionLogCall       = "Captured log call"
	SectionStdoutCall    = "Captured stdout call"
	SectionStdoutCollect = "Captured stdout collect"
	SectionBuildOutput   = "Captured build output"
)

// Emitter receives converted lifecycle events.
type Emitter func(event.Event) error

type testState struct {
	name       string
	capture    capture
	incomplete bool
}

type packageState struct {
	name    string
	running map[string]*testState
	order   []string // running tests in start order
	failed  map[string]bool
	output  capture
}

// Converter turns a test2json event stream into report events. Each
// finished test becomes a TestReport and each finished package a
// CollectReport; file:line diagnostics printed outside any test become
// WarningMessages. It is not safe for concurrent use.
type Converter struct {
	emit     Emitter
	packages map[string]*packageState
	order    []string
	build    map[string][]string
	summary  Summary
}

// NewConverter returns a Converter that passes every event to emit.
func NewConverter(emit Emitter) *Converter {
	return &Converter{
		emit:     emit,
		packages: make(map[string]*packageState),
		build:    make(map[string][]string),
	}
}

// Summary returns the counts so far.
func (c *Converter) Summary() Summary {
	return c.summary
}

// NodeID returns the report node id of a test.
func NodeID(pkg, test string) string {
	return pkg + "::" + test
}

// Handle processes one stream event.
func (c *Converter) Handle(ev TestEvent) error {
	switch ev.Action {
	case ActionBuildOutput:
		c.build[ev.ImportPath] = append(c.build[ev.ImportPath], strings.TrimRight(ev.Output, "\n"))
		return nil
	case ActionBuildFail, ActionBench, ActionPause, ActionCont:
		return nil
	}

	if ev.Package == "" {
		if ev.Action == ActionOutput {
			return c.warnIfDiagnostic(ev.Output)
		}
		return nil
	}

	pkg := c.pkg(ev.Package)
	if ev.Test == "" {
		switch ev.Action {
		case ActionOutput:
			return c.packageOutput(pkg, ev.Output)
		case ActionPass, ActionSkip, ActionFail:
			return c.finishPackage(pkg, ev)
		}
		return nil
	}

	switch ev.Action {
	case ActionRun:
		c.test(pkg, ev.Test)
	case ActionOutput:
		c.test(pkg, ev.Test).capture.add(ev.Output)
	case ActionPass:
		return c.finishTest(pkg, ev.Test, "passed", ev.Elapsed)
	case ActionSkip:
		return c.finishTest(pkg, ev.Test, "skipped", ev.Elapsed)
	case ActionFail:
		return c.finishTest(pkg, ev.Test, "failed", ev.Elapsed)
	}
	return nil
}

// Finish reports every test and package the stream left unfinished, as
// happens when the run is interrupted. Such tests are failures.
func (c *Converter) Finish() error {
	for _, name := range append([]string(nil), c.order...) {
		pkg, ok := c.packages[name]
		if !ok {
			continue
		}
		if err := c.finishPackage(pkg, TestEvent{Action: ActionFail, Package: name}); err != nil {
			return err
		}
	}
	c.order = nil
	return nil
}

func (c *Converter) pkg(name string) *packageState {
	if p, ok := c.packages[name]; ok {
		return p
	}
	p := &packageState{
		name:    name,
		running: make(map[string]*testState),
		failed:  make(map[string]bool),
	}
	c.packages[name] = p
	c.order = append(c.order, name)
	return p
}

func (c *Converter) test(pkg *packageState, name string) *testState {
	if t, ok := pkg.running[name]; ok {
		return t
	}
	t := &testState{name: name}
	pkg.running[name] = t
	pkg.order = append(pkg.order, name)
	return t
}

func (c *Converter) packageOutput(pkg *packageState, out string) error {
	line := strings.TrimRight(out, "\r\n")
	if packageTrailer.MatchString(line) {
		return nil
	}
	if diagnosticLine.MatchString(line) {
		return c.warnIfDiagnostic(line)
	}
	pkg.output.add(line)
	return nil
}

func (c *Converter) warnIfDiagnostic(out string) error {
	m := diagnosticLine.FindStringSubmatch(strings.TrimRight(out, "\r\n"))
	if m == nil {
		return nil
	}
	return c.emit(event.NewWarningMessageEvent("", m[1], atoi(m[2]), m[3], "runtest", nil))
}

func (c *Converter) finishTest(pkg *packageState, name, outcome string, elapsed float64) error {
	st := c.test(pkg, name)
	delete(pkg.running, name)
	pkg.order = removeString(pkg.order, name)

	var longrepr any
	switch outcome {
	case "passed":
		c.summary.Passed++
	case "skipped":
		c.summary.Skipped++
		longrepr = skipRepr(pkg.name, st)
	case "failed":
		c.summary.Failed++
		longrepr = failureRepr(c.crashFor(pkg, st), failureLines(&st.capture))
		pkg.failed[name] = true
	}

	rec := record.New(
		record.F("nodeid", NodeID(pkg.name, name)),
		record.F("location", []any{pkg.name, nil, name}),
		record.F("keywords", keywords(pkg.name, name)),
		record.F("outcome", outcome),
		record.F("longrepr", longrepr),
		record.F("when", "call"),
		record.F("user_properties", []any{}),
		record.F("sections", testSections(&st.capture)),
		record.F("duration", elapsed),
	)
	return c.emit(event.NewTestReportEvent(rec))
}

func (c *Converter) finishPackage(pkg *packageState, ev TestEvent) error {
	for _, name := range append([]string(nil), pkg.order...) {
		pkg.running[name].incomplete = true
		if err := c.finishTest(pkg, name, "failed", 0); err != nil {
			return err
		}
	}
	delete(c.packages, pkg.name)
	c.order = removeString(c.order, pkg.name)

	outcome := "passed"
	var longrepr any
	build := c.build[ev.FailedBuild]
	if ev.Action == ActionFail && (ev.FailedBuild != "" || len(pkg.failed) == 0) {
		outcome = "failed"
		c.summary.Errors++
		msg := packageFailure(pkg, ev, build)
		lines := append(append([]string(nil), build...), splitLines(pkg.output.stdout.String())...)
		longrepr = failureRepr(crash{path: pkg.name, message: msg}, lines)
	}

	var sections []any
	if len(build) > 0 {
		sections = append(sections, []any{SectionBuildOutput, strings.Join(build, "\n")})
	}
	if out := pkg.output.stdout.String(); out != "" {
		sections = append(sections, []any{SectionStdoutCollect, out})
	}
	if sections == nil {
		sections = []any{}
	}

	rec := record.New(
		record.F("nodeid", pkg.name),
		record.F("outcome", outcome),
		record.F("longrepr", longrepr),
		record.F("result", nil),
		record.F("sections", sections),
	)
	return c.emit(event.NewCollectReportEvent(rec))
}

// crash locates a failure for longrepr.reprcrash.
type crash struct {
	path    string
	lineno  any
	message string
}

// crashFor picks the failure message of a test: a panic first, then the
// test's last logged message, then a note about failed subtests.
func (c *Converter) crashFor(pkg *packageState, st *testState) crash {
	if st.incomplete {
		return crash{path: pkg.name, message: "test did not complete"}
	}
	if st.capture.panic != "" {
		return crash{path: pkg.name, message: st.capture.panic}
	}
	if n := len(st.capture.logs); n > 0 {
		last := st.capture.logs[n-1]
		return crash{path: last.file, lineno: last.line, message: last.message}
	}
	for name := range pkg.failed {
		if strings.HasPrefix(name, st.name+"/") {
			return crash{path: pkg.name, message: "subtest failed"}
		}
	}
	return crash{path: pkg.name, message: "FAIL: " + st.name}
}

func packageFailure(pkg *packageState, ev TestEvent, build []string) string {
	for _, line := range build {
		if line != "" && !strings.HasPrefix(line, "# ") {
			return line
		}
	}
	if ev.FailedBuild != "" {
		return "build failed: " + ev.FailedBuild
	}
	if pkg.output.panic != "" {
		return pkg.output.panic
	}
	lines := splitLines(pkg.output.stdout.String())
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return strings.TrimSpace(lines[i])
		}
	}
	return "package " + pkg.name + " failed"
}

func failureRepr(cr crash, lines []string) *record.Record {
	if lines == nil {
		lines = []string{}
	}
	entry := record.New(
		record.F("type", "ReprEntryNative"),
		record.F("data", record.New(record.F("lines", lines))),
	)
	return record.New(
		record.F("reprcrash", record.New(
			record.F("path", cr.path),
			record.F("lineno", cr.lineno),
			record.F("message", cr.message),
		)),
		record.F("reprtraceback", record.New(
			record.F("reprentries", []any{entry}),
			record.F("extraline", nil),
			record.F("style", "native"),
		)),
		record.F("sections", []any{}),
	)
}

func failureLines(c *capture) []string {
	var lines []string
	for _, e := range c.logs {
		lines = append(lines, e.String())
	}
	return append(lines, splitLines(c.stdout.String())...)
}

// skipRepr mirrors pytest's (path, lineno, "Skipped: reason") tuple.
func skipRepr(pkg string, st *testState) []any {
	if n := len(st.capture.logs); n > 0 {
		last := st.capture.logs[n-1]
		return []any{last.file, last.line, "Skipped: " + last.message}
	}
	return []any{pkg, nil, "Skipped"}
}

func testSections(c *capture) []any {
	sections := []any{}
	if len(c.logs) > 0 {
		sections = append(sections, []any{SectionLogCall, c.logText()})
	}
	if out := c.stdout.String(); out != "" {
		sections = append(sections, []any{SectionStdoutCall, out})
	}
	return sections
}

func keywords(pkg, test string) *record.Record {
	kw := record.New()
	for _, part := range strings.Split(test, "/") {
		kw.Set(part, 1)
	}
	kw.Set(path.Base(pkg), 1)
	return kw
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
