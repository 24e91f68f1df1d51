package gotest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Actions reported by test2json.
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionOutput      = "output"
	ActionBench       = "bench"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent is one line of `go test -json` output.
type TestEvent struct {
	Time        time.Time `json:",omitempty"`
	Action      string
	Package     string  `json:",omitempty"`
	Test        string  `json:",omitempty"`
	Elapsed     float64 `json:",omitempty"`
	Output      string  `json:",omitempty"`
	FailedBuild string  `json:",omitempty"`
	ImportPath  string  `json:",omitempty"`
}

// maxLineSize bounds a single stream line; test output can be long.
const maxLineSize = 4 * 1024 * 1024

// Decode reads a test2json stream from r and calls fn for each event in
// order. Lines that are not JSON objects (for example build errors that an
// older toolchain printed straight to stdout) are passed on as package-less
// output events. Decode stops at the first error returned by fn, or when
// ctx is cancelled.
func Decode(ctx context.Context, r io.Reader, fn func(TestEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNum++

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var ev TestEvent
		if line[0] != '{' || json.Unmarshal(line, &ev) != nil || ev.Action == "" {
			ev = TestEvent{Action: ActionOutput, Output: string(line) + "\n"}
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading test2json stream at line %d: %w", lineNum+1, err)
	}
	return ctx.Err()
}
