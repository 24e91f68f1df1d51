// Package testutil provides testing utilities for reportlog tests.
package testutil

import (
	"compress/bzip2"
	"compress/gzip"
	"encoding/json"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

// ReadLog returns the decoded text content of a report log, transparently
// decompressing .gz, .bz2 and .xz files. The readers are independent of
// the writers used by the sink package so round trips are checked against
// a second implementation (stdlib bzip2 in particular).
func ReadLog(t *testing.T, path string) string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("failed to open gzip stream %s: %v", path, err)
		}
		defer gz.Close()
		r = gz
	case ".bz2":
		r = bzip2.NewReader(f)
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			t.Fatalf("failed to open xz stream %s: %v", path, err)
		}
		r = xr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// ReadJSONLines parses every line of a report log as one JSON object.
func ReadJSONLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	content := ReadLog(t, path)
	if !strings.HasSuffix(content, "\n") {
		t.Fatalf("report log %s is not newline-terminated: %q", path, content)
	}

	var objs []map[string]any
	for i, line := range strings.Split(strings.TrimSuffix(content, "\n"), "\n") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			t.Fatalf("line %d is not valid JSON: %v\n%s", i, err, line)
		}
		objs = append(objs, obj)
	}
	return objs
}

// ReadJSONArray parses the whole report log as a single JSON array.
func ReadJSONArray(t *testing.T, path string) []map[string]any {
	t.Helper()

	content := ReadLog(t, path)
	var arr []map[string]any
	if err := json.Unmarshal([]byte(content), &arr); err != nil {
		t.Fatalf("report log is not a JSON array: %v\n%s", err, content)
	}
	return arr
}

// SortedKeys returns the keys of obj in sorted order.
func SortedKeys(obj map[string]any) []string {
	return slices.Sorted(maps.Keys(obj))
}

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", name, err)
	}
	return path
}
