// Package record holds the insertion-ordered mapping used for every report
// log entry, and the helpers that turn it into compact JSON.
//
// Records keep the key order they were built with, so a SessionStart entry
// is always written as {"pytest_version": ..., "$report_type": ...}.
package record

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ReportTypeKey is the reserved key carrying an event's kind tag. The "$"
// prefix keeps it clear of any field name the host framework produces.
const ReportTypeKey = "$report_type"

// Record is an insertion-ordered string-keyed mapping.
type Record = orderedmap.OrderedMap[string, any]

// Field is a single key/value pair used to build records.
type Field struct {
	Key   string
	Value any
}

// New builds a record from fields, preserving their order. A repeated key
// keeps its first position and its last value.
func New(fields ...Field) *Record {
	rec := orderedmap.New[string, any]()
	for _, f := range fields {
		rec.Set(f.Key, f.Value)
	}
	return rec
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Clone returns a shallow copy of rec with the same key order.
func Clone(rec *Record) *Record {
	out := orderedmap.New[string, any]()
	if rec == nil {
		return out
	}
	for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// Keys returns the keys of rec in insertion order.
func Keys(rec *Record) []string {
	if rec == nil {
		return nil
	}
	keys := make([]string, 0, rec.Len())
	for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// String returns the value under key when it is a non-empty string.
func String(rec *Record, key string) (string, bool) {
	if rec == nil {
		return "", false
	}
	v, ok := rec.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Present reports whether key exists in rec with a non-nil value.
func Present(rec *Record, key string) bool {
	if rec == nil {
		return false
	}
	v, ok := rec.Get(key)
	return ok && v != nil
}

// Lookup descends through nested records and map[string]any values
// following path, and returns the value found at the end.
func Lookup(rec *Record, path ...string) (any, bool) {
	var cur any = rec
	for _, key := range path {
		switch node := cur.(type) {
		case *Record:
			if node == nil {
				return nil, false
			}
			v, ok := node.Get(key)
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// Path joins a lookup path for error messages.
func Path(path ...string) string {
	return strings.Join(path, ".")
}
