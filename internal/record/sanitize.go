package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Sanitize returns a copy of rec in which every value that cannot be
// encoded as JSON is replaced by a readable string form (see Repr).
// Encodable values are passed through unchanged, and key order and key
// set are preserved. rec is not modified.
//
// Only top-level values are inspected: a nested value that fails to encode
// is stringified as a whole.
func Sanitize(rec *Record) *Record {
	out := New()
	if rec == nil {
		return out
	}
	for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
		v := pair.Value
		if _, err := json.Marshal(v); err != nil {
			v = Repr(v)
		}
		out.Set(pair.Key, v)
	}
	return out
}

// Repr renders v for humans. Records, string-keyed maps and slices are
// walked and printed as {"k": v, ...} and [a, b]; encodable leaves use their
// JSON form; anything else uses its String method, or fmt's default format.
// Channels, funcs and unsafe pointers have no useful value and print as
// their type, e.g. <chan int>.
func Repr(v any) string {
	var b strings.Builder
	writeRepr(&b, v)
	return b.String()
}

func writeRepr(b *strings.Builder, v any) {
	switch node := v.(type) {
	case *Record:
		if node == nil {
			b.WriteString("null")
			return
		}
		b.WriteByte('{')
		for pair := node.Oldest(); pair != nil; pair = pair.Next() {
			if pair != node.Oldest() {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(pair.Key))
			b.WriteString(": ")
			writeRepr(b, pair.Value)
		}
		b.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(k))
			b.WriteString(": ")
			writeRepr(b, node[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range node {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, item)
		}
		b.WriteByte(']')
	case string:
		b.WriteString(strconv.Quote(node))
	case fmt.Stringer:
		b.WriteString(node.String())
	default:
		if data, err := json.Marshal(v); err == nil {
			b.Write(unescapeHTML(data))
			return
		}
		switch reflect.ValueOf(v).Kind() {
		case reflect.Chan, reflect.Func, reflect.UnsafePointer:
			fmt.Fprintf(b, "<%T>", v)
		default:
			fmt.Fprint(b, v)
		}
	}
}

// Encode returns the compact JSON encoding of rec. When the first attempt
// fails because of an unencodable value, the record is sanitized and
// encoded once more. The sanitized flag reports whether that happened.
//
// <, > and & are written as is rather than as \u003c, \u003e and \u0026.
func Encode(rec *Record) (data []byte, sanitized bool, err error) {
	data, err = json.Marshal(rec)
	if err != nil {
		sanitized = true
		data, err = json.Marshal(Sanitize(rec))
		if err != nil {
			return nil, true, fmt.Errorf("encode sanitized record: %w", err)
		}
	}
	return unescapeHTML(data), sanitized, nil
}

// htmlEscapes are the escapes encoding/json emits for HTML safety.
var htmlEscapes = map[string]byte{
	`\u003c`: '<',
	`\u003e`: '>',
	`\u0026`: '&',
}

// unescapeHTML undoes encoding/json's HTML escaping in valid JSON. Every
// backslash in JSON starts an escape sequence, so scanning escape by escape
// never mistakes an escaped backslash followed by "u003c" for an escape.
func unescapeHTML(data []byte) []byte {
	if !strings.Contains(string(data), `\u00`) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if i+6 <= len(data) {
			if c, ok := htmlEscapes[string(data[i:i+6])]; ok {
				out = append(out, c)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
