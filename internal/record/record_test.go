package record

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

// handle stands in for a host object that has a readable form but no JSON one.
type handle struct {
	Events chan int
}

func (h handle) String() string { return "C instance" }

func TestNewPreservesOrder(t *testing.T) {
	rec := New(
		F("pytest_version", "go1.25.5"),
		F(ReportTypeKey, "SessionStart"),
	)

	data, sanitized, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if sanitized {
		t.Error("sanitized = true for a JSON-native record")
	}
	want := `{"pytest_version":"go1.25.5","$report_type":"SessionStart"}`
	if string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}
}

func TestSanitize(t *testing.T) {
	t.Run("JSON-native record is unchanged", func(t *testing.T) {
		good := New(F("x", 1), F("y", []any{"a", "b"}))
		got := Sanitize(good)

		if !reflect.DeepEqual(Keys(got), []string{"x", "y"}) {
			t.Errorf("keys = %v, want [x y]", Keys(got))
		}
		a, _ := json.Marshal(good)
		b, _ := json.Marshal(got)
		if string(a) != string(b) {
			t.Errorf("Sanitize changed a serializable record: %s != %s", a, b)
		}
	})

	t.Run("unserializable values become strings", func(t *testing.T) {
		bad := New(
			F("x", 1),
			F("y", []any{"a", "b"}),
			F("c", handle{Events: make(chan int)}),
			F("z", complex(1, 2)),
			F("nan", math.NaN()),
		)
		got := Sanitize(bad)

		if !reflect.DeepEqual(Keys(got), []string{"x", "y", "c", "z", "nan"}) {
			t.Errorf("keys = %v, order or set changed", Keys(got))
		}
		if v, _ := got.Get("c"); v != "C instance" {
			t.Errorf("c = %v, want %q", v, "C instance")
		}
		if v, _ := got.Get("z"); v != "(1+2i)" {
			t.Errorf("z = %v, want %q", v, "(1+2i)")
		}
		if v, _ := got.Get("nan"); v != "NaN" {
			t.Errorf("nan = %v, want %q", v, "NaN")
		}
		if v, _ := got.Get("x"); v != 1 {
			t.Errorf("x = %v, want 1", v)
		}
		if _, err := json.Marshal(got); err != nil {
			t.Errorf("sanitized record is not encodable: %v", err)
		}
	})

	t.Run("input is not modified", func(t *testing.T) {
		h := handle{Events: make(chan int)}
		bad := New(F("c", h))
		_ = Sanitize(bad)
		if v, _ := bad.Get("c"); v != h {
			t.Error("Sanitize mutated its input")
		}
	})

	t.Run("nil record", func(t *testing.T) {
		if got := Sanitize(nil); got.Len() != 0 {
			t.Errorf("Sanitize(nil).Len() = %d, want 0", got.Len())
		}
	})
}

func TestEncodeFallsBackToSanitize(t *testing.T) {
	rec := New(F("when", "call"), F("obj", handle{Events: make(chan int)}))

	data, sanitized, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !sanitized {
		t.Error("sanitized = false, want true")
	}
	want := `{"when":"call","obj":"C instance"}`
	if string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}
}

func TestEncodeNestedUnencodable(t *testing.T) {
	rec := New(
		F("when", "call"),
		F("longrepr", New(
			F("reprcrash", New(F("message", "boom"), F("lineno", 7))),
			F("handle", make(chan int)),
			F("obj", handle{}),
			F("args", []any{"a", 1.5, nil}),
		)),
	)

	data, sanitized, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !sanitized {
		t.Error("sanitized = false, want true")
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, data)
	}
	want := `{"reprcrash": {"message": "boom", "lineno": 7}, "handle": <chan int>, "obj": C instance, "args": ["a", 1.5, null]}`
	if got["longrepr"] != want {
		t.Errorf("longrepr = %v\nwant       %s", got["longrepr"], want)
	}
	if got["when"] != "call" {
		t.Errorf("when = %v", got["when"])
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"string", "a\"b", `"a\"b"`},
		{"number", 3, "3"},
		{"nil record", (*Record)(nil), "null"},
		{"plain map sorted", map[string]any{"b": 2, "a": []any{}}, `{"a": [], "b": 2}`},
		{"func", func() {}, "<func()>"},
		{"complex", complex(1, 2), "(1+2i)"},
		{"stringer", handle{}, "C instance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Repr(tt.v); got != tt.want {
				t.Errorf("Repr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeKeepsHTMLCharacters(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"comparison", "assert a < b && b > c", `{"message":"assert a < b && b > c"}`},
		{"escaped backslash before u003c", `C:\u003c`, `{"message":"C:\\u003c"}`},
		{"plain", "ok", `{"message":"ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, _, err := Encode(New(F("message", tt.value)))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Encode() = %s, want %s", data, tt.want)
			}
			var back map[string]string
			if err := json.Unmarshal(data, &back); err != nil || back["message"] != tt.value {
				t.Errorf("round trip = %q, %v", back["message"], err)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	rec := New(
		F("outcome", "failed"),
		F("longrepr", map[string]any{
			"reprcrash": map[string]any{"message": "assert 0"},
		}),
		F("nested", New(F("inner", New(F("leaf", 42))))),
	)

	tests := []struct {
		name   string
		path   []string
		want   any
		wantOK bool
	}{
		{"top level", []string{"outcome"}, "failed", true},
		{"through plain maps", []string{"longrepr", "reprcrash", "message"}, "assert 0", true},
		{"through records", []string{"nested", "inner", "leaf"}, 42, true},
		{"missing key", []string{"longrepr", "reprtraceback"}, nil, false},
		{"descend into scalar", []string{"outcome", "x"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(rec, tt.path...)
			if ok != tt.wantOK {
				t.Fatalf("Lookup ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Lookup = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccessors(t *testing.T) {
	rec := New(F("outcome", "passed"), F("location", nil), F("empty", ""))

	if s, ok := String(rec, "outcome"); !ok || s != "passed" {
		t.Errorf("String(outcome) = %q, %v", s, ok)
	}
	if _, ok := String(rec, "empty"); ok {
		t.Error("String(empty) should report false for empty strings")
	}
	if Present(rec, "location") {
		t.Error("Present(location) = true for a nil value")
	}
	if !Present(rec, "outcome") {
		t.Error("Present(outcome) = false")
	}

	cp := Clone(rec)
	cp.Set("outcome", "failed")
	if s, _ := String(rec, "outcome"); s != "passed" {
		t.Error("Clone shares storage with the original")
	}
}
