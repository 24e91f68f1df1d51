package event

import (
	"encoding/json"
	"testing"

	"github.com/Iron-Ham/reportlog/internal/record"
)

func encode(t *testing.T, rec *record.Record) string {
	t.Helper()
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return string(data)
}

func TestSessionRecords(t *testing.T) {
	start := NewSessionStartEvent("go1.25.5")
	if got, want := encode(t, start.Record()), `{"pytest_version":"go1.25.5","$report_type":"SessionStart"}`; got != want {
		t.Errorf("SessionStart record = %s, want %s", got, want)
	}

	finish := NewSessionFinishEvent(1)
	if got, want := encode(t, finish.Record()), `{"exitstatus":1,"$report_type":"SessionFinish"}`; got != want {
		t.Errorf("SessionFinish record = %s, want %s", got, want)
	}

	if start.Timestamp().IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestReportRecordsAreTagged(t *testing.T) {
	t.Run("tag appended without touching host data", func(t *testing.T) {
		data := record.New(record.F("nodeid", "pkg::TestA"), record.F("outcome", "passed"))
		rec := NewTestReportEvent(data).Record()

		if got, want := encode(t, rec), `{"nodeid":"pkg::TestA","outcome":"passed","$report_type":"TestReport"}`; got != want {
			t.Errorf("record = %s, want %s", got, want)
		}
		if data.Len() != 2 {
			t.Error("host data was mutated")
		}
	})

	t.Run("existing tag is kept", func(t *testing.T) {
		data := record.New(record.F("outcome", "passed"), record.F(record.ReportTypeKey, "CollectReport"))
		rec := NewCollectReportEvent(data).Record()
		if rec != data {
			t.Error("already-tagged data should be returned as is")
		}
	})

	t.Run("nil data", func(t *testing.T) {
		rec := NewCollectReportEvent(nil).Record()
		if got, want := encode(t, rec), `{"$report_type":"CollectReport"}`; got != want {
			t.Errorf("record = %s, want %s", got, want)
		}
	})
}

func TestWarningMessageRecord(t *testing.T) {
	tests := []struct {
		name string
		ev   WarningMessageEvent
		want string
	}{
		{
			name: "with category and location",
			ev:   NewWarningMessageEvent("DeprecationWarning", "x_test.go", 12, "old api", "runtest", []any{"x_test.go", 11, "TestX"}),
			want: `{"category":"DeprecationWarning","filename":"x_test.go","lineno":12,"message":"old api","$report_type":"WarningMessage","when":"runtest","location":["x_test.go",11,"TestX"]}`,
		},
		{
			name: "absent category and location",
			ev:   NewWarningMessageEvent("", "vet.go", 3, "unreachable code", "collect", nil),
			want: `{"category":null,"filename":"vet.go","lineno":3,"message":"unreachable code","$report_type":"WarningMessage","when":"collect","location":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encode(t, tt.ev.Record()); got != tt.want {
				t.Errorf("record = %s\nwant     %s", got, tt.want)
			}
		})
	}
}
