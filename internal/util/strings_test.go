package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{name: "short string unchanged", input: "pkg::TestA", width: 20, want: "pkg::TestA"},
		{name: "exact width unchanged", input: "pkg::TestA", width: 10, want: "pkg::TestA"},
		{name: "long string truncated", input: "example.com/pkg::TestLong", width: 12, want: "example.c..."},
		{name: "unbounded", input: "example.com/pkg::TestLong", width: 0, want: "example.com/pkg::TestLong"},
		{name: "tiny width", input: "example.com", width: 2, want: ".."},
		{name: "wide characters", input: "テストテスト", width: 7, want: "テス..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.width); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateStyled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("example.com/pkg::TestLong") + " PASSED"

	got := Truncate(styled, 15)
	if w := lipgloss.Width(got); w > 15 {
		t.Errorf("Truncate width = %d, want <= 15 (%q)", w, got)
	}
	if Truncate(styled, 100) != styled {
		t.Error("styled string within width was modified")
	}
}
