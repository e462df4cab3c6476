package ui

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "zero max", input: "hello", max: 0, want: ""},
		{name: "fits", input: "hello", max: 10, want: "hello"},
		{name: "ellipsis", input: "hello world", max: 6, want: "hello…"},
		{name: "wide runes", input: "日本語テキスト", max: 5, want: "日本…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.max)
			if got != tt.want {
				t.Fatalf("truncate(%q, %d) = %q; want %q", tt.input, tt.max, got, tt.want)
			}
			if runewidth.StringWidth(got) > tt.max {
				t.Fatalf("truncate output is %d cells; max %d", runewidth.StringWidth(got), tt.max)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("日本", 6); got != "日本  " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("toolong", 3); got != "toolong" {
		t.Errorf("padRight should not cut, got %q", got)
	}
}

func TestJoinIDs(t *testing.T) {
	ids := []string{"P1", "P2", "P3"}
	if got := joinIDs(ids, 0); got != "P1, P2, P3" {
		t.Errorf("no limit = %q", got)
	}
	if got := joinIDs(ids, 2); got != "P1, P2, …" {
		t.Errorf("limit 2 = %q", got)
	}
}
