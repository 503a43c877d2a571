package main

import "testing"

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short string untouched", "Fix login", 20, "Fix login"},
		{"exact length untouched", "abcde", 5, "abcde"},
		{"long string gets ellipsis", "Rework the importer end to end", 10, "Rework ..."},
		{"tiny budget, no ellipsis", "abcdef", 2, "ab"},
		{"whitespace trimmed first", "  padded  ", 20, "padded"},
		{"multibyte runes", "日本語のチケット説明", 6, "日本語..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateText(tt.in, tt.n); got != tt.want {
				t.Errorf("truncateText(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
