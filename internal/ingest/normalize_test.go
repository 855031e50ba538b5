package ingest

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf to lf", "line one\r\nline two", "line one\nline two"},
		{"bare cr to lf", "line one\rline two", "line one\nline two"},
		{"collapse spaces and tabs", "too    many\t\tblanks", "too many blanks"},
		{"strip non printable", "café \x00text", "caf text"},
		{"trim", "  padded  ", "padded"},
		{"empty", "", ""},
		{"newlines preserved", "a\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
