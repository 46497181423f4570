package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Jan Kowalski", "Jan Kowalski"},
		{"leading trailing", "  Jan Kowalski  ", "Jan Kowalski"},
		{"interior runs", "Jan \t\n Kowalski", "Jan Kowalski"},
		{"diacritics preserved", "Łukasz Żółć", "Łukasz Żółć"},
		{"empty", "", ""},
		{"only whitespace", " \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
