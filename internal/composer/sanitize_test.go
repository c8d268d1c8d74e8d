package composer

import "testing"

func TestCleanupLineBreaks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no tags", "# Title\n\nbody", "# Title\n\nbody"},
		{"table row", "| a<br> | b<br/> | c<br />|", "| a | b | c|"},
		{"indented table row", "  | a<br>b |", "  | ab |"},
		{"paragraph keeps tag", "line<br>next", "line<br>next"},
		{"trailing break", "text\n<br />", "text\n"},
		{"trailing break with spaces", "text\n<br/>  \n", "text\n"},
		{"break not at end", "a\n<br />\nb", "a\n<br />\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanupLineBreaks(tt.input); got != tt.want {
				t.Errorf("CleanupLineBreaks(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
