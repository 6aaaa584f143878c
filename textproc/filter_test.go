package textproc

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "duplicate sentence removed",
			in:   "It works. It works. Great.",
			want: "It works. Great.",
		},
		{
			name: "duplicate sentence case-insensitive",
			in:   "it works. It works. Great.",
			want: "it works. Great.",
		},
		{
			name: "trailing echo removed",
			in:   "we will see what happens we will see what happens",
			want: "we will see what happens",
		},
		{
			name: "echoed final sentence removed",
			in:   "It performs well in the long run. It performs well in the long run.",
			want: "It performs well in the long run.",
		},
		{
			name: "trailing phrase loop collapsed",
			in:   "and then and then and then",
			want: "and then",
		},
		{
			name: "double word emphasis preserved",
			in:   "it was very very good",
			want: "it was very very good",
		},
		{
			name: "triple word collapsed",
			in:   "stop stop stop",
			want: "stop",
		},
		{
			name: "interior repetition untouched",
			in:   "He said no. She said no. They agreed.",
			want: "He said no. She said no. They agreed.",
		},
		{
			name: "clean text unchanged",
			in:   "Nothing wrong with this sentence.",
			want: "Nothing wrong with this sentence.",
		},
		{
			name: "decimal number untouched",
			in:   "The trail is 3.5 miles long. Great.",
			want: "The trail is 3.5 miles long. Great.",
		},
		{
			name: "version string untouched",
			in:   "Upgrade to v1.2.3 today. It fixes the bug.",
			want: "Upgrade to v1.2.3 today. It fixes the bug.",
		},
		{
			name: "abbreviation survives deduplication",
			in:   "Meet Dr.Smith at 3.5 km. Okay. Okay.",
			want: "Meet Dr.Smith at 3.5 km. Okay.",
		},
		{
			name: "whitespace trimmed",
			in:   "  padded text.  ",
			want: "padded text.",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"It works. It works. Great.",
		"we will see what happens we will see what happens",
		"and then and then and then",
		"stop stop stop",
		"A perfectly ordinary sentence. Followed by another one.",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
