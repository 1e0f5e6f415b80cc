package textnorm

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "control characters stripped",
			in:   "hello\x00wor\x07ld",
			want: "helloworld",
		},
		{
			name: "newline and tab preserved",
			in:   "a\tb\nc",
			want: "a\tb\nc",
		},
		{
			name: "crlf normalised",
			in:   "a\r\nb\rc",
			want: "a\nb\nc",
		},
		{
			name: "3+ newlines collapse to 2",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "two newlines untouched",
			in:   "a\n\nb",
			want: "a\n\nb",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  hello  \n",
			want: "hello",
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

func TestNormalise(t *testing.T) {
	t.Run("plain utf8", func(t *testing.T) {
		got, err := Normalise([]byte("héllo wörld"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "héllo wörld" {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("latin1 decoded", func(t *testing.T) {
		// "café" in ISO 8859-1.
		raw := []byte{'c', 'a', 'f', 0xe9}
		got, err := Normalise(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "café") {
			t.Errorf("expected decoded text, got %q", got)
		}
	})
}

func TestTitleFromPath(t *testing.T) {
	if got := TitleFromPath("/tmp/my_report-final.pdf"); got != "my report final" {
		t.Errorf("unexpected title: %q", got)
	}
}
