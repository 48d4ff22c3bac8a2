package sanitize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"<system-reminder>noise</system-reminder>real request", "noisereal request"},
		{"<command-output>ls</command-output>", "ls"},
		{"  <thinking>hm</thinking>  answer  ", "hm  answer"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripTags(tt.input); got != tt.want {
			t.Errorf("StripTags(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPath_BasenameOnly(t *testing.T) {
	got := Path("/home/user/project/main.go", false)
	if got != "main.go" {
		t.Errorf("got %q, want main.go", got)
	}
}

func TestPath_HomeCollapse(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	got := Path(filepath.Join(home, "work", "main.go"), true)
	want := filepath.Join("~", "work", "main.go")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Paths outside home pass through untouched.
	if got := Path("/etc/hosts", true); got != "/etc/hosts" {
		t.Errorf("got %q, want /etc/hosts", got)
	}
}
