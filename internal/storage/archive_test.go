package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArchiveTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "transcript.jsonl")
	content := strings.Repeat(`{"role":"user","content":"hello world"}`+"\n", 200)
	if err := os.WriteFile(src, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	archiveDir := filepath.Join(dir, "archive")
	path, err := ArchiveTranscript(src, archiveDir, "sess-9")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if filepath.Base(path) != "sess-9.jsonl.zst" {
		t.Errorf("archive name: got %s", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() >= int64(len(content)) {
		t.Errorf("archive not smaller than source: %d >= %d", info.Size(), len(content))
	}

	data, err := ReadArchivedTranscript(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(data) != content {
		t.Error("round trip mismatch")
	}
}

func TestArchiveTranscript_MissingSource(t *testing.T) {
	if _, err := ArchiveTranscript(filepath.Join(t.TempDir(), "nope.jsonl"), t.TempDir(), "x"); err == nil {
		t.Fatal("expected error for missing transcript")
	}
}
