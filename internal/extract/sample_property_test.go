package extract

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestTruncateAtWordProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z ]{0,600}`).Draw(t, "text")
		maxLen := rapid.IntRange(1, 500).Draw(t, "maxLen")

		got := truncateAtWord(text, maxLen)

		// Never longer than the limit plus one marker.
		if len(got) > maxLen+len(truncationMarker) {
			t.Fatalf("length %d exceeds %d+marker", len(got), maxLen)
		}
		// Text under the limit comes back untouched.
		if len(text) <= maxLen && got != text {
			t.Fatalf("under-limit text modified: %q -> %q", text, got)
		}
		// Truncated output always carries the marker.
		if len(text) > maxLen && !strings.HasSuffix(got, truncationMarker) {
			t.Fatalf("truncated output missing marker: %q", got)
		}
	})
}

func TestFormatSampleProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 60).Draw(t, "n")
		wordCount := rapid.IntRange(1, 120).Draw(t, "wordCount")
		maxChars := rapid.IntRange(200, 10000).Draw(t, "maxChars")

		msgs := make([]message, n)
		for i := range msgs {
			role := "user"
			if i%2 == 1 {
				role = "assistant"
			}
			msgs[i] = message{role: role, content: strings.Repeat("word ", wordCount)}
		}

		got := formatSample(msgs, maxChars)

		if !strings.Contains(got, "=== Opening ===") {
			t.Fatal("missing opening section")
		}
		if n <= 4 && strings.Contains(got, "=== Recent ===") {
			t.Fatalf("n=%d should have no recent section", n)
		}
		if n <= 10 && strings.Contains(got, "=== Middle") {
			t.Fatalf("n=%d should have no middle section", n)
		}
		if !strings.Contains(got, "[Total:") {
			t.Fatal("missing total marker")
		}

		// Section content is bounded: opening and recent messages are
		// cut to at most min(400, maxChars/4) plus the marker, middle
		// probes tighter still. The fixed message cap (4+3+6) bounds
		// the whole sample.
		perMsg := min(400, maxChars/4) + len(truncationMarker)
		overhead := len("=== Opening ===\n\n=== Middle (sampled) ===\n\n=== Recent ===\n\n[Total: 60 messages]") +
			13*len("[assistant]: \n")
		if len(got) > 13*perMsg+overhead {
			t.Fatalf("sample length %d exceeds structural bound", len(got))
		}
	})
}
