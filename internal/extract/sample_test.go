package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sessionlens/sessionlens/internal/config"
)

func transcriptMessages(n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		lines = append(lines, fmt.Sprintf(`{"role":%q,"content":"message number %d with some words in it"}`, role, i))
	}
	return lines
}

func TestConversationSample_ShortConversation(t *testing.T) {
	dir := writeSession(t, nil, transcriptMessages(3))

	got := New(config.Default(), testLogger()).ConversationSample(dir, 8000)

	if !strings.Contains(got, "=== Opening ===") {
		t.Error("missing opening section")
	}
	if strings.Contains(got, "=== Middle (sampled) ===") {
		t.Error("short conversation should have no middle section")
	}
	if strings.Contains(got, "=== Recent ===") {
		t.Error("N <= 4 should have no recent section")
	}
	for i := 0; i < 3; i++ {
		if !strings.Contains(got, fmt.Sprintf("message number %d", i)) {
			t.Errorf("missing message %d", i)
		}
	}
	if !strings.Contains(got, "[Total: 3 messages]") {
		t.Error("missing total marker")
	}
}

func TestConversationSample_LongConversation(t *testing.T) {
	dir := writeSession(t, nil, transcriptMessages(40))

	got := New(config.Default(), testLogger()).ConversationSample(dir, 8000)

	if !strings.Contains(got, "=== Opening ===") {
		t.Error("missing opening section")
	}
	if !strings.Contains(got, "=== Middle (sampled) ===") {
		t.Error("long conversation should have middle section")
	}
	if !strings.Contains(got, "=== Recent ===") {
		t.Error("long conversation should have recent section")
	}
	// Middle probes at 25%, 50%, 75%.
	for _, i := range []int{10, 20, 30} {
		if !strings.Contains(got, fmt.Sprintf("message number %d ", i)) {
			t.Errorf("missing middle probe at index %d", i)
		}
	}
	if !strings.Contains(got, "[Total: 40 messages]") {
		t.Error("missing total marker")
	}
}

func TestConversationSample_MiddleProbesStayInterior(t *testing.T) {
	// With N=12 the probes are indices 3, 6, 9. Index 3 is inside the
	// opening window and index 9 is inside the recent window, so only
	// index 6 qualifies.
	dir := writeSession(t, nil, transcriptMessages(12))

	got := New(config.Default(), testLogger()).ConversationSample(dir, 8000)

	middle := got[strings.Index(got, "Middle"):strings.Index(got, "Recent")]
	if !strings.Contains(middle, "message number 6 ") {
		t.Error("probe at index 6 should be present")
	}
	if strings.Contains(middle, "message number 3 ") || strings.Contains(middle, "message number 9 ") {
		t.Error("probes overlapping the end windows should be excluded")
	}
}

func TestConversationSample_ContentShapes(t *testing.T) {
	transcript := []string{
		`{"role":"user","content":"plain string"}`,
		`{"role":"assistant","content":[{"type":"text","text":"first block"},{"type":"tool_use","name":"read_file"},{"type":"text","text":"second block"}]}`,
		`{"role":"assistant","content":{"odd":"shape"}}`,
		`{"role":"system","content":"ignored role"}`,
	}
	dir := writeSession(t, nil, transcript)

	got := New(config.Default(), testLogger()).ConversationSample(dir, 8000)

	if !strings.Contains(got, "plain string") {
		t.Error("missing string content")
	}
	if !strings.Contains(got, "first block second block") {
		t.Error("text blocks should be joined with spaces")
	}
	if strings.Contains(got, "read_file") {
		t.Error("non-text blocks should be dropped")
	}
	if !strings.Contains(got, "odd") {
		t.Error("unknown shapes should be stringified")
	}
	if strings.Contains(got, "ignored role") {
		t.Error("system messages should be skipped")
	}
}

func TestConversationSample_FallbackToEvents(t *testing.T) {
	events := []string{
		`{"event":"prompt:complete","data":{"prompt":"build the thing","response":"built it"}}`,
		`{"event":"tool:post","data":{"tool_name":"read_file"}}`,
	}
	dir := writeSession(t, events, nil)

	got := New(config.Default(), testLogger()).ConversationSample(dir, 8000)

	if !strings.Contains(got, "[user]: build the thing") {
		t.Errorf("missing prompt from events fallback: %q", got)
	}
	if !strings.Contains(got, "[assistant]: built it") {
		t.Errorf("missing response from events fallback: %q", got)
	}
}

func TestConversationSample_NoData(t *testing.T) {
	got := New(config.Default(), testLogger()).ConversationSample(t.TempDir(), 8000)
	if got != "[No session data available]" {
		t.Errorf("got %q", got)
	}
}

func TestTruncateAtWord(t *testing.T) {
	// Under the limit: untouched.
	if got := truncateAtWord("short", 100); got != "short" {
		t.Errorf("got %q", got)
	}

	// Last space after 70% of the limit: cut at the space.
	text := "aaaa bbbb cccc dddd eeee"
	got := truncateAtWord(text, 20)
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("missing marker: %q", got)
	}
	body := strings.TrimSuffix(got, truncationMarker)
	if strings.HasSuffix(body, " ") || len(body) > 20 {
		t.Errorf("bad cut: %q", got)
	}
	// Never cuts mid-word when a late space exists.
	if body != "aaaa bbbb cccc dddd" {
		t.Errorf("expected word-boundary cut, got %q", body)
	}

	// No usable space: hard cut.
	got = truncateAtWord(strings.Repeat("x", 50), 10)
	if got != strings.Repeat("x", 10)+truncationMarker {
		t.Errorf("hard cut: got %q", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 200)

	for _, limit := range []int{10, 100, 400, 401, 1001} {
		got := truncateAtWord(text, limit)
		if !utf8.ValidString(got) {
			t.Errorf("truncateAtWord limit %d: invalid UTF-8 %q", limit, got)
		}
		if len(got) > limit+len(truncationMarker) {
			t.Errorf("truncateAtWord limit %d: length %d over budget", limit, len(got))
		}

		got = hardTrim(text, limit)
		if !utf8.ValidString(got) {
			t.Errorf("hardTrim limit %d: invalid UTF-8 %q", limit, got)
		}
		if len(got) > limit {
			t.Errorf("hardTrim limit %d: length %d over budget", limit, len(got))
		}
	}

	// Mixed content still cuts at the word boundary when one is in range.
	if got := truncateAtWord("héllo wörld über alles jetzt", 20); !utf8.ValidString(got) {
		t.Errorf("mixed content: invalid UTF-8 %q", got)
	}
}
