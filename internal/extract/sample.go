package extract

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/sessionlens/sessionlens/internal/sanitize"
)

const truncationMarker = "..."

type message struct {
	role    string
	content string
}

// ConversationSample produces a bounded, human-readable excerpt of the
// session dialogue. It prefers the structured transcript and falls back to
// prompt/response pairs recorded in the event log. Output length stays
// within maxChars plus at most one truncation marker.
func (e *Extractor) ConversationSample(sessionDir string, maxChars int) string {
	transcriptPath := filepath.Join(sessionDir, "transcript.jsonl")

	var messages []message
	err := readLines(transcriptPath, func(line string) bool {
		var tl transcriptLine
		if err := json.Unmarshal([]byte(line), &tl); err != nil {
			return true
		}
		if (tl.Role != "user" && tl.Role != "assistant") || tl.Content == nil {
			return true
		}
		text := messageText(tl.Content)
		if text != "" {
			messages = append(messages, message{role: tl.Role, content: text})
		}
		return true
	})
	if err != nil {
		messages = e.messagesFromEvents(sessionDir)
		if messages == nil {
			return "[No session data available]"
		}
	}

	if len(messages) == 0 {
		return "[No conversation content available]"
	}

	return formatSample(messages, maxChars)
}

// messagesFromEvents derives prompt/response pairs from the event log when
// no transcript exists.
func (e *Extractor) messagesFromEvents(sessionDir string) []message {
	var messages []message
	err := readLines(filepath.Join(sessionDir, "events.jsonl"), func(line string) bool {
		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return true
		}
		if ev.Event != eventPromptComplete {
			return true
		}
		var data promptCompleteData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return true
		}
		if data.Prompt != "" {
			messages = append(messages, message{role: "user", content: hardTrim(data.Prompt, 500)})
		}
		if data.Response != "" {
			messages = append(messages, message{role: "assistant", content: hardTrim(data.Response, 500)})
		}
		return true
	})
	if err != nil {
		return nil
	}
	return messages
}

// messageText extracts text from the content shapes a message may carry:
// a plain string, a block array (text-typed blocks joined with spaces), or
// anything else stringified as a last resort.
func messageText(content any) string {
	switch c := content.(type) {
	case string:
		return sanitize.StripTags(c)
	case []any:
		var parts []string
		for _, item := range c {
			switch block := item.(type) {
			case map[string]any:
				if block["type"] == "text" {
					if text, ok := block["text"].(string); ok && text != "" {
						parts = append(parts, text)
					}
				}
			case string:
				parts = append(parts, block)
			}
		}
		return sanitize.StripTags(strings.Join(parts, " "))
	default:
		return fmt.Sprintf("%v", content)
	}
}

// formatSample builds the three-window sample: the opening exchanges, a
// sparse middle snapshot for long conversations, and the most recent
// exchanges. This bounds downstream token cost while keeping signal from
// the start, a mid-session snapshot, and the session's resolution.
func formatSample(messages []message, maxChars int) string {
	n := len(messages)
	budget := maxChars

	var parts []string
	charsUsed := 0

	parts = append(parts, "=== Opening ===")
	opening := n
	if opening > 4 {
		opening = 4
	}
	for _, msg := range messages[:opening] {
		truncated := truncateAtWord(msg.content, min(400, budget/4))
		parts = append(parts, fmt.Sprintf("[%s]: %s", msg.role, truncated))
		charsUsed += len(truncated)
	}

	if n > 10 {
		parts = append(parts, "\n=== Middle (sampled) ===")
		midBudget := (budget - charsUsed) / 3
		for _, i := range []int{n / 4, n / 2, 3 * n / 4} {
			if i >= 4 && i < n-4 {
				msg := messages[i]
				truncated := truncateAtWord(msg.content, min(300, midBudget/3))
				parts = append(parts, fmt.Sprintf("[%s]: %s", msg.role, truncated))
			}
		}
	}

	if n > 4 {
		parts = append(parts, "\n=== Recent ===")
		recent := n - 4
		if recent > 6 {
			recent = 6
		}
		for _, msg := range messages[n-recent:] {
			truncated := truncateAtWord(msg.content, min(400, budget/4))
			parts = append(parts, fmt.Sprintf("[%s]: %s", msg.role, truncated))
		}
	}

	parts = append(parts, fmt.Sprintf("\n[Total: %d messages]", n))
	return strings.Join(parts, "\n")
}

// truncateAtWord cuts text to at most maxLen characters, backing up to the
// last space when it falls after 70% of the limit so words stay whole.
func truncateAtWord(text string, maxLen int) string {
	if maxLen <= 0 {
		return truncationMarker
	}
	if len(text) <= maxLen {
		return text
	}
	truncated := cutAtRune(text, maxLen)
	if idx := strings.LastIndex(truncated, " "); idx > int(float64(maxLen)*0.7) {
		truncated = truncated[:idx]
	}
	return truncated + truncationMarker
}

func hardTrim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return cutAtRune(s, n)
}

// cutAtRune slices s to at most n bytes, backing up so a multi-byte
// rune is never split. Callers guarantee n < len(s).
func cutAtRune(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
