package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sessionlens/sessionlens/internal/config"
	"github.com/sessionlens/sessionlens/internal/extract"
)

const systemPrompt = `You analyze coding-assistant session logs and produce structured JSON assessments.

Respond with valid JSON only. No markdown, no explanation. Schema:
{
  "summary": "1-2 sentences describing what the session accomplished.",
  "outcome": "one of: success, partial, abandoned, error",
  "what_went_well": ["short observation", ...],
  "areas_to_improve": ["short observation", ...],
  "tips_for_future": ["actionable tip", ...],
  "tags": ["topic-tag", ...]
}

Rules:
- summary: Past tense, outcome-focused. 1-2 sentences max.
- outcome: Exactly one of the listed values.
- what_went_well / areas_to_improve: 0-3 items each. Omit if none.
- tips_for_future: 0-3 concrete tips a future session could apply.
- tags: 1-5 short lowercase topic tags.`

const (
	maxPromptTools = 10
	maxPromptPaths = 10
)

// buildPrompt assembles the user prompt from bounded metrics plus a
// conversation sample. File paths only appear when the privacy config
// allows them.
func buildPrompt(metrics *extract.Metrics, sample string, privacy config.PrivacyConfig) string {
	var b strings.Builder

	id := metrics.SessionID
	if len(id) > 8 {
		id = id[:8] + "..."
	}

	b.WriteString("## Session Metrics\n")
	b.WriteString(fmt.Sprintf("- Session: %s\n", id))
	b.WriteString(fmt.Sprintf("- Duration: %.1f minutes\n", metrics.DurationSeconds/60))
	b.WriteString(fmt.Sprintf("- Turns: %d\n", metrics.TurnCount))
	b.WriteString(fmt.Sprintf("- Files read: %d, files modified: %d\n",
		len(metrics.FilesRead), len(metrics.FilesModified)))
	b.WriteString(fmt.Sprintf("- Errors encountered: %d\n", metrics.ErrorsEncountered))
	b.WriteString(fmt.Sprintf("- Tokens: %d in, %d out across %d requests\n",
		metrics.TotalInputTokens, metrics.TotalOutputTokens, metrics.LLMRequests))
	if metrics.ModelUsed != "" {
		b.WriteString(fmt.Sprintf("- Model: %s\n", metrics.ModelUsed))
	}

	if len(metrics.ToolUsage) > 0 {
		b.WriteString("\n## Tool Usage\n")
		for _, tc := range topTools(metrics.ToolUsage, maxPromptTools) {
			b.WriteString(fmt.Sprintf("- %s: %d\n", tc.name, tc.count))
		}
	}

	if privacy.IncludeFilePaths && len(metrics.FilesModified) > 0 {
		b.WriteString("\n## Files Modified\n")
		paths := metrics.FilesModified
		shown := len(paths)
		if shown > maxPromptPaths {
			shown = maxPromptPaths
		}
		for _, p := range paths[:shown] {
			b.WriteString(fmt.Sprintf("- %s\n", p))
		}
		if len(paths) > shown {
			b.WriteString(fmt.Sprintf("- ... +%d more\n", len(paths)-shown))
		}
	}

	if sample != "" {
		b.WriteString("\n## Conversation Sample\n")
		b.WriteString(sample)
		b.WriteString("\n")
	}

	b.WriteString("\nRespond with the JSON assessment only.\n")
	return b.String()
}

type toolCount struct {
	name  string
	count int
}

// topTools ranks tools by invocation count, name-ascending on ties so
// prompt output is deterministic.
func topTools(usage map[string]int, limit int) []toolCount {
	out := make([]toolCount, 0, len(usage))
	for name, count := range usage {
		out = append(out, toolCount{name: name, count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
