package extract

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Event kinds recognized in events.jsonl. Everything else is ignored.
const (
	eventToolPost       = "tool:post"
	eventLLMResponse    = "llm:response"
	eventToolError      = "tool:error"
	eventLLMError       = "llm:error"
	eventPromptComplete = "prompt:complete"
)

// event is one line of the session event log. Unknown fields are dropped;
// unparseable lines are skipped by the scanner.
type event struct {
	Timestamp string          `json:"ts"`
	Event     string          `json:"event"`
	Level     string          `json:"lvl"`
	Data      json.RawMessage `json:"data"`
}

type toolPostData struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
}

type llmResponseData struct {
	Model string `json:"model"`
	Usage struct {
		Input  int `json:"input"`
		Output int `json:"output"`
	} `json:"usage"`
}

type promptCompleteData struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// transcriptLine is one message of transcript.jsonl. Content is either a
// plain string or an array of typed blocks.
type transcriptLine struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Metadata is the externally supplied session metadata record.
type Metadata struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Model     string `json:"model"`
	TurnCount int    `json:"turn_count"`
	Created   string `json:"created"`
}

// LoadMetadata reads metadata.json from a session directory. A missing or
// malformed file yields the zero value; metadata is advisory.
func LoadMetadata(sessionDir string) Metadata {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(sessionDir, "metadata.json"))
	if err != nil {
		return meta
	}
	_ = json.Unmarshal(data, &meta)
	return meta
}

// Metrics is the bounded structural summary of one session. Built once per
// analysis pass and never mutated afterwards.
type Metrics struct {
	SessionID         string         `json:"session_id"`
	DurationSeconds   float64        `json:"duration_seconds"`
	TurnCount         int            `json:"turn_count"`
	ToolUsage         map[string]int `json:"tool_usage"`
	FilesRead         []string       `json:"files_read"`
	FilesModified     []string       `json:"files_modified"`
	ErrorsEncountered int            `json:"errors_encountered"`
	LLMRequests       int            `json:"llm_requests"`
	TotalInputTokens  int            `json:"total_input_tokens"`
	TotalOutputTokens int            `json:"total_output_tokens"`
	ModelUsed         string         `json:"model_used,omitempty"`
	StartedAt         string         `json:"started_at,omitempty"`
	EndedAt           string         `json:"ended_at,omitempty"`
}

// ToolCalls returns the total number of tool invocations recorded.
func (m *Metrics) ToolCalls() int {
	total := 0
	for _, n := range m.ToolUsage {
		total += n
	}
	return total
}
