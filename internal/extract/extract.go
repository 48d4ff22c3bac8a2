// Package extract turns a session's event log and transcript into a
// bounded metrics record and a bounded conversation sample.
//
// Both artifacts are untrusted: logs may be arbitrarily long and lines may
// be malformed. The scan cost is capped by MaxEventsToProcess and bad lines
// are skipped, never fatal.
package extract

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sessionlens/sessionlens/internal/config"
	"github.com/sessionlens/sessionlens/internal/sanitize"
)

// Tools whose completed invocations touch files, by semantic role.
var (
	readTools  = map[string]bool{"read_file": true}
	writeTools = map[string]bool{"write_file": true, "edit_file": true}
)

// Extractor computes session metrics and conversation samples.
type Extractor struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg config.Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Metrics streams the session event log into a Metrics record. It examines
// at most MaxEventsToProcess records regardless of log length. It returns
// false only when the log cannot be read at all.
func (e *Extractor) Metrics(sessionDir string, meta Metadata) (*Metrics, bool) {
	f, err := os.Open(filepath.Join(sessionDir, "events.jsonl"))
	if err != nil {
		e.logger.Debug("events log unreadable", "dir", sessionDir, "error", err)
		return nil, false
	}
	defer f.Close()

	m := &Metrics{
		SessionID: meta.SessionID,
		TurnCount: meta.TurnCount,
		ModelUsed: meta.Model,
		ToolUsage: make(map[string]int),
	}
	if m.SessionID == "" {
		m.SessionID = "unknown"
	}

	filesRead := make(map[string]bool)
	filesModified := make(map[string]bool)
	var firstTS, lastTS string

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	count := 0
	for scanner.Scan() {
		if count >= e.cfg.MaxEventsToProcess {
			break
		}
		count++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}

		if ev.Timestamp != "" {
			if firstTS == "" {
				firstTS = ev.Timestamp
			}
			lastTS = ev.Timestamp
		}

		switch ev.Event {
		case eventToolPost:
			var data toolPostData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				continue
			}
			name := data.ToolName
			if name == "" {
				name = "unknown"
			}
			m.ToolUsage[name]++

			if p, ok := data.ToolInput["file_path"].(string); ok && p != "" {
				p = sanitize.Path(p, e.cfg.Privacy.IncludeFilePaths)
				if readTools[name] {
					filesRead[p] = true
				} else if writeTools[name] {
					filesModified[p] = true
				}
			}

		case eventLLMResponse:
			m.LLMRequests++
			var data llmResponseData
			if err := json.Unmarshal(ev.Data, &data); err != nil {
				continue
			}
			m.TotalInputTokens += data.Usage.Input
			m.TotalOutputTokens += data.Usage.Output
			if m.ModelUsed == "" {
				m.ModelUsed = data.Model
			}

		case eventToolError, eventLLMError:
			m.ErrorsEncountered++

		default:
			if ev.Level == "ERROR" {
				m.ErrorsEncountered++
			}
		}
	}

	m.FilesRead = sortedKeys(filesRead)
	m.FilesModified = sortedKeys(filesModified)
	m.StartedAt = firstTS
	m.EndedAt = lastTS
	m.DurationSeconds = durationSeconds(firstTS, lastTS)

	return m, true
}

// durationSeconds computes last − first in seconds. Parse failure is a
// recoverable degradation: the duration is simply 0.
func durationSeconds(first, last string) float64 {
	if first == "" || last == "" {
		return 0
	}
	start, ok := parseTimestamp(first)
	if !ok {
		return 0
	}
	end, ok := parseTimestamp(last)
	if !ok {
		return 0
	}
	return end.Sub(start).Seconds()
}

// parseTimestamp accepts RFC 3339 with either a trailing Z or an explicit
// offset, with a zoneless fallback treated as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// readLines streams a JSONL file line by line into fn, skipping blanks.
// fn returning false stops the scan.
func readLines(path string, fn func(line string) bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(io.Reader(f))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !fn(line) {
			break
		}
	}
	return scanner.Err()
}
