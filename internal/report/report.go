// Package report builds the on-demand session report from extracted
// metrics. Heuristic only, no LLM involved.
package report

import (
	"fmt"
	"sort"

	"github.com/sessionlens/sessionlens/internal/extract"
)

// Assessment characterizes the rhythm of a session.
type Assessment struct {
	Pace          string  `json:"pace"`
	PaceNote      string  `json:"pace_note"`
	ToolIntensity string  `json:"tool_intensity"`
	ToolsPerTurn  float64 `json:"tools_per_turn"`
}

// ToolCount is one ranked entry of the top-tools list.
type ToolCount struct {
	Tool  string `json:"tool"`
	Calls int    `json:"calls"`
}

// FileActivity summarizes file touches, with lists only in verbose mode.
type FileActivity struct {
	FilesRead     int      `json:"files_read"`
	FilesModified int      `json:"files_modified"`
	ReadList      []string `json:"read_list,omitempty"`
	ModifiedList  []string `json:"modified_list,omitempty"`
}

// Report is the assembled on-demand insights document.
type Report struct {
	SessionID    string           `json:"session_id"`
	Status       string           `json:"status"`
	Duration     string           `json:"duration"`
	Turns        int              `json:"turns"`
	ToolCalls    int              `json:"total_tool_calls"`
	Model        string           `json:"model,omitempty"`
	TopTools     []ToolCount      `json:"top_tools,omitempty"`
	FileActivity *FileActivity    `json:"file_activity,omitempty"`
	Assessment   Assessment       `json:"assessment"`
	Tips         []string         `json:"tips,omitempty"`
	RawMetrics   *extract.Metrics `json:"raw_metrics,omitempty"`
}

const (
	maxTopTools    = 7
	maxListedFiles = 10
)

// Build assembles the report for one session's metrics.
func Build(metrics *extract.Metrics, includeTips, verbose bool) *Report {
	status := "in_progress"
	if metrics.DurationSeconds > 0 {
		status = "completed"
	}

	r := &Report{
		SessionID:  metrics.SessionID,
		Status:     status,
		Duration:   FormatDuration(metrics.DurationSeconds),
		Turns:      metrics.TurnCount,
		ToolCalls:  metrics.ToolCalls(),
		Model:      metrics.ModelUsed,
		TopTools:   topTools(metrics.ToolUsage),
		Assessment: Assess(metrics),
	}

	if len(metrics.FilesRead) > 0 || len(metrics.FilesModified) > 0 {
		fa := &FileActivity{
			FilesRead:     len(metrics.FilesRead),
			FilesModified: len(metrics.FilesModified),
		}
		if verbose {
			fa.ReadList = headOf(metrics.FilesRead, maxListedFiles)
			fa.ModifiedList = headOf(metrics.FilesModified, maxListedFiles)
		}
		r.FileActivity = fa
	}

	if includeTips {
		r.Tips = Tips(metrics)
	}
	if verbose {
		r.RawMetrics = metrics
	}
	return r
}

// Assess derives pace and tool intensity from turns, duration, and tool
// call volume.
func Assess(metrics *extract.Metrics) Assessment {
	duration := metrics.DurationSeconds
	turns := metrics.TurnCount
	toolCalls := metrics.ToolCalls()

	a := Assessment{Pace: "unknown", PaceNote: "Not enough data", ToolIntensity: "minimal"}

	if duration > 0 && turns > 0 {
		minsPerTurn := (duration / 60) / float64(turns)
		switch {
		case minsPerTurn < 1:
			a.Pace = "fast"
			a.PaceNote = "Quick back-and-forth exchanges"
		case minsPerTurn < 3:
			a.Pace = "moderate"
			a.PaceNote = "Balanced conversation pace"
		default:
			a.Pace = "deliberate"
			a.PaceNote = "Taking time on each exchange"
		}
	}

	if turns > 0 && toolCalls > 0 {
		perTurn := float64(toolCalls) / float64(turns)
		switch {
		case perTurn > 3:
			a.ToolIntensity = "high"
		case perTurn > 1:
			a.ToolIntensity = "moderate"
		default:
			a.ToolIntensity = "low"
		}
	}

	divisor := turns
	if divisor < 1 {
		divisor = 1
	}
	a.ToolsPerTurn = roundTenth(float64(toolCalls) / float64(divisor))
	return a
}

// Tips produces contextual suggestions from the metrics. Always returns
// at least one entry.
func Tips(metrics *extract.Metrics) []string {
	var tips []string

	duration := metrics.DurationSeconds
	turns := metrics.TurnCount
	usage := metrics.ToolUsage

	if duration > 7200 {
		tips = append(tips, "Long session! Consider taking a break or summarizing progress.")
	}
	if n := usage["bash"]; n > 20 {
		tips = append(tips, fmt.Sprintf("Heavy bash usage (%d calls) - consider specialized tools for some tasks.", n))
	}
	if n := usage["read_file"]; n > 30 {
		tips = append(tips, fmt.Sprintf("Many file reads (%d) - grep/glob might find things faster.", n))
	}
	if usage["todo"] == 0 && turns > 15 {
		tips = append(tips, "Consider using todo tool to track progress on complex tasks.")
	}
	if usage["todo"] > 10 {
		tips = append(tips, "Great job using todo to stay organized!")
	}
	if turns > 0 && duration > 0 {
		if minsPerTurn := (duration / 60) / float64(turns); minsPerTurn > 5 {
			tips = append(tips, "Responses taking a while - try smaller, focused requests.")
		}
	}

	if len(tips) == 0 {
		tips = append(tips, "Session looks good! Keep up the focused work.")
	}
	return tips
}

// FormatDuration renders seconds as 45s, 3m 20s, or 1h 5m.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		return fmt.Sprintf("%dh %dm", s/3600, (s%3600)/60)
	}
}

func topTools(usage map[string]int) []ToolCount {
	out := make([]ToolCount, 0, len(usage))
	for tool, calls := range usage {
		out = append(out, ToolCount{Tool: tool, Calls: calls})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Calls != out[j].Calls {
			return out[i].Calls > out[j].Calls
		}
		return out[i].Tool < out[j].Tool
	})
	if len(out) > maxTopTools {
		out = out[:maxTopTools]
	}
	return out
}

func headOf(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
