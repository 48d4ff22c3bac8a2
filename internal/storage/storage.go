// Package storage persists session analysis output under the insights
// tree. Every write lands through a same-directory temp file and rename,
// so readers never observe a partial document.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/insight"
)

// maxStoredFiles caps the per-session file lists in the saved document.
const maxStoredFiles = 20

// Envelope is the persisted analysis document for one session. There is
// exactly one slot per session id; an insights save overwrites an earlier
// metrics-only save in place.
type Envelope struct {
	SessionID      string            `json:"session_id"`
	GeneratedAt    string            `json:"generated_at"`
	PrivacyLevel   string            `json:"privacy_level"`
	HasLLMAnalysis bool              `json:"has_llm_analysis"`
	Metrics        *extract.Metrics  `json:"metrics"`
	Insights       *insight.Insights `json:"insights,omitempty"`
}

// Store writes and reads analysis envelopes under a single insights
// directory.
type Store struct {
	dir          string
	privacyLevel string
	logger       *slog.Logger
	now          func() time.Time
}

func NewStore(insightsDir, privacyLevel string, logger *slog.Logger) *Store {
	return &Store{dir: insightsDir, privacyLevel: privacyLevel, logger: logger, now: time.Now}
}

// Path returns the envelope location for a session id.
func (s *Store) Path(sessionID string) string {
	return filepath.Join(s.dir, "sessions", sessionID+".json")
}

// SaveMetrics persists a metrics-only envelope.
func (s *Store) SaveMetrics(metrics *extract.Metrics) (*Envelope, error) {
	return s.save(metrics, nil)
}

// SaveInsights persists a full envelope, superseding any metrics-only
// document already in the slot.
func (s *Store) SaveInsights(metrics *extract.Metrics, ins *insight.Insights) (*Envelope, error) {
	if ins == nil {
		return nil, fmt.Errorf("nil insights for session %s", metrics.SessionID)
	}
	return s.save(metrics, ins)
}

func (s *Store) save(metrics *extract.Metrics, ins *insight.Insights) (*Envelope, error) {
	env := &Envelope{
		SessionID:      metrics.SessionID,
		GeneratedAt:    s.now().UTC().Format(time.RFC3339),
		PrivacyLevel:   s.privacyLevel,
		HasLLMAnalysis: ins != nil,
		Metrics:        boundMetrics(metrics),
		Insights:       ins,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	if err := writeAtomic(s.Path(metrics.SessionID), data); err != nil {
		return nil, err
	}

	s.logger.Debug("saved analysis envelope",
		"session_id", metrics.SessionID, "has_llm_analysis", env.HasLLMAnalysis)
	return env, nil
}

// Load reads the envelope for a session id. A missing document is
// reported as (nil, false) without error.
func (s *Store) Load(sessionID string) (*Envelope, bool, error) {
	data, err := os.ReadFile(s.Path(sessionID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read envelope: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, true, nil
}

// boundMetrics copies the metrics with the file lists capped, so one
// sprawling session cannot bloat the stored document.
func boundMetrics(m *extract.Metrics) *extract.Metrics {
	out := *m
	out.FilesRead = capList(m.FilesRead, maxStoredFiles)
	out.FilesModified = capList(m.FilesModified, maxStoredFiles)
	return &out
}

func capList(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	return items[:limit]
}

// writeAtomic writes data to path through a temp sibling and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
