package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/insight"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "self", testLogger())
}

func metricsFixture() *extract.Metrics {
	return &extract.Metrics{
		SessionID:       "sess-001",
		DurationSeconds: 120,
		TurnCount:       4,
		ToolUsage:       map[string]int{"read_file": 3},
		FilesRead:       []string{"a.go", "b.go"},
	}
}

func TestSaveMetricsAndLoad(t *testing.T) {
	s := testStore(t)

	saved, err := s.SaveMetrics(metricsFixture())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(s.Path(saved.SessionID)) != "sess-001.json" {
		t.Errorf("path: got %s", s.Path(saved.SessionID))
	}

	env, ok, err := s.Load("sess-001")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if env.HasLLMAnalysis {
		t.Error("metrics-only envelope should not claim llm analysis")
	}
	if env.Insights != nil {
		t.Errorf("unexpected insights: %+v", env.Insights)
	}
	if env.Metrics.TurnCount != 4 {
		t.Errorf("metrics: got %+v", env.Metrics)
	}
	if env.PrivacyLevel != "self" {
		t.Errorf("privacy level: got %q", env.PrivacyLevel)
	}
	if _, err := time.Parse(time.RFC3339, env.GeneratedAt); err != nil {
		t.Errorf("generated_at not RFC3339: %q", env.GeneratedAt)
	}
}

func TestSaveInsightsSupersedesMetrics(t *testing.T) {
	s := testStore(t)
	m := metricsFixture()

	if _, err := s.SaveMetrics(m); err != nil {
		t.Fatalf("save metrics: %v", err)
	}
	ins := &insight.Insights{Summary: "Shipped it.", Outcome: "success", Tags: []string{"go"}}
	if _, err := s.SaveInsights(m, ins); err != nil {
		t.Fatalf("save insights: %v", err)
	}

	env, ok, err := s.Load(m.SessionID)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !env.HasLLMAnalysis {
		t.Error("insights save should mark llm analysis")
	}
	if env.Insights == nil || env.Insights.Summary != "Shipped it." {
		t.Errorf("insights: got %+v", env.Insights)
	}

	// One slot per session id.
	entries, err := os.ReadDir(filepath.Join(s.dir, "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single document, found %d", len(entries))
	}
}

func TestSaveInsights_NilRejected(t *testing.T) {
	s := testStore(t)
	if _, err := s.SaveInsights(metricsFixture(), nil); err == nil {
		t.Fatal("expected error for nil insights")
	}
}

func TestLoad_Missing(t *testing.T) {
	s := testStore(t)
	env, ok, err := s.Load("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || env != nil {
		t.Errorf("missing envelope should be (nil, false), got %v %v", env, ok)
	}
}

func TestBoundMetricsCapsFileLists(t *testing.T) {
	m := metricsFixture()
	for i := 0; i < 50; i++ {
		m.FilesRead = append(m.FilesRead, "x.go")
		m.FilesModified = append(m.FilesModified, "y.go")
	}

	s := testStore(t)
	if _, err := s.SaveMetrics(m); err != nil {
		t.Fatal(err)
	}
	env, _, err := s.Load(m.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Metrics.FilesRead) != maxStoredFiles {
		t.Errorf("files_read: got %d", len(env.Metrics.FilesRead))
	}
	if len(env.Metrics.FilesModified) != maxStoredFiles {
		t.Errorf("files_modified: got %d", len(env.Metrics.FilesModified))
	}
	// Caller's slices stay untouched.
	if len(m.FilesRead) != 52 {
		t.Errorf("caller metrics mutated: %d", len(m.FilesRead))
	}
}

func TestLoadSurvivesCrashedWrite(t *testing.T) {
	s := testStore(t)
	m := metricsFixture()
	if _, err := s.SaveMetrics(m); err != nil {
		t.Fatal(err)
	}

	// A crash mid-write leaves a temp sibling behind but never touches
	// the final file.
	stale := filepath.Join(s.dir, "sessions", ".tmp-crashed")
	if err := os.WriteFile(stale, []byte(`{"session_id":"sess-0`), 0o644); err != nil {
		t.Fatal(err)
	}

	env, ok, err := s.Load(m.SessionID)
	if err != nil || !ok {
		t.Fatalf("load after simulated crash: ok=%v err=%v", ok, err)
	}
	if env.SessionID != m.SessionID || env.Metrics.TurnCount != 4 {
		t.Errorf("prior record corrupted: %+v", env)
	}
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	s := testStore(t)
	if _, err := s.SaveMetrics(metricsFixture()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
