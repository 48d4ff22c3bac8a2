package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.AlwaysSaveMetrics {
		t.Error("always_save_metrics should default to true")
	}
	if cfg.LLMAnalysisMode != ModeThreshold {
		t.Errorf("mode: got %q, want %q", cfg.LLMAnalysisMode, ModeThreshold)
	}
	if cfg.MinTurnsForMetrics != 2 || cfg.MinDurationForMetrics != 30 {
		t.Errorf("metrics thresholds: got %d/%d", cfg.MinTurnsForMetrics, cfg.MinDurationForMetrics)
	}
	if cfg.MinTurnsForLLMAnalysis != 5 || cfg.MinDurationForLLMAnalysis != 300 {
		t.Errorf("llm thresholds: got %d/%d", cfg.MinTurnsForLLMAnalysis, cfg.MinDurationForLLMAnalysis)
	}
	if cfg.MaxEventsToProcess != 1000 {
		t.Errorf("max events: got %d", cfg.MaxEventsToProcess)
	}
	if cfg.Privacy.Level != PrivacySelf {
		t.Errorf("privacy level: got %q", cfg.Privacy.Level)
	}
	if !cfg.Privacy.IncludeFilePaths || cfg.Privacy.IncludeCodeSnippets {
		t.Error("privacy path/snippet defaults wrong")
	}
}

func TestLoadUserPrivacy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `privacy:
  session_learning:
    level: team
    include_file_paths: false
    max_context_tokens: 20000
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	got := loadUserPrivacy(path, DefaultPrivacy())

	if got.Level != "team" {
		t.Errorf("level: got %q, want team", got.Level)
	}
	if got.IncludeFilePaths {
		t.Error("include_file_paths should be overridden to false")
	}
	if got.MaxContextTokens != 20000 {
		t.Errorf("max_context_tokens: got %d", got.MaxContextTokens)
	}
	// Keys absent from the file keep their defaults.
	if !got.RedactSensitive {
		t.Error("redact_sensitive should keep default true")
	}
}

func TestLoadUserPrivacy_MissingFile(t *testing.T) {
	base := DefaultPrivacy()
	got := loadUserPrivacy(filepath.Join(t.TempDir(), "nope.yaml"), base)
	if got != base {
		t.Errorf("missing file should return base unchanged: got %+v", got)
	}
}

func TestLoadUserPrivacy_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("privacy: [not: a: map"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := DefaultPrivacy()
	got := loadUserPrivacy(path, base)
	if got != base {
		t.Errorf("malformed file should return base unchanged: got %+v", got)
	}
}

func TestExpandCompressHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}

	expanded := ExpandHome("~/data")
	if expanded != filepath.Join(home, "data") {
		t.Errorf("expand: got %q", expanded)
	}

	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("non-tilde path should pass through: got %q", got)
	}

	if got := CompressHome(filepath.Join(home, "x")); got != "~/x" {
		t.Errorf("compress: got %q", got)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Root = "/data/sl"

	if got := cfg.InsightsDir(); got != "/data/sl/insights" {
		t.Errorf("insights dir: got %q", got)
	}
	if got := cfg.ArchiveDir(); got != "/data/sl/insights/archive" {
		t.Errorf("archive dir: got %q", got)
	}
	if got := cfg.CatalogPath(); got != "/data/sl/insights/catalog.db" {
		t.Errorf("catalog path: got %q", got)
	}
}
