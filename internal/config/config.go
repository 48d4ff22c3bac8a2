// Package config loads sessionlens configuration: analysis thresholds,
// processing limits, provider settings, and privacy options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Privacy levels for stored insights.
const (
	PrivacySelf   = "self"
	PrivacyTeam   = "team"
	PrivacyPublic = "public"
)

// LLM analysis modes.
const (
	ModeAutomatic = "automatic"
	ModeThreshold = "threshold"
	ModeOnDemand  = "on_demand"
)

// PrivacyConfig controls what session content may leave the machine.
type PrivacyConfig struct {
	Level               string `toml:"level" yaml:"level"`
	IncludeFilePaths    bool   `toml:"include_file_paths" yaml:"include_file_paths"`
	IncludeCodeSnippets bool   `toml:"include_code_snippets" yaml:"include_code_snippets"`
	RedactSensitive     bool   `toml:"redact_sensitive" yaml:"redact_sensitive"`
	MaxContextTokens    int    `toml:"max_context_tokens" yaml:"max_context_tokens"`
}

// ProviderConfig configures the completion provider used for insight
// generation. The API key is read from the environment, never from disk.
type ProviderConfig struct {
	Enabled     bool    `toml:"enabled"`
	Model       string  `toml:"model"`
	APIKeyEnv   string  `toml:"api_key_env"`
	BaseURL     string  `toml:"base_url"`
	Temperature float64 `toml:"temperature"`
}

// Config holds all sessionlens configuration.
type Config struct {
	// Root is the data directory holding session artifacts and the
	// insights output tree.
	Root string `toml:"root"`

	// Metrics capture (tier 1, always cheap).
	AlwaysSaveMetrics     bool `toml:"always_save_metrics"`
	MinTurnsForMetrics    int  `toml:"min_turns_for_metrics"`
	MinDurationForMetrics int  `toml:"min_duration_for_metrics"`

	// LLM analysis (tier 2, costs tokens).
	LLMAnalysisMode           string `toml:"llm_analysis_mode"`
	MinTurnsForLLMAnalysis    int    `toml:"min_turns_for_llm_analysis"`
	MinDurationForLLMAnalysis int    `toml:"min_duration_for_llm_analysis"`

	// Legacy thresholds. Still read by the pre-gate and by automatic
	// mode; intentionally not validated against the tiered fields.
	MinTurnsForAnalysis int `toml:"min_turns_for_analysis"`
	MinDurationSeconds  int `toml:"min_duration_seconds"`

	// Processing limits.
	MaxEventsToProcess     int  `toml:"max_events_to_process"`
	AnalysisTimeoutSeconds int  `toml:"analysis_timeout_seconds"`
	RunInBackground        bool `toml:"run_in_background"`
	ArchiveTranscripts     bool `toml:"archive_transcripts"`

	Provider ProviderConfig `toml:"provider"`
	Privacy  PrivacyConfig  `toml:"privacy"`
}

// Default returns config with built-in defaults.
func Default() Config {
	return Config{
		Root:                      "~/.sessionlens",
		AlwaysSaveMetrics:         true,
		MinTurnsForMetrics:        2,
		MinDurationForMetrics:     30,
		LLMAnalysisMode:           ModeThreshold,
		MinTurnsForLLMAnalysis:    5,
		MinDurationForLLMAnalysis: 300,
		MinTurnsForAnalysis:       3,
		MinDurationSeconds:        60,
		MaxEventsToProcess:        1000,
		AnalysisTimeoutSeconds:    60,
		RunInBackground:           true,
		ArchiveTranscripts:        true,
		Provider: ProviderConfig{
			Enabled:     false,
			Model:       "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			BaseURL:     "https://api.openai.com/v1",
			Temperature: 0.3,
		},
		Privacy: DefaultPrivacy(),
	}
}

// DefaultPrivacy returns the built-in privacy defaults.
func DefaultPrivacy() PrivacyConfig {
	return PrivacyConfig{
		Level:               PrivacySelf,
		IncludeFilePaths:    true,
		IncludeCodeSnippets: false,
		RedactSensitive:     true,
		MaxContextTokens:    50000,
	}
}

// Load reads configuration with merge precedence:
// module config.toml > user config.yaml privacy overlay > defaults.
func Load() (Config, error) {
	cfg := Default()

	// User-level privacy settings apply first so the module config can
	// override them.
	cfg.Privacy = loadUserPrivacy(filepath.Join(ExpandHome(cfg.Root), "config.yaml"), cfg.Privacy)

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	cfg.Root = ExpandHome(cfg.Root)
	return cfg, nil
}

// userPrivacyFile mirrors the user-level YAML config layout:
//
//	privacy:
//	  session_learning:
//	    level: self
//	    include_file_paths: true
type userPrivacyFile struct {
	Privacy struct {
		SessionLearning map[string]any `yaml:"session_learning"`
	} `yaml:"privacy"`
}

// loadUserPrivacy overlays the user config file onto base. Only keys
// present in the file are applied; a missing or malformed file leaves
// base untouched.
func loadUserPrivacy(path string, base PrivacyConfig) PrivacyConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		return base
	}

	var file userPrivacyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base
	}
	section := file.Privacy.SessionLearning
	if section == nil {
		return base
	}

	if v, ok := section["level"].(string); ok {
		base.Level = v
	}
	if v, ok := section["include_file_paths"].(bool); ok {
		base.IncludeFilePaths = v
	}
	if v, ok := section["include_code_snippets"].(bool); ok {
		base.IncludeCodeSnippets = v
	}
	if v, ok := section["redact_sensitive"].(bool); ok {
		base.RedactSensitive = v
	}
	if v, ok := section["max_context_tokens"].(int); ok {
		base.MaxContextTokens = v
	}
	return base
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "sessionlens", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "sessionlens", "config.toml"))
	}

	return paths
}

// ExpandHome expands a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// CompressHome replaces the user's home directory prefix with ~ for display.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}

// InsightsDir returns the root of the insights output tree. Envelopes
// live under its sessions/ subdirectory.
func (c Config) InsightsDir() string {
	return filepath.Join(c.Root, "insights")
}

// ArchiveDir returns the directory holding archived transcripts.
func (c Config) ArchiveDir() string {
	return filepath.Join(c.Root, "insights", "archive")
}

// CatalogPath returns the sqlite catalog location.
func (c Config) CatalogPath() string {
	return filepath.Join(c.Root, "insights", "catalog.db")
}
