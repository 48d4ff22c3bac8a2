// Package hook turns a session-end notification into persisted analysis.
// Capture is tiered: cheap structural metrics are saved for most
// sessions, and LLM insights only for sessions that clear the cost gates.
package hook

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sessionlens/sessionlens/internal/config"
	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/insight"
	"github.com/sessionlens/sessionlens/internal/locate"
	"github.com/sessionlens/sessionlens/internal/storage"
)

// CompletionEvent is emitted after a session earns LLM insights.
const CompletionEvent = "session-learning:complete"

// sampleCharBudget bounds the conversation excerpt fed to the model.
const sampleCharBudget = 8000

// Completion is the payload of CompletionEvent.
type Completion struct {
	SessionID string   `json:"session_id"`
	Outcome   string   `json:"outcome"`
	Tags      []string `json:"tags"`
}

// Emitter receives completion notifications.
type Emitter interface {
	Emit(name string, c Completion)
}

// LogEmitter reports completions through the logger.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(name string, c Completion) {
	e.Logger.Info(name, "session_id", c.SessionID, "outcome", c.Outcome, "tags", c.Tags)
}

// Event is one session-end notification.
type Event struct {
	SessionID      string
	SessionDir     string
	TranscriptPath string
}

// Hook orchestrates the post-session pipeline.
type Hook struct {
	cfg        config.Config
	locator    locate.Locator
	extractor  *extract.Extractor
	generator  *insight.Generator
	store      *storage.Store
	catalog    *storage.Catalog
	supervisor *Supervisor
	emitter    Emitter
	logger     *slog.Logger
}

func New(cfg config.Config, locator locate.Locator, extractor *extract.Extractor,
	generator *insight.Generator, store *storage.Store, catalog *storage.Catalog,
	supervisor *Supervisor, emitter Emitter, logger *slog.Logger) *Hook {
	return &Hook{
		cfg:        cfg,
		locator:    locator,
		extractor:  extractor,
		generator:  generator,
		store:      store,
		catalog:    catalog,
		supervisor: supervisor,
		emitter:    emitter,
		logger:     logger,
	}
}

// OnSessionEnd processes a session-end event. It never returns an error:
// analysis is best-effort and must not disturb the host that fired the
// hook. Failures are logged and swallowed.
func (h *Hook) OnSessionEnd(ctx context.Context, ev Event) error {
	dir := ev.SessionDir
	if dir == "" {
		var ok bool
		dir, ok = h.locator.Resolve(ev.SessionID)
		if !ok {
			h.logger.Debug("session directory not found", "session_id", ev.SessionID)
			return nil
		}
	}

	if h.cfg.RunInBackground {
		h.supervisor.Go(ctx, "analyze:"+ev.SessionID, func(ctx context.Context) {
			h.analyze(ctx, ev, dir)
		})
		return nil
	}
	h.analyze(ctx, ev, dir)
	return nil
}

// analyze runs the tiered capture pipeline for one session directory.
func (h *Hook) analyze(ctx context.Context, ev Event, dir string) {
	meta := extract.LoadMetadata(dir)
	if meta.SessionID == "" {
		meta.SessionID = ev.SessionID
	}

	// Pre-gate on metadata before touching the event log; trivially
	// short sessions are not worth even a scan.
	if meta.TurnCount < h.cfg.MinTurnsForAnalysis {
		h.logger.Debug("below analysis pre-gate",
			"session_id", meta.SessionID, "turns", meta.TurnCount)
		return
	}

	metrics, ok := h.extractor.Metrics(dir, meta)
	if !ok {
		h.logger.Debug("no event log, skipping", "session_id", meta.SessionID)
		return
	}

	h.saveMetricsTier(metrics)

	if !h.llmTierEligible(metrics) {
		return
	}
	if h.saveInsightsTier(ctx, metrics, dir) && h.cfg.ArchiveTranscripts {
		h.archiveTranscript(ev, dir, metrics.SessionID)
	}
}

// saveMetricsTier persists the metrics-only envelope when the cheap tier
// applies. Reports whether a document was written.
func (h *Hook) saveMetricsTier(metrics *extract.Metrics) bool {
	if !h.cfg.AlwaysSaveMetrics {
		return false
	}
	if metrics.TurnCount < h.cfg.MinTurnsForMetrics ||
		metrics.DurationSeconds < float64(h.cfg.MinDurationForMetrics) {
		return false
	}

	env, err := h.store.SaveMetrics(metrics)
	if err != nil {
		h.logger.Warn("save metrics failed", "session_id", metrics.SessionID, "error", err)
		return false
	}
	h.record(env)
	return true
}

// llmTierEligible applies the configured analysis mode to the metrics.
func (h *Hook) llmTierEligible(metrics *extract.Metrics) bool {
	switch h.cfg.LLMAnalysisMode {
	case config.ModeAutomatic:
		return metrics.TurnCount >= h.cfg.MinTurnsForAnalysis &&
			metrics.DurationSeconds >= float64(h.cfg.MinDurationSeconds)
	case config.ModeThreshold:
		return metrics.TurnCount >= h.cfg.MinTurnsForLLMAnalysis &&
			metrics.DurationSeconds >= float64(h.cfg.MinDurationForLLMAnalysis)
	default: // on_demand or unrecognized
		return false
	}
}

// saveInsightsTier runs LLM generation and persists the result. The full
// envelope supersedes any metrics-only document in the same slot.
func (h *Hook) saveInsightsTier(ctx context.Context, metrics *extract.Metrics, dir string) bool {
	sample := h.extractor.ConversationSample(dir, sampleCharBudget)
	ins := h.generator.Generate(ctx, metrics, sample)
	if ins == nil {
		return false
	}

	env, err := h.store.SaveInsights(metrics, ins)
	if err != nil {
		h.logger.Warn("save insights failed", "session_id", metrics.SessionID, "error", err)
		return false
	}
	h.record(env)

	if h.emitter != nil {
		h.emitter.Emit(CompletionEvent, Completion{
			SessionID: metrics.SessionID,
			Outcome:   ins.Outcome,
			Tags:      ins.Tags,
		})
	}
	return true
}

func (h *Hook) record(env *storage.Envelope) {
	if h.catalog == nil {
		return
	}
	if err := h.catalog.Record(context.Background(), env); err != nil {
		h.logger.Warn("catalog update failed", "session_id", env.SessionID, "error", err)
	}
}

func (h *Hook) archiveTranscript(ev Event, dir, sessionID string) {
	src := ev.TranscriptPath
	if src == "" {
		src = filepath.Join(dir, "transcript.jsonl")
	}
	if _, err := os.Stat(src); err != nil {
		return
	}
	if _, err := storage.ArchiveTranscript(src, h.cfg.ArchiveDir(), sessionID); err != nil {
		h.logger.Warn("archive transcript failed", "session_id", sessionID, "error", err)
	}
}
