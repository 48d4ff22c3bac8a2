package insight

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sessionlens/sessionlens/internal/config"
	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/provider"
)

// jsonObjectPattern grabs the outermost brace-delimited span of the reply.
// Models sometimes wrap the JSON in prose or code fences.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Generator produces session insights through whichever completion
// provider is registered.
type Generator struct {
	registry *provider.Registry
	cfg      config.Config
	logger   *slog.Logger
}

func NewGenerator(registry *provider.Registry, cfg config.Config, logger *slog.Logger) *Generator {
	return &Generator{registry: registry, cfg: cfg, logger: logger}
}

// Generate asks the provider for a qualitative assessment of the session.
// It returns nil whenever insights cannot be produced: no provider, call
// timeout, or an unparseable reply. Failures are logged, never fatal.
func (g *Generator) Generate(ctx context.Context, metrics *extract.Metrics, sample string) *Insights {
	completer, ok := g.registry.First()
	if !ok {
		g.logger.Warn("no completion provider registered, skipping insights")
		return nil
	}

	timeout := time.Duration(g.cfg.AnalysisTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := buildPrompt(metrics, sample, g.cfg.Privacy)
	resp, err := completer.Complete(ctx, provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		g.logger.Warn("insight generation failed",
			"session_id", metrics.SessionID, "error", err)
		return nil
	}

	insights, err := parseInsights(resp.Text())
	if err != nil {
		g.logger.Warn("unparseable insight reply",
			"session_id", metrics.SessionID, "error", err)
		return nil
	}
	return insights
}

// parseInsights decodes the model reply. The brace-delimited span is tried
// first, then the full text as-is.
func parseInsights(text string) (*Insights, error) {
	var ins Insights
	if m := jsonObjectPattern.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &ins); err == nil {
			ins.Outcome = normalizeOutcome(ins.Outcome)
			return &ins, nil
		}
	}
	if err := json.Unmarshal([]byte(text), &ins); err != nil {
		return nil, err
	}
	ins.Outcome = normalizeOutcome(ins.Outcome)
	return &ins, nil
}

func normalizeOutcome(outcome string) string {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if allowedOutcomes[outcome] {
		return outcome
	}
	return "unknown"
}
