package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver.
)

// CatalogEntry is one row of the analysis catalog, enough to list and
// filter sessions without opening their envelopes.
type CatalogEntry struct {
	SessionID       string
	GeneratedAt     string
	Outcome         string
	Summary         string
	Tags            []string
	TurnCount       int
	DurationSeconds float64
	HasLLMAnalysis  bool
}

// Catalog indexes saved envelopes in SQLite for fast listing.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database and applies
// migrations.
func OpenCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			session_id TEXT PRIMARY KEY,
			generated_at TEXT NOT NULL,
			outcome TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			turn_count INTEGER NOT NULL DEFAULT 0,
			duration_seconds REAL NOT NULL DEFAULT 0,
			has_llm_analysis INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_generated_at ON analyses(generated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate catalog: %w", err)
		}
	}
	return nil
}

// Record upserts the catalog row for an envelope. Re-analysis of the
// same session replaces its row.
func (c *Catalog) Record(ctx context.Context, env *Envelope) error {
	var outcome, summary, tags string
	if env.Insights != nil {
		outcome = env.Insights.Outcome
		summary = env.Insights.Summary
		tags = strings.Join(env.Insights.Tags, ",")
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO analyses (session_id, generated_at, outcome, summary, tags, turn_count, duration_seconds, has_llm_analysis)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
			generated_at = excluded.generated_at,
			outcome = excluded.outcome,
			summary = excluded.summary,
			tags = excluded.tags,
			turn_count = excluded.turn_count,
			duration_seconds = excluded.duration_seconds,
			has_llm_analysis = excluded.has_llm_analysis`,
		env.SessionID,
		env.GeneratedAt,
		outcome,
		summary,
		tags,
		env.Metrics.TurnCount,
		env.Metrics.DurationSeconds,
		boolToInt(env.HasLLMAnalysis),
	)
	if err != nil {
		return fmt.Errorf("record analysis: %w", err)
	}
	return nil
}

// Recent lists the newest catalog entries, most recent first.
func (c *Catalog) Recent(ctx context.Context, limit int) ([]CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT session_id, generated_at, outcome, summary, tags, turn_count, duration_seconds, has_llm_analysis
		 FROM analyses ORDER BY generated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		var tags string
		var hasLLM int
		if err := rows.Scan(&e.SessionID, &e.GeneratedAt, &e.Outcome, &e.Summary,
			&tags, &e.TurnCount, &e.DurationSeconds, &hasLLM); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if tags != "" {
			e.Tags = strings.Split(tags, ",")
		}
		e.HasLLMAnalysis = hasLLM != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
