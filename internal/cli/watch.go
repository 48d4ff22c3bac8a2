package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print analyses as they are saved",
	Long: `Watch the insights directory and print a one-line summary whenever a
session analysis is written or updated. Stops on interrupt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := loadConfig(logger)

		sessionsDir := filepath.Join(cfg.InsightsDir(), "sessions")
		if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
			return fmt.Errorf("create watch dir: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(sessionsDir); err != nil {
			return fmt.Errorf("watch %s: %w", sessionsDir, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := storage.NewStore(cfg.InsightsDir(), cfg.Privacy.Level, logger)
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", sessionsDir)

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if id, ok := sessionIDFromPath(ev.Name); ok {
					printEnvelopeSummary(cmd, store, id)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watch error", "error", err)
			}
		}
	},
}

// sessionIDFromPath extracts the session id from an envelope filename.
// Temp files from in-flight atomic writes are ignored.
func sessionIDFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}

func printEnvelopeSummary(cmd *cobra.Command, store *storage.Store, id string) {
	env, ok, err := store.Load(id)
	if err != nil || !ok {
		return
	}
	kind := "metrics"
	if env.HasLLMAnalysis {
		kind = "insights"
	}
	line := fmt.Sprintf("%s  %s  %s  %d turns", env.GeneratedAt, env.SessionID, kind, env.Metrics.TurnCount)
	if env.Insights != nil && env.Insights.Summary != "" {
		line += "  " + env.Insights.Summary
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
