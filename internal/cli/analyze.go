package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/extract"
	"github.com/sessionlens/sessionlens/internal/locate"
	"github.com/sessionlens/sessionlens/internal/report"
)

var (
	analyzeTips    bool
	analyzeVerbose bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <session-id>",
	Short: "Build an on-demand report for a session",
	Long: `Extract metrics from a session's event log and print a heuristic
report as JSON. Works on any session directory, whether or not the
SessionEnd hook ever saw it. Prefix matching on the session id is fine.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := loadConfig(logger)

		locator := locate.DirLocator{Root: cfg.Root}
		dir, ok := locator.Resolve(args[0])
		if !ok {
			printRecentHints(cmd, locator)
			return fmt.Errorf("session not found: %s", args[0])
		}

		extractor := extract.New(cfg, logger)
		metrics, ok := extractor.Metrics(dir, extract.LoadMetadata(dir))
		if !ok {
			return fmt.Errorf("no event log in %s", dir)
		}

		r := report.Build(metrics, analyzeTips, analyzeVerbose)
		return printJSON(cmd, r)
	},
}

// printRecentHints lists recent sessions so a mistyped id is easy to fix.
func printRecentHints(cmd *cobra.Command, locator locate.DirLocator) {
	recent := locator.Recent(5)
	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "Recent sessions:")
	for _, s := range recent {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", s.SessionID)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeTips, "tips", true, "include contextual tips")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "include file lists and raw metrics")
	rootCmd.AddCommand(analyzeCmd)
}
