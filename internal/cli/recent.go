package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/report"
	"github.com/sessionlens/sessionlens/internal/storage"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently analyzed sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := loadConfig(logger)

		catalog, err := storage.OpenCatalog(cfg.CatalogPath())
		if err != nil {
			return err
		}
		defer catalog.Close()

		entries, err := catalog.Recent(cmd.Context(), recentLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No analyzed sessions yet.")
			return nil
		}

		for _, e := range entries {
			marker := " "
			if e.HasLLMAnalysis {
				marker = "*"
			}
			line := fmt.Sprintf("%s %-36s  %s  %2d turns  %s",
				marker, e.SessionID, e.GeneratedAt, e.TurnCount,
				report.FormatDuration(e.DurationSeconds))
			if e.Summary != "" {
				line += "  " + e.Summary
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().IntVar(&recentLimit, "limit", 10, "maximum sessions to list")
	rootCmd.AddCommand(recentCmd)
}
