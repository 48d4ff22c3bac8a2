package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/storage"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the saved analysis for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		cfg := loadConfig(logger)

		store := storage.NewStore(cfg.InsightsDir(), cfg.Privacy.Level, logger)
		env, ok, err := store.Load(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no saved analysis for session %s", args[0])
		}
		return printJSON(cmd, env)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
