package cli

import (
	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/hook"
)

var setupUninstall bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install the SessionEnd hook into ~/.claude/settings.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if setupUninstall {
			return hook.Uninstall()
		}
		return hook.Install()
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupUninstall, "uninstall", false, "remove the hook instead")
	rootCmd.AddCommand(setupCmd)
}
