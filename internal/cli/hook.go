package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sessionlens/sessionlens/internal/hook"
)

// hookInput is the JSON object the assistant writes to the hook's stdin.
type hookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	CWD            string `json:"cwd"`
	Reason         string `json:"reason,omitempty"`
	HookEventName  string `json:"hook_event_name,omitempty"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle a SessionEnd hook event (reads JSON from stdin)",
	Long: `Process a session-end notification. Reads the hook payload from stdin,
runs the tiered analysis pipeline, and drains background work before
exiting. Always exits zero: analysis must never disturb the host.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		input, err := readHookInput(cmd.InOrStdin())
		if err != nil {
			logger.Warn("bad hook input", "error", err)
			return nil
		}
		// Context clears end a session without anything to learn from.
		if input.Reason == "clear" {
			return nil
		}
		if input.SessionID == "" {
			return nil
		}

		cfg := loadConfig(logger)
		h, supervisor, cleanup := buildHook(cfg, logger)
		defer cleanup()

		_ = h.OnSessionEnd(context.Background(), hook.Event{
			SessionID:      input.SessionID,
			TranscriptPath: input.TranscriptPath,
		})

		// The hook process owns the background tasks; finish them before
		// the process goes away.
		supervisor.Wait()
		return nil
	},
}

func readHookInput(r io.Reader) (*hookInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var input hookInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func init() {
	rootCmd.AddCommand(hookCmd)
}
