package commands

import (
	"github.com/spf13/cobra"
)

func newChatCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive interface",
		Long: `Start the interactive interface.

Tab and Shift+Tab move between views, Ctrl+N starts a new chat, Ctrl+S opens
the settings panel, Ctrl+Y copies the last reply and /export [md|json|yaml]
saves the transcript. Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, deps)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies) error {
	a, err := deps.openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info().Str("session_id", a.chat.SessionID()).Msg("interactive session started")
	err = deps.RunTUI(a.tuiConfig(cmd.Context(), deps.Copy))
	a.logger.Info().Err(err).Msg("interactive session ended")
	return err
}
