package main

import (
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive conversation. Type exit or press Ctrl+D to quit.
Sensitive actions are shown before they run and need a y/N answer; any other
answer denies them and is passed to the assistant as the reason.

With --json, each input line is a (JSON-quoted) user message and each turn
result is written as one JSON object per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sessionID, _ := cmd.Flags().GetString("session")
		autoApprove, _ := cmd.Flags().GetBool("auto-approve")
		deny, _ := cmd.Flags().GetStringSlice("deny")
		jsonMode, _ := cmd.Flags().GetBool("json")
		fresh, _ := cmd.Flags().GetBool("fresh")

		return cli.RunChat(sigCtx, app, cli.ChatOptions{
			SessionID:   sessionID,
			UserID:      app.Config.UserID,
			AutoApprove: autoApprove,
			Deny:        deny,
			JSON:        jsonMode,
			Fresh:       fresh,
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "default", "Session id to resume or create")
	chatCmd.Flags().Bool("auto-approve", false, "Approve every sensitive action without asking")
	chatCmd.Flags().StringSlice("deny", nil, "Sensitive tools that are always denied")
	chatCmd.Flags().Bool("json", false, "Read and write JSON Lines instead of text")
	chatCmd.Flags().Bool("fresh", false, "Discard the session before starting")
}
