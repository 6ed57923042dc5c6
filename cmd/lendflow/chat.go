package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/lendflow/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a loan conversation in the terminal",
	Long: `Runs an interactive loan application on stdin/stdout.

With --session the conversation is stored under that ID and can be resumed later
(use a file or redis store). Type 'exit' or press Ctrl+C to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.DefaultChatOptions()
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		if opts.JSON {
			opts.Interactive = false
		}

		return cli.RunChat(cmd.Context(), app, opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	chatCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	chatCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")

	// Chatting is the default action.
	rootCmd.RunE = chatCmd.RunE
	rootCmd.Flags().AddFlagSet(chatCmd.Flags())
}
