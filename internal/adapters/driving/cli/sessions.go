package cli

import (
	"github.com/spf13/cobra"

	"github.com/nexo-labs/contentsync/internal/core/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage chat sessions",
}

var sessionsActiveCmd = &cobra.Command{
	Use:   "active <user-id>",
	Short: "Show the user's most recent active session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := buildSessionManager()
		if err != nil {
			return err
		}

		session, err := manager.GetActiveSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if session == nil {
			cmd.Println("No active session.")
			return nil
		}
		printSession(cmd, session)
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <user-id> <conversation-id>",
	Short: "Show one session regardless of status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := buildSessionManager()
		if err != nil {
			return err
		}

		session, err := manager.GetSessionByConversationID(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if session == nil {
			cmd.Println("Session not found.")
			return nil
		}
		printSession(cmd, session)
		return nil
	},
}

var sessionsCloseCmd = &cobra.Command{
	Use:   "close <user-id> <conversation-id>",
	Short: "Close an active session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := buildSessionManager()
		if err != nil {
			return err
		}

		session, err := manager.CloseSession(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if session == nil {
			cmd.Println("No active session to close.")
			return nil
		}
		cmd.Printf("Closed session %s.\n", session.ConversationID)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsActiveCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsCloseCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func printSession(cmd *cobra.Command, session *domain.ChatSession) {
	cmd.Printf("Conversation: %s\n", session.ConversationID)
	cmd.Printf("User:         %s\n", session.UserID)
	cmd.Printf("Status:       %s\n", session.Status)
	cmd.Printf("Messages:     %d\n", len(session.Messages))
	cmd.Printf("Tokens:       %d\n", session.TotalTokens)
	cmd.Printf("Cost:         $%.6f\n", session.TotalCost)
	cmd.Printf("Last active:  %s\n", session.LastActivity.Format("2006-01-02 15:04:05"))
	if session.ClosedAt != nil {
		cmd.Printf("Closed at:    %s\n", session.ClosedAt.Format("2006-01-02 15:04:05"))
	}
}
