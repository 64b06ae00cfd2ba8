package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/model"
)

var inboxLimit int

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Show employer emails",
	RunE:  runInbox,
}

func init() {
	inboxCmd.Flags().IntVarP(&inboxLimit, "limit", "n", 0, "show only the newest n messages")
	rootCmd.AddCommand(inboxCmd)
}

func runInbox(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	msgs, err := a.engine.Inbox(ctx, a.cfg.User.ID)
	if err != nil {
		return err
	}
	printInbox(msgs, inboxLimit)
	return nil
}

func printInbox(msgs []model.InboxMessage, limit int) {
	if len(msgs) == 0 {
		fmt.Println("Inbox is empty.")
		return
	}
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}

	for _, m := range msgs {
		fmt.Printf("[%s] %s\n", m.StatusExtracted.Label(), m.Subject)
		fmt.Printf("  from %s · %s\n", m.From, m.ReceivedAt.Local().Format("2006-01-02 15:04"))
		for _, line := range strings.Split(strings.TrimSpace(m.Body), "\n") {
			fmt.Printf("  │ %s\n", line)
		}
		fmt.Println()
	}
}
