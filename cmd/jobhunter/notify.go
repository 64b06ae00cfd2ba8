package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/model"
	"github.com/amishk599/jobhunter/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long: `Sends a notification through the configured notifier.
With --job the stored posting is sent instead of the built-in sample.`,
	RunE: runNotifyTest,
}

var notifyJobID string

func init() {
	notifyTestCmd.Flags().StringVar(&notifyJobID, "job", "", "send this stored posting")
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(a.cfg, httpClient, a.logger)

	if notifyJobID == "" {
		if err := notifier.SendTestMessage(n); err != nil {
			return fmt.Errorf("send test notification: %w", err)
		}
		a.logger.Info("test notification sent", "notifier", a.cfg.Notification.Type)
		return nil
	}

	posting, err := a.store.GetPosting(ctx, notifyJobID)
	if err != nil {
		return err
	}
	if err := n.Notify([]model.JobPosting{*posting}); err != nil {
		return fmt.Errorf("notify %s: %w", notifyJobID, err)
	}
	a.logger.Info("posting sent", "job_id", posting.ID, "notifier", a.cfg.Notification.Type)
	return nil
}
