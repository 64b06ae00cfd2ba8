package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/lifecycle"
)

var applyNoWait bool

var applyCmd = &cobra.Command{
	Use:   "apply [application-id...]",
	Short: "Send queued applications",
	Long: "Moves the given queued applications (all of them when no ids are given) to applied.\n" +
		"Employer responses arrive after lifecycle.response_delay; the command waits for them\n" +
		"unless --no-wait is set, in which case they are delivered the next time jobhunter runs.",
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyNoWait, "no-wait", false, "do not wait for employer responses")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !applyNoWait {
		if n, err := a.engine.ResumePending(ctx, a.cfg.User.ID); err != nil {
			a.logger.Warn("could not resume pending responses", "error", err)
		} else if n > 0 {
			fmt.Printf("resuming responses for %d earlier applications\n", n)
		}
	}

	ids := args
	if len(ids) == 0 {
		queue, err := a.engine.Queue(ctx, a.cfg.User.ID)
		if err != nil {
			return err
		}
		ids = lifecycle.SubmissionOrder(queue)
	}
	if len(ids) == 0 {
		fmt.Println("Queue is empty.")
		return nil
	}

	res, err := a.engine.SubmitBatch(ctx, ids)
	printBatch(res)
	if err != nil {
		return err
	}

	if applyNoWait {
		return res.Err()
	}
	a.waitForResponses(ctx)

	inbox, err := a.engine.Inbox(ctx, a.cfg.User.ID)
	if err != nil {
		return err
	}
	printInbox(inbox, len(res.IDs(lifecycle.OutcomeUpdated)))
	return res.Err()
}

func printBatch(res lifecycle.BatchResult) {
	for _, it := range res.Items {
		switch it.Outcome {
		case lifecycle.OutcomeUpdated:
			fmt.Printf("applied %s\n", it.ID)
		case lifecycle.OutcomeSkipped:
			fmt.Printf("skipped %s (%s)\n", it.ID, it.Reason)
		case lifecycle.OutcomeFailed:
			fmt.Printf("failed  %s: %v (still queued, retry with `jobhunter apply %s`)\n", it.ID, it.Err, it.ID)
		}
	}
	fmt.Printf("\n%d applied, %d skipped, %d failed\n",
		len(res.IDs(lifecycle.OutcomeUpdated)),
		len(res.IDs(lifecycle.OutcomeSkipped)),
		len(res.Failed()),
	)
}
