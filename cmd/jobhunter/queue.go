package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/board"
	"github.com/amishk599/jobhunter/internal/model"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the application queue",
}

var queueAddCmd = &cobra.Command{
	Use:   "add [job-id...]",
	Short: "Queue postings for the next apply",
	Long:  "Adds the given postings to the queue. With no ids, opens a picker over the candidate pool.",
	RunE:  runQueueAdd,
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <application-id...>",
	Short: "Remove queued applications",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQueueRemove,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued applications",
	RunE:  runQueueList,
}

func init() {
	queueCmd.AddCommand(queueAddCmd, queueRemoveCmd, queueListCmd)
	rootCmd.AddCommand(queueCmd)
}

func runQueueAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	postings, err := postingsToQueue(ctx, a, args)
	if err != nil {
		return err
	}

	queued, err := a.engine.QueuedJobIDs(ctx, a.cfg.User.ID)
	if err != nil {
		return err
	}

	added := 0
	for _, p := range postings {
		if queued[p.ID] {
			fmt.Printf("skip   %s (already queued or applied)\n", p.ID)
			continue
		}
		app, err := a.engine.Enqueue(ctx, a.cfg.User.ID, p)
		if err != nil {
			fmt.Printf("failed %s: %v\n", p.ID, err)
			continue
		}
		queued[p.ID] = true
		added++
		fmt.Printf("queued %s  %s at %s\n", app.ID, app.Position, app.Company)
	}
	fmt.Printf("\n%d added to queue\n", added)
	return nil
}

func postingsToQueue(ctx context.Context, a *app, ids []string) ([]model.JobPosting, error) {
	if len(ids) == 0 {
		pool, err := a.candidatePool(ctx)
		if err != nil {
			return nil, err
		}
		return board.RunPostingPicker(pool)
	}

	var out []model.JobPosting
	for _, id := range ids {
		p, err := a.store.GetPosting(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			fmt.Printf("skip   %s (unknown posting)\n", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func runQueueRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var failed int
	for _, id := range args {
		if err := a.engine.Dequeue(ctx, id); err != nil {
			failed++
			fmt.Printf("failed  %s: %v\n", id, err)
			continue
		}
		fmt.Printf("removed %s\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed", failed, len(args))
	}
	return nil
}

func runQueueList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	queue, err := a.engine.Queue(ctx, a.cfg.User.ID)
	if err != nil {
		return err
	}
	printApplications(queue)
	return nil
}

func printApplications(apps []model.Application) {
	if len(apps) == 0 {
		fmt.Println("Nothing here yet.")
		return
	}

	fmt.Printf("%-36s %-34s %-20s %s\n", "Application", "Position", "Company", "Status")
	fmt.Println(strings.Repeat("─", 112))
	for _, app := range apps {
		fmt.Printf("%-36s %-34s %-20s %s\n", app.ID, truncate(app.Position, 34), truncate(app.Company, 20), app.Status)
	}
	fmt.Printf("\nTotal: %d\n", len(apps))
}
