package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/model"
	"github.com/amishk599/jobhunter/internal/notifier"
	"github.com/amishk599/jobhunter/internal/scheduler"
	"github.com/amishk599/jobhunter/internal/store"
)

var (
	feedRefresh bool
	feedDryRun  bool
	feedLimit   int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the candidate pool",
	Long: "Lists eligible postings you have not queued, applied to or disliked, best match first.\n" +
		"--refresh polls every feed once first; --dry-run polls into memory and saves nothing.",
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().BoolVar(&feedRefresh, "refresh", false, "poll all feeds once before listing")
	feedCmd.Flags().BoolVar(&feedDryRun, "dry-run", false, "poll all feeds once, print the pool, persist nothing")
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", 25, "maximum postings to show (0 for all)")
	rootCmd.AddCommand(feedCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if feedDryRun {
		return runFeedDryRun(ctx)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if feedRefresh {
		httpClient := &http.Client{Timeout: 30 * time.Second}
		pollers := buildPollers(a.cfg, a.store, notifier.NewLogNotifier(a.logger), httpClient, a.logger)
		if failed := scheduler.PollOnce(ctx, pollers, a.logger); failed > 0 {
			a.logger.Warn("some feeds failed", "failed", failed, "feeds", len(pollers))
		}
	}

	pool, err := a.candidatePool(ctx)
	if err != nil {
		return err
	}
	printPostings(pool, feedLimit)
	return nil
}

func runFeedDryRun(ctx context.Context) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("dry-run mode enabled, nothing will be saved")

	mem := store.NewMemoryStore()
	httpClient := &http.Client{Timeout: 30 * time.Second}
	pollers := buildPollers(cfg, mem, notifier.NewLogNotifier(logger), httpClient, logger)
	scheduler.PollOnce(ctx, pollers, logger)

	pool, err := mem.ListPostings(ctx)
	if err != nil {
		return err
	}
	var shown []model.JobPosting
	for _, p := range pool {
		if p.MatchScore >= cfg.Filters.MinMatchScore {
			shown = append(shown, p)
		}
	}
	printPostings(shown, feedLimit)
	return nil
}

func printPostings(postings []model.JobPosting, limit int) {
	if len(postings) == 0 {
		fmt.Println("No eligible postings. Try `jobhunter feed --refresh`.")
		return
	}

	fmt.Printf("%-5s %-28s %-34s %-20s %s\n", "Score", "Job ID", "Title", "Company", "Location")
	fmt.Println(strings.Repeat("─", 110))
	for i, p := range postings {
		if limit > 0 && i == limit {
			fmt.Printf("… %d more (use --limit 0 to show all)\n", len(postings)-limit)
			break
		}
		fmt.Printf("%-5d %-28s %-34s %-20s %s\n", p.MatchScore, truncate(p.ID, 28), truncate(p.Title, 34), truncate(p.Company, 20), p.Location)
	}
	fmt.Printf("\nTotal: %d postings\n", len(postings))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
