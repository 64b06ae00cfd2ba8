package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the jobhunter daemon",
	Long: "Polls every enabled feed on the configured interval, then prunes old postings and\n" +
		"delivers employer responses left pending by earlier sessions. Blocks until SIGINT/SIGTERM.",
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	a.logger.Info("config loaded",
		"interval", cfg.PollingInterval.String(),
		"feeds", len(cfg.Feeds),
		"include_keywords", len(cfg.Filters.IncludeKeywords),
		"min_match_score", cfg.Filters.MinMatchScore,
	)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, a.logger)

	pollers := buildPollers(cfg, a.store, n, httpClient, a.logger)
	if len(pollers) == 0 {
		return errors.New("no feeds to poll")
	}

	sched := scheduler.NewScheduler(pollers, cfg.PollingInterval, a.logger, a.upkeep()...)
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	a.logger.Info("goodbye")
	return nil
}

// upkeep is the daemon's per-cycle housekeeping.
func (a *app) upkeep() []scheduler.Upkeep {
	return []scheduler.Upkeep{
		{
			Name: "retention",
			Run: func(ctx context.Context) error {
				return a.store.Cleanup(ctx, a.cfg.Database.Retention)
			},
		},
		{
			Name: "pending responses",
			Run: func(ctx context.Context) error {
				n, err := a.engine.ResumePending(ctx, a.cfg.User.ID)
				if n > 0 {
					a.logger.Info("delivering pending responses", "applications", n)
				}
				return err
			},
		},
	}
}
