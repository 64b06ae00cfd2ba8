package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/amishk599/jobhunter/internal/poller"
)

// Upkeep is housekeeping the daemon runs after the feeds of each cycle, such
// as posting retention or delivering employer responses a closed CLI
// session left behind.
type Upkeep struct {
	Name string
	Run  func(ctx context.Context) error
}

// CycleReport summarizes one daemon cycle.
type CycleReport struct {
	Feeds        int
	FailedFeeds  int
	FailedUpkeep []string
	Took         time.Duration
}

// Scheduler is the jobhunter daemon loop: every interval it polls all feeds
// concurrently, then runs its upkeep tasks in order.
type Scheduler struct {
	pollers  []*poller.FeedPoller
	interval time.Duration
	upkeep   []Upkeep
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that runs a cycle every interval.
func NewScheduler(pollers []*poller.FeedPoller, interval time.Duration, logger *slog.Logger, upkeep ...Upkeep) *Scheduler {
	return &Scheduler{
		pollers:  pollers,
		interval: interval,
		upkeep:   upkeep,
		logger:   logger,
	}
}

// Run runs one immediate cycle, then one per interval. It returns nil when
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"feeds", len(s.pollers),
		"upkeep", len(s.upkeep),
	)

	s.RunCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle polls every feed once, then runs the upkeep tasks. Failures are
// logged and counted; upkeep runs even when feeds failed.
func (s *Scheduler) RunCycle(ctx context.Context) CycleReport {
	start := time.Now()
	report := CycleReport{Feeds: len(s.pollers)}
	report.FailedFeeds = PollOnce(ctx, s.pollers, s.logger)

	for _, u := range s.upkeep {
		if ctx.Err() != nil {
			break
		}
		if err := u.Run(ctx); err != nil {
			s.logger.Error("upkeep failed", "task", u.Name, "error", err)
			report.FailedUpkeep = append(report.FailedUpkeep, u.Name)
		}
	}

	report.Took = time.Since(start)
	s.logger.Info("cycle complete",
		"feeds", report.Feeds,
		"failed_feeds", report.FailedFeeds,
		"failed_upkeep", len(report.FailedUpkeep),
		"took", report.Took.Round(time.Millisecond).String(),
	)
	return report
}
