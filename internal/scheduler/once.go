package scheduler

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobhunter/internal/poller"
)

// maxConcurrentPolls bounds PollOnce. Sources sharing a backend are also
// throttled by their rate limiter.
const maxConcurrentPolls = 4

// PollOnce runs every poller once, concurrently, and waits for all of them.
// A failing feed is logged; it returns the number of feeds that failed.
func PollOnce(ctx context.Context, pollers []*poller.FeedPoller, logger *slog.Logger) int {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPolls)

	failed := make([]bool, len(pollers))
	for i, p := range pollers {
		g.Go(func() error {
			if err := p.Poll(ctx); err != nil {
				logger.Error("poll failed", "feed", p.Name, "error", err)
				failed[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	return n
}
