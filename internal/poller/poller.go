package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobhunter/internal/feed"
	"github.com/amishk599/jobhunter/internal/model"
)

// FeedPoller owns the poll pipeline for one feed source:
// fetch → score → sort by score → normalize → persist → notify new candidates.
type FeedPoller struct {
	Name       string
	source     model.FeedSource
	normalizer *feed.Normalizer
	store      model.PostingStore
	notifier   model.Notifier
	scorer     MatchScorer
	logger     *slog.Logger
}

// NewFeedPoller creates a poller wired with all its dependencies.
func NewFeedPoller(
	name string,
	source model.FeedSource,
	normalizer *feed.Normalizer,
	store model.PostingStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *FeedPoller {
	return &FeedPoller{
		Name:       name,
		source:     source,
		normalizer: normalizer,
		store:      store,
		notifier:   notifier,
		logger:     logger,
	}
}

// Poll runs one cycle. Only postings the store had not seen before are
// announced; a notifier failure is returned after the postings are saved,
// so the next cycle does not announce them twice.
func (p *FeedPoller) Poll(ctx context.Context) error {
	raw, err := p.source.FetchPostings(ctx)
	if err != nil {
		return fmt.Errorf("polling %s: %w", p.Name, err)
	}

	if p.scorer != nil {
		raw = p.score(ctx, raw)
	}
	candidates := p.normalizer.Normalize(feed.SortByScore(raw))

	fresh, err := p.store.SavePostings(ctx, candidates)
	if err != nil {
		return fmt.Errorf("polling %s: saving postings: %w", p.Name, err)
	}

	p.logger.Info("polled feed",
		"feed", p.Name,
		"fetched", len(raw),
		"candidates", len(candidates),
		"new", len(fresh),
	)

	if len(fresh) > 0 {
		if err := p.notifier.Notify(fresh); err != nil {
			return fmt.Errorf("polling %s: notifying: %w", p.Name, err)
		}
	}
	return nil
}
