package poller

import (
	"context"

	"github.com/amishk599/jobhunter/internal/model"
)

// MatchScorer rates a posting against the user's profile. On error the
// posting is returned as it was given.
type MatchScorer interface {
	Score(ctx context.Context, posting model.JobPosting) (model.JobPosting, error)
}

// WithScorer makes Poll rescore new eligible postings before sorting.
// Feeds without a scorer keep the score the source assigned.
func (p *FeedPoller) WithScorer(s MatchScorer) *FeedPoller {
	p.scorer = s
	return p
}

// score returns a copy of raw in which each eligible posting the store has
// not seen is rescored. Stored postings are skipped since SavePostings
// would drop them anyway. A failed score keeps the source's value.
func (p *FeedPoller) score(ctx context.Context, raw []model.JobPosting) []model.JobPosting {
	out := make([]model.JobPosting, len(raw))
	copy(out, raw)

	scored := 0
	for i, posting := range out {
		if ctx.Err() != nil {
			break
		}
		if !p.normalizer.Eligible(posting) {
			continue
		}
		if _, err := p.store.GetPosting(ctx, posting.ID); err == nil {
			continue
		}

		rescored, err := p.scorer.Score(ctx, posting)
		if err != nil {
			p.logger.Warn("match scoring failed, keeping feed score",
				"feed", p.Name, "job_id", posting.ID, "error", err)
			continue
		}
		out[i] = rescored
		scored++
	}

	if scored > 0 {
		p.logger.Debug("scored postings", "feed", p.Name, "scored", scored)
	}
	return out
}
