package feed

import (
	"sort"

	"github.com/amishk599/jobhunter/internal/model"
)

// SortByScore orders postings by descending match score, most recently
// scraped first on ties. It sorts in place and returns the slice.
func SortByScore(postings []model.JobPosting) []model.JobPosting {
	sort.SliceStable(postings, func(i, j int) bool {
		if postings[i].MatchScore != postings[j].MatchScore {
			return postings[i].MatchScore > postings[j].MatchScore
		}
		return postings[i].ScrapedAt.After(postings[j].ScrapedAt)
	})
	return postings
}

// PoolOptions narrows a normalized feed down to what one user still needs to see.
type PoolOptions struct {
	MinMatchScore int
	// Hidden job ids: disliked, already queued or applied to.
	Hidden map[string]bool
}

// Pool filters an already normalized candidate list. Order is preserved.
func Pool(candidates []model.JobPosting, opts PoolOptions) []model.JobPosting {
	out := make([]model.JobPosting, 0, len(candidates))
	for _, p := range candidates {
		if p.MatchScore < opts.MinMatchScore {
			continue
		}
		if opts.Hidden[p.ID] {
			continue
		}
		out = append(out, p)
	}
	return out
}
