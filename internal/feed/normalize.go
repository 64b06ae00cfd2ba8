package feed

import (
	"strings"

	"github.com/amishk599/jobhunter/internal/model"
)

// Normalizer turns a raw feed into the candidate pool shown as "New Jobs".
type Normalizer struct {
	filter model.PostingFilter
}

// NewNormalizer returns a normalizer gated by the given eligibility filter.
func NewNormalizer(filter model.PostingFilter) *Normalizer {
	return &Normalizer{filter: filter}
}

// Eligible reports whether p could enter the pool on its own: it has a
// job_id and passes the filter.
func (n *Normalizer) Eligible(p model.JobPosting) bool {
	return strings.TrimSpace(p.ID) != "" && n.filter.Match(p)
}

// Normalize drops ineligible postings and later duplicates of an admitted
// job_id, preserving input order. The caller is expected to have sorted the
// feed by descending match score; Normalize never re-sorts. A duplicate that
// follows an ineligible first occurrence can still be admitted.
func (n *Normalizer) Normalize(raw []model.JobPosting) []model.JobPosting {
	admitted := make(map[string]struct{}, len(raw))
	out := make([]model.JobPosting, 0, len(raw))
	for _, p := range raw {
		id := strings.TrimSpace(p.ID)
		if _, dup := admitted[id]; dup {
			continue
		}
		if !n.Eligible(p) {
			continue
		}
		admitted[id] = struct{}{}
		out = append(out, p)
	}
	return out
}
