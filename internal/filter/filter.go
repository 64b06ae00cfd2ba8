package filter

import (
	"strings"

	"github.com/amishk599/jobhunter/internal/model"
)

// DefaultIncludeKeywords are the entry-level signal words a title must contain.
var DefaultIncludeKeywords = []string{"intern", "trainee", "graduate", "entry", "junior", "associate"}

// DefaultExcludeKeywords disqualify a title even when it has an include word
// ("Senior Associate").
var DefaultExcludeKeywords = []string{"senior"}

// EntryLevelFilter matches postings whose title contains any include keyword
// and none of the exclude keywords. Matching is case-insensitive substring.
type EntryLevelFilter struct {
	include []string
	exclude []string
}

// NewEntryLevelFilter lowercases the keyword lists once. A nil include list
// falls back to DefaultIncludeKeywords and a nil exclude list to
// DefaultExcludeKeywords; an empty non-nil list disables that side.
func NewEntryLevelFilter(include, exclude []string) *EntryLevelFilter {
	if include == nil {
		include = DefaultIncludeKeywords
	}
	if exclude == nil {
		exclude = DefaultExcludeKeywords
	}
	return &EntryLevelFilter{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// Match returns false for an empty title.
func (f *EntryLevelFilter) Match(p model.JobPosting) bool {
	title := strings.ToLower(strings.TrimSpace(p.Title))
	if title == "" {
		return false
	}

	for _, kw := range f.exclude {
		if strings.Contains(title, kw) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}
	for _, kw := range f.include {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
