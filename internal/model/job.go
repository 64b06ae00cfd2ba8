package model

import (
	"context"
	"time"
)

// JobPosting is a scraped listing. It is never mutated after scraping.
type JobPosting struct {
	ID          string    // job_id, unique per feed
	Title       string    // job title
	Company     string    // company name
	Location    string    // location string
	Salary      string    // free-text salary, may be empty
	Description string    // plain-text description
	MatchScore  int       // 0-100, computed upstream
	URL         string    // source / apply link
	ScrapedAt   time.Time // when the feed source saw it
	Source      string    // feed name
}

// PreferenceKind marks how a user reacted to a posting on the match list.
type PreferenceKind string

const (
	PreferenceSaved    PreferenceKind = "saved"
	PreferenceDisliked PreferenceKind = "disliked"
)

// FeedSource supplies raw postings (file export, Greenhouse board, ...).
type FeedSource interface {
	FetchPostings(ctx context.Context) ([]JobPosting, error)
}

// PostingFilter decides whether a posting is suitable for the candidate pool.
type PostingFilter interface {
	Match(p JobPosting) bool
}

// Notifier announces newly discovered candidates.
type Notifier interface {
	Notify(postings []JobPosting) error
}

// PostingStore persists scraped postings and per-user reactions to them.
type PostingStore interface {
	// SavePostings inserts postings not stored yet and returns only those.
	SavePostings(ctx context.Context, postings []JobPosting) ([]JobPosting, error)
	GetPosting(ctx context.Context, jobID string) (*JobPosting, error)
	// ListPostings returns postings by descending match score, newest first on ties.
	ListPostings(ctx context.Context) ([]JobPosting, error)
	SetPreference(ctx context.Context, userID, jobID string, kind PreferenceKind) error
	ListPreferences(ctx context.Context, userID string, kind PreferenceKind) ([]string, error)
	// DeletePreference undoes a reaction of the given kind. A job without that
	// reaction is a *NotFoundError.
	DeletePreference(ctx context.Context, userID, jobID string, kind PreferenceKind) error
	Cleanup(ctx context.Context, olderThan time.Duration) error
}
