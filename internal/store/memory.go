package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amishk599/jobhunter/internal/model"
)

var (
	_ model.PostingStore     = (*MemoryStore)(nil)
	_ model.ApplicationStore = (*MemoryStore)(nil)
)

// MemoryStore keeps everything in process memory. It backs dry runs, where
// nothing should survive the command, and tests.
type MemoryStore struct {
	mu           sync.Mutex
	seq          int64
	postings     map[string]postingRow
	preferences  map[prefKey]prefRow
	applications map[string]applicationRow
	inbox        []model.InboxMessage
}

type postingRow struct {
	posting   model.JobPosting
	firstSeen time.Time
}

type prefKey struct{ user, job string }

type prefRow struct {
	kind model.PreferenceKind
	seq  int64
}

type applicationRow struct {
	app model.Application
	seq int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		postings:     make(map[string]postingRow),
		preferences:  make(map[prefKey]prefRow),
		applications: make(map[string]applicationRow),
	}
}

func (s *MemoryStore) SavePostings(_ context.Context, postings []model.JobPosting) ([]model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var inserted []model.JobPosting
	for _, p := range postings {
		if _, ok := s.postings[p.ID]; ok {
			continue
		}
		s.postings[p.ID] = postingRow{posting: p, firstSeen: now}
		inserted = append(inserted, p)
	}
	return inserted, nil
}

func (s *MemoryStore) GetPosting(_ context.Context, jobID string) (*model.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.postings[jobID]
	if !ok {
		return nil, &model.NotFoundError{Kind: "posting", ID: jobID}
	}
	p := row.posting
	return &p, nil
}

func (s *MemoryStore) ListPostings(_ context.Context) ([]model.JobPosting, error) {
	s.mu.Lock()
	out := make([]model.JobPosting, 0, len(s.postings))
	for _, row := range s.postings {
		out = append(out, row.posting)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		if !out[i].ScrapedAt.Equal(out[j].ScrapedAt) {
			return out[i].ScrapedAt.After(out[j].ScrapedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) SetPreference(_ context.Context, userID, jobID string, kind model.PreferenceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.preferences[prefKey{userID, jobID}] = prefRow{kind: kind, seq: s.seq}
	return nil
}

func (s *MemoryStore) ListPreferences(_ context.Context, userID string, kind model.PreferenceKind) ([]string, error) {
	s.mu.Lock()
	type entry struct {
		job string
		seq int64
	}
	var entries []entry
	for k, row := range s.preferences {
		if k.user == userID && row.kind == kind {
			entries = append(entries, entry{k.job, row.seq})
		}
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.job
	}
	return ids, nil
}

func (s *MemoryStore) DeletePreference(_ context.Context, userID, jobID string, kind model.PreferenceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := prefKey{userID, jobID}
	if row, ok := s.preferences[k]; !ok || row.kind != kind {
		return &model.NotFoundError{Kind: string(kind) + " posting", ID: jobID}
	}
	delete(s.preferences, k)
	return nil
}

func (s *MemoryStore) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenced := make(map[string]bool, len(s.applications))
	for _, row := range s.applications {
		referenced[row.app.JobID] = true
	}
	cutoff := time.Now().Add(-olderThan)
	for id, row := range s.postings {
		if row.firstSeen.Before(cutoff) && !referenced[id] {
			delete(s.postings, id)
		}
	}
	return nil
}

func (s *MemoryStore) CreateApplication(_ context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.applications[app.ID] = applicationRow{app: cloneApplication(*app), seq: s.seq}
	return nil
}

func (s *MemoryStore) GetApplication(_ context.Context, id string) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.applications[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "application", ID: id}
	}
	app := cloneApplication(row.app)
	return &app, nil
}

func (s *MemoryStore) UpdateApplication(_ context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.applications[app.ID]
	if !ok {
		return &model.NotFoundError{Kind: "application", ID: app.ID}
	}
	row.app = cloneApplication(*app)
	s.applications[app.ID] = row
	return nil
}

func (s *MemoryStore) DeleteApplication(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.applications[id]; !ok {
		return &model.NotFoundError{Kind: "application", ID: id}
	}
	delete(s.applications, id)
	return nil
}

func (s *MemoryStore) ListApplications(_ context.Context, userID string, statuses ...model.Status) ([]model.Application, error) {
	want := make(map[model.Status]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.Lock()
	var rows []applicationRow
	for _, row := range s.applications {
		if row.app.UserID != userID {
			continue
		}
		if len(want) > 0 && !want[row.app.Status] {
			continue
		}
		rows = append(rows, applicationRow{app: cloneApplication(row.app), seq: row.seq})
	}
	s.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].app.CreatedAt.Equal(rows[j].app.CreatedAt) {
			return rows[i].app.CreatedAt.After(rows[j].app.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	out := make([]model.Application, len(rows))
	for i, row := range rows {
		out[i] = row.app
	}
	return out, nil
}

func (s *MemoryStore) RecordResponse(_ context.Context, app *model.Application, msg *model.InboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.applications[app.ID]
	if !ok {
		return &model.NotFoundError{Kind: "application", ID: app.ID}
	}
	if row.app.Status != model.StatusApplied {
		return &model.InvalidStateError{Op: "record response for", ID: app.ID, Status: row.app.Status}
	}
	for _, m := range s.inbox {
		if m.ID == msg.ID {
			return fmt.Errorf("creating inbox message for %s: duplicate id %s", msg.ApplicationID, msg.ID)
		}
	}
	row.app = cloneApplication(*app)
	s.applications[app.ID] = row
	s.inbox = append(s.inbox, *msg)
	return nil
}

func (s *MemoryStore) ListInboxMessages(_ context.Context, userID string) ([]model.InboxMessage, error) {
	s.mu.Lock()
	var out []model.InboxMessage
	// Walk backwards so equal timestamps keep newest-appended first.
	for i := len(s.inbox) - 1; i >= 0; i-- {
		if s.inbox[i].UserID == userID {
			out = append(out, s.inbox[i])
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func cloneApplication(app model.Application) model.Application {
	if app.ApplicationSentAt != nil {
		t := *app.ApplicationSentAt
		app.ApplicationSentAt = &t
	}
	if app.LastStatusUpdate != nil {
		t := *app.LastStatusUpdate
		app.LastStatusUpdate = &t
	}
	if app.Detail != nil {
		d := *app.Detail
		app.Detail = &d
	}
	return app
}
