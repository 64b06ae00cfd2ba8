package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobhunter/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores runs fn against both implementations so they stay interchangeable.
func stores(t *testing.T, fn func(t *testing.T, ps model.PostingStore, as model.ApplicationStore)) {
	t.Run("sqlite", func(t *testing.T) {
		s := newTestStore(t)
		fn(t, s, s)
	})
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		fn(t, s, s)
	})
}

func TestSavePostings_ReturnsOnlyNew(t *testing.T) {
	stores(t, func(t *testing.T, ps model.PostingStore, _ model.ApplicationStore) {
		ctx := context.Background()
		scraped := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		inserted, err := ps.SavePostings(ctx, []model.JobPosting{
			{ID: "1", Title: "Graduate Analyst", Company: "DataFlow", MatchScore: 85, ScrapedAt: scraped},
			{ID: "2", Title: "Junior Designer", Company: "CreativeHub", MatchScore: 78},
		})
		require.NoError(t, err)
		assert.Len(t, inserted, 2)

		inserted, err = ps.SavePostings(ctx, []model.JobPosting{
			{ID: "1", Title: "Graduate Analyst (updated)", MatchScore: 99},
			{ID: "3", Title: "Trainee", MatchScore: 92},
		})
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "3", inserted[0].ID)

		p, err := ps.GetPosting(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Graduate Analyst", p.Title, "stored posting must stay immutable")
		assert.True(t, p.ScrapedAt.Equal(scraped))

		all, err := ps.ListPostings(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"3", "1", "2"}, []string{all[0].ID, all[1].ID, all[2].ID})
	})
}

func TestGetPosting_NotFound(t *testing.T) {
	stores(t, func(t *testing.T, ps model.PostingStore, _ model.ApplicationStore) {
		_, err := ps.GetPosting(context.Background(), "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestPreferences_LatestReactionWins(t *testing.T) {
	stores(t, func(t *testing.T, ps model.PostingStore, _ model.ApplicationStore) {
		ctx := context.Background()
		require.NoError(t, ps.SetPreference(ctx, "u1", "1", model.PreferenceSaved))
		require.NoError(t, ps.SetPreference(ctx, "u1", "2", model.PreferenceDisliked))
		require.NoError(t, ps.SetPreference(ctx, "u1", "1", model.PreferenceDisliked))
		require.NoError(t, ps.SetPreference(ctx, "u2", "3", model.PreferenceSaved))

		saved, err := ps.ListPreferences(ctx, "u1", model.PreferenceSaved)
		require.NoError(t, err)
		assert.Empty(t, saved)

		disliked, err := ps.ListPreferences(ctx, "u1", model.PreferenceDisliked)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"1", "2"}, disliked)
	})
}

func TestPreferences_Delete(t *testing.T) {
	stores(t, func(t *testing.T, ps model.PostingStore, _ model.ApplicationStore) {
		ctx := context.Background()
		require.NoError(t, ps.SetPreference(ctx, "u1", "1", model.PreferenceDisliked))
		require.NoError(t, ps.SetPreference(ctx, "u1", "2", model.PreferenceSaved))

		// Only the matching reaction is undone.
		assert.ErrorIs(t, ps.DeletePreference(ctx, "u1", "1", model.PreferenceSaved), model.ErrNotFound)
		assert.ErrorIs(t, ps.DeletePreference(ctx, "u2", "1", model.PreferenceDisliked), model.ErrNotFound)
		require.NoError(t, ps.DeletePreference(ctx, "u1", "1", model.PreferenceDisliked))

		disliked, err := ps.ListPreferences(ctx, "u1", model.PreferenceDisliked)
		require.NoError(t, err)
		assert.Empty(t, disliked)
		saved, err := ps.ListPreferences(ctx, "u1", model.PreferenceSaved)
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, saved)

		assert.ErrorIs(t, ps.DeletePreference(ctx, "u1", "1", model.PreferenceDisliked), model.ErrNotFound)
	})
}

func TestApplications_CRUDAndFilter(t *testing.T) {
	stores(t, func(t *testing.T, _ model.PostingStore, as model.ApplicationStore) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

		for i, id := range []string{"a", "b", "c"} {
			app := &model.Application{
				ID: id, UserID: "u1", JobID: "job-" + id, Position: "Intern", Company: "Acme",
				Status: model.StatusCart, CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, as.CreateApplication(ctx, app))
		}
		require.NoError(t, as.CreateApplication(ctx, &model.Application{
			ID: "other", UserID: "u2", JobID: "job-x", Status: model.StatusCart, CreatedAt: base,
		}))

		app, err := as.GetApplication(ctx, "b")
		require.NoError(t, err)
		sent := base.Add(time.Hour)
		app.Status = model.StatusRejected
		app.ApplicationSentAt = &sent
		app.LastStatusUpdate = &sent
		app.Detail = &model.StatusDetail{Message: "Not selected", EmailReceived: true}
		require.NoError(t, as.UpdateApplication(ctx, app))

		got, err := as.GetApplication(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, got.Status)
		require.NotNil(t, got.ApplicationSentAt)
		assert.True(t, got.ApplicationSentAt.Equal(sent))
		require.NotNil(t, got.Detail)
		assert.Equal(t, model.StatusDetail{Message: "Not selected", EmailReceived: true}, *got.Detail)

		all, err := as.ListApplications(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

		cart, err := as.ListApplications(ctx, "u1", model.StatusCart)
		require.NoError(t, err)
		assert.Len(t, cart, 2)

		mixed, err := as.ListApplications(ctx, "u1", model.StatusCart, model.StatusRejected)
		require.NoError(t, err)
		assert.Len(t, mixed, 3)

		require.NoError(t, as.DeleteApplication(ctx, "a"))
		_, err = as.GetApplication(ctx, "a")
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.ErrorIs(t, as.DeleteApplication(ctx, "a"), model.ErrNotFound)
		assert.ErrorIs(t, as.UpdateApplication(ctx, &model.Application{ID: "a"}), model.ErrNotFound)
	})
}

func rejectionMessage(id, appID string, at time.Time) *model.InboxMessage {
	return &model.InboxMessage{
		ID: id, ApplicationID: appID, UserID: "u1", From: "hr@acme.test", To: "me@test",
		Subject: "s", Body: "b", ReceivedAt: at,
		StatusExtracted: model.StatusRejected, Direction: model.DirectionReceived,
	}
}

func TestInbox_NewestFirst(t *testing.T) {
	stores(t, func(t *testing.T, _ model.PostingStore, as model.ApplicationStore) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i, id := range []string{"m1", "m2", "m3"} {
			app := &model.Application{
				ID: "a" + id, UserID: "u1", JobID: "job-" + id, Status: model.StatusApplied, CreatedAt: base,
			}
			require.NoError(t, as.CreateApplication(ctx, app))
			app.Status = model.StatusRejected
			require.NoError(t, as.RecordResponse(ctx, app, rejectionMessage(id, app.ID, base.Add(time.Duration(i)*time.Second))))
		}

		msgs, err := as.ListInboxMessages(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "m3", msgs[0].ID)
		assert.Equal(t, model.StatusRejected, msgs[0].StatusExtracted)
		assert.Equal(t, model.DirectionReceived, msgs[0].Direction)

		none, err := as.ListInboxMessages(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestRecordResponse_AllOrNothing(t *testing.T) {
	stores(t, func(t *testing.T, _ model.PostingStore, as model.ApplicationStore) {
		ctx := context.Background()
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for _, id := range []string{"a", "b"} {
			require.NoError(t, as.CreateApplication(ctx, &model.Application{
				ID: id, UserID: "u1", JobID: "job-" + id, Status: model.StatusApplied, CreatedAt: base,
			}))
		}

		a, err := as.GetApplication(ctx, "a")
		require.NoError(t, err)
		a.Status = model.StatusRejected
		require.NoError(t, as.RecordResponse(ctx, a, rejectionMessage("m1", "a", base)))

		// The message insert fails on its duplicate id, so b must keep its status.
		b, err := as.GetApplication(ctx, "b")
		require.NoError(t, err)
		b.Status = model.StatusRejected
		assert.Error(t, as.RecordResponse(ctx, b, rejectionMessage("m1", "b", base)))

		got, err := as.GetApplication(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, model.StatusApplied, got.Status)

		// A second answer for an already answered application is refused.
		a.Status = model.StatusInterviewScheduled
		err = as.RecordResponse(ctx, a, rejectionMessage("m3", "a", base))
		assert.ErrorIs(t, err, model.ErrInvalidState)

		// Unknown application: no message either.
		err = as.RecordResponse(ctx, &model.Application{ID: "missing"}, rejectionMessage("m2", "missing", base))
		assert.ErrorIs(t, err, model.ErrNotFound)

		msgs, err := as.ListInboxMessages(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "a", msgs[0].ApplicationID)
	})
}

func TestCleanupRemovesOldUnreferencedPostings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Insert "old" entries directly with a past first_seen.
	for _, id := range []string{"old-job", "old-applied"} {
		_, err := s.db.Exec(
			"INSERT INTO postings (job_id, title, first_seen) VALUES (?, ?, ?)",
			id, "Intern", time.Now().UTC().Add(-48*time.Hour),
		)
		require.NoError(t, err)
	}
	require.NoError(t, s.CreateApplication(ctx, &model.Application{
		ID: "a", UserID: "u1", JobID: "old-applied", Status: model.StatusApplied, CreatedAt: time.Now(),
	}))
	_, err := s.SavePostings(ctx, []model.JobPosting{{ID: "fresh-job", Title: "Intern"}})
	require.NoError(t, err)

	require.NoError(t, s.Cleanup(ctx, 24*time.Hour))

	_, err = s.GetPosting(ctx, "old-job")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetPosting(ctx, "old-applied")
	assert.NoError(t, err, "postings with applications survive cleanup")
	_, err = s.GetPosting(ctx, "fresh-job")
	assert.NoError(t, err)
}
