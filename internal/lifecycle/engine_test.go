package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobhunter/internal/model"
	"github.com/amishk599/jobhunter/internal/scheduler"
	"github.com/amishk599/jobhunter/internal/store"
)

const user = "user-1"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type scheduledTask struct {
	key   string
	delay time.Duration
	run   func(ctx context.Context)
}

// fakeTasks records scheduled tasks instead of running them.
type fakeTasks struct {
	mu    sync.Mutex
	tasks []scheduledTask
	err   error
}

func (f *fakeTasks) Schedule(key string, delay time.Duration, task func(ctx context.Context)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, scheduledTask{key: key, delay: delay, run: task})
	return nil
}

func (f *fakeTasks) runAll(ctx context.Context) {
	f.mu.Lock()
	tasks := f.tasks
	f.tasks = nil
	f.mu.Unlock()
	for _, t := range tasks {
		t.run(ctx)
	}
}

// failingStore fails writes for selected application ids.
type failingStore struct {
	*store.MemoryStore
	failUpdate map[string]bool
	failInbox  map[string]bool
}

func (s *failingStore) UpdateApplication(ctx context.Context, app *model.Application) error {
	if s.failUpdate[app.ID] {
		return errors.New("write timeout")
	}
	return s.MemoryStore.UpdateApplication(ctx, app)
}

// RecordResponse fails as a whole when either half of the write is set to
// fail, like the SQLite transaction does.
func (s *failingStore) RecordResponse(ctx context.Context, app *model.Application, msg *model.InboxMessage) error {
	if s.failUpdate[app.ID] || s.failInbox[msg.ApplicationID] {
		return errors.New("write timeout")
	}
	return s.MemoryStore.RecordResponse(ctx, app, msg)
}

// staleStore hands out applications as they were before any response, like a
// second session that loaded them just before the first one wrote.
type staleStore struct {
	*store.MemoryStore
}

func (s *staleStore) GetApplication(ctx context.Context, id string) (*model.Application, error) {
	app, err := s.MemoryStore.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Status = model.StatusApplied
	return app, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEngine(t *testing.T, st model.ApplicationStore) (*Engine, *fakeTasks) {
	t.Helper()
	tasks := &fakeTasks{}
	n := 0
	c := &clock{now: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	e := NewEngine(st, tasks, Options{
		RecruiterDomain: "hire.example",
		ApplicantEmail:  "me@example.com",
		Now:             c.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		RandIntN: func(int) int { return 0 },
	}, testLogger())
	return e, tasks
}

func enqueueN(t *testing.T, e *Engine, n int) []string {
	t.Helper()
	var ids []string
	for i := range n {
		app, err := e.Enqueue(context.Background(), user, model.JobPosting{
			ID:      fmt.Sprintf("job-%d", i),
			Title:   fmt.Sprintf("Junior Role %d", i),
			Company: fmt.Sprintf("Company %d", i),
		})
		require.NoError(t, err)
		ids = append(ids, app.ID)
	}
	return ids
}

func TestEngine_EnqueueAndDequeue(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, _ := newTestEngine(t, st)

	app, err := e.Enqueue(ctx, user, model.JobPosting{ID: "job-1", Title: "Junior Analyst", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCart, app.Status)
	assert.Equal(t, "Junior Analyst", app.Position)
	assert.Nil(t, app.ApplicationSentAt)

	queue, err := e.Queue(ctx, user)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, app.ID, queue[0].ID)

	require.NoError(t, e.Dequeue(ctx, app.ID))

	queue, err = e.Queue(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestEngine_DequeueUnknown(t *testing.T) {
	e, _ := newTestEngine(t, store.NewMemoryStore())

	err := e.Dequeue(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEngine_DequeueAppliedIsRejected(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, _ := newTestEngine(t, st)
	ids := enqueueN(t, e, 1)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)

	err = e.Dequeue(ctx, ids[0])
	var stateErr *model.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, model.StatusApplied, stateErr.Status)

	app, err := st.GetApplication(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, app.Status)
}

func TestEngine_SubmitEmptyBatch(t *testing.T) {
	e, tasks := newTestEngine(t, store.NewMemoryStore())

	res, err := e.SubmitBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, tasks.tasks)
}

func TestEngine_SubmitBatch(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, tasks := newTestEngine(t, st)
	ids := enqueueN(t, e, 2)

	res, err := e.SubmitBatch(ctx, append(ids, ids[0], "missing"))
	require.NoError(t, err)

	assert.Equal(t, ids, res.IDs(OutcomeUpdated))
	assert.Equal(t, []string{"missing"}, res.IDs(OutcomeSkipped))
	assert.NoError(t, res.Err())

	for _, id := range ids {
		app, err := st.GetApplication(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApplied, app.Status)
		require.NotNil(t, app.ApplicationSentAt)
		assert.False(t, app.ApplicationSentAt.Before(app.CreatedAt))
	}

	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, DefaultResponseDelay, tasks.tasks[0].delay)
}

func TestEngine_SubmitBatchPartialFailure(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{MemoryStore: store.NewMemoryStore()}
	e, tasks := newTestEngine(t, st)
	ids := enqueueN(t, e, 3)
	st.failUpdate = map[string]bool{ids[2]: true}

	res, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)

	assert.Equal(t, ids[:2], res.IDs(OutcomeUpdated))
	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, ids[2], failed[0].ID)
	assert.ErrorIs(t, failed[0].Err, model.ErrPersistence)

	c, err := st.GetApplication(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, model.StatusCart, c.Status)

	// Only the applied ids are simulated.
	tasks.runAll(ctx)
	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestEngine_SubmitBatchSkipsNonCart(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, tasks := newTestEngine(t, st)
	ids := enqueueN(t, e, 1)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	res, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)

	assert.Equal(t, ids, res.IDs(OutcomeSkipped))
	assert.Len(t, tasks.tasks, 1, "a second submit must not schedule another simulation")
}

func TestEngine_SubmitBatchScheduleFailure(t *testing.T) {
	e, tasks := newTestEngine(t, store.NewMemoryStore())
	tasks.err = scheduler.ErrAlreadyScheduled
	ids := enqueueN(t, e, 1)

	res, err := e.SubmitBatch(context.Background(), ids)
	assert.ErrorIs(t, err, scheduler.ErrAlreadyScheduled)
	assert.Equal(t, ids, res.IDs(OutcomeUpdated))
}

func TestEngine_SimulateCyclesCategories(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, _ := newTestEngine(t, st)
	ids := enqueueN(t, e, 7)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	res := e.SimulateResponses(ctx, ids)
	require.NoError(t, res.Err())

	want := []model.Status{
		model.StatusInterviewRequested,
		model.StatusInterviewScheduled,
		model.StatusRejected,
		model.StatusInterviewRequested,
		model.StatusInterviewScheduled,
		model.StatusRejected,
		model.StatusInterviewRequested,
	}
	for i, id := range ids {
		app, err := st.GetApplication(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want[i], app.Status, "position %d", i)
		require.NotNil(t, app.Detail)
		assert.True(t, app.Detail.EmailReceived)
		assert.NotEmpty(t, app.Detail.Message)
		require.NotNil(t, app.LastStatusUpdate)
		assert.False(t, app.LastStatusUpdate.Before(*app.ApplicationSentAt))
	}

	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)
	require.Len(t, msgs, len(ids))
	byApp := make(map[string]model.InboxMessage)
	for _, m := range msgs {
		_, dup := byApp[m.ApplicationID]
		assert.False(t, dup, "one message per transition")
		byApp[m.ApplicationID] = m
	}
	for i, id := range ids {
		m := byApp[id]
		assert.Equal(t, want[i], m.StatusExtracted)
		assert.Equal(t, model.DirectionReceived, m.Direction)
		assert.Equal(t, "me@example.com", m.To)
		assert.Equal(t, fmt.Sprintf("careers@company-%d.hire.example", i), m.From)
	}
}

func TestEngine_SimulateSkipsAnswered(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, _ := newTestEngine(t, st)
	ids := enqueueN(t, e, 2)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	e.SimulateResponses(ctx, ids)

	res := e.SimulateResponses(ctx, ids)
	assert.Equal(t, ids, res.IDs(OutcomeSkipped))

	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestEngine_SimulateFailureIsolation(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{MemoryStore: store.NewMemoryStore()}
	e, _ := newTestEngine(t, st)
	ids := enqueueN(t, e, 3)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)

	st.failInbox = map[string]bool{ids[1]: true}
	res := e.SimulateResponses(ctx, ids)

	assert.Equal(t, []string{ids[0], ids[2]}, res.IDs(OutcomeUpdated))
	require.Len(t, res.Failed(), 1)

	b, err := st.GetApplication(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, b.Status, "no transition without its message")

	// Position is kept: the third id is still a rejection.
	c, err := st.GetApplication(ctx, ids[2])
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, c.Status)
}

func TestEngine_FailedResponseLeavesNoMessage(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{MemoryStore: store.NewMemoryStore()}
	e, tasks := newTestEngine(t, st)
	ids := enqueueN(t, e, 3)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	tasks.tasks = nil

	st.failUpdate = map[string]bool{ids[1]: true}
	res := e.SimulateResponses(ctx, ids)
	require.Equal(t, []string{ids[1]}, res.IDs(OutcomeFailed))

	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.NotEqual(t, ids[1], m.ApplicationID, "message written for a status change that failed")
	}

	// A later session picks the application up again.
	st.failUpdate = nil
	n, err := e.ResumePending(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	tasks.runAll(ctx)

	msgs, err = e.Inbox(ctx, user)
	require.NoError(t, err)
	perApp := make(map[string]int)
	for _, m := range msgs {
		perApp[m.ApplicationID]++
		app, err := st.GetApplication(ctx, m.ApplicationID)
		require.NoError(t, err)
		assert.Equal(t, app.Status, m.StatusExtracted, "message status must match application %s", app.ID)
	}
	for _, id := range ids {
		assert.Equal(t, 1, perApp[id], "messages for %s", id)
	}
}

func TestEngine_SimulateRacingSessionSkips(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	e, _ := newTestEngine(t, mem)
	ids := enqueueN(t, e, 2)
	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	require.Len(t, e.SimulateResponses(ctx, ids).IDs(OutcomeUpdated), 2)

	other, _ := newTestEngine(t, &staleStore{MemoryStore: mem})
	res := other.SimulateResponses(ctx, ids)
	assert.Equal(t, ids, res.IDs(OutcomeSkipped))

	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestEngine_SimulateCancelled(t *testing.T) {
	st := store.NewMemoryStore()
	e, _ := newTestEngine(t, st)
	ids := enqueueN(t, e, 2)
	_, err := e.SubmitBatch(context.Background(), ids)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := e.SimulateResponses(ctx, ids)
	assert.Len(t, res.Failed(), 2)

	msgs, err := e.Inbox(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	runner := scheduler.NewDelayedRunner(ctx, testLogger())
	defer runner.Stop()

	e := NewEngine(st, runner, Options{ResponseDelay: 10 * time.Millisecond}, testLogger())

	var ids []string
	for _, p := range []model.JobPosting{
		{ID: "j1", Title: "Junior Developer", Company: "Acme"},
		{ID: "j2", Title: "Graduate Analyst", Company: "Globex"},
		{ID: "j3", Title: "Associate Designer", Company: "Initech"},
	} {
		app, err := e.Enqueue(ctx, user, p)
		require.NoError(t, err)
		ids = append(ids, app.ID)
	}

	res, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	require.Len(t, res.IDs(OutcomeUpdated), 3)

	runner.Wait()

	active, err := e.Applications(ctx, user)
	require.NoError(t, err)
	rejected, err := e.Rejected(ctx, user)
	require.NoError(t, err)
	msgs, err := e.Inbox(ctx, user)
	require.NoError(t, err)

	assert.Len(t, active, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, ids[2], rejected[0].ID)
	require.Len(t, msgs, 3)

	// Every email names the job it answers.
	for _, m := range msgs {
		app, err := st.GetApplication(ctx, m.ApplicationID)
		require.NoError(t, err)
		assert.Contains(t, m.Subject, app.Position, "subject of %s", m.ID)
		assert.Contains(t, m.Subject, app.Company, "subject of %s", m.ID)
		assert.Contains(t, m.Body, app.Position, "body of %s", m.ID)
		assert.Equal(t, app.Status, m.StatusExtracted)
	}

	queue, err := e.Queue(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestSubmissionOrder(t *testing.T) {
	queue := []model.Application{{ID: "newest"}, {ID: "middle"}, {ID: "oldest"}}
	assert.Equal(t, []string{"oldest", "middle", "newest"}, SubmissionOrder(queue))
	assert.Empty(t, SubmissionOrder(nil))
}

func TestEngine_QueuedJobIDs(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, store.NewMemoryStore())
	enqueueN(t, e, 2)

	ids, err := e.QueuedJobIDs(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"job-0": true, "job-1": true}, ids)
}

func TestEngine_ResumePending(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	e, tasks := newTestEngine(t, st)
	ids := enqueueN(t, e, 3)

	_, err := e.SubmitBatch(ctx, ids)
	require.NoError(t, err)
	tasks.tasks = nil // the session ended before the task ran

	n, err := e.ResumePending(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, tasks.tasks, 1)
	assert.Equal(t, batchKey(ids), tasks.tasks[0].key, "oldest application first")

	tasks.runAll(ctx)
	rejected, err := e.Rejected(ctx, user)
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, ids[2], rejected[0].ID)

	n, err = e.ResumePending(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tasks.tasks)
}
