package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobhunter/internal/model"
)

// DefaultResponseDelay is how long after a batch apply the employer responses arrive.
const DefaultResponseDelay = 10 * time.Second

// TaskScheduler runs a one-shot task after a delay. Implementations must
// reject a key that is still pending.
type TaskScheduler interface {
	Schedule(key string, delay time.Duration, task func(ctx context.Context)) error
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	ResponseDelay   time.Duration // delay before SimulateResponses runs
	InterviewWindow time.Duration // how far ahead interview dates and deadlines land
	RecruiterDomain string        // domain of synthetic recruiter addresses
	ApplicantEmail  string        // recipient of simulated emails

	Now      func() time.Time
	NewID    func() string
	RandIntN func(n int) int
}

// Engine owns the application state machine. It is the only writer of
// Application.Status after creation.
type Engine struct {
	store     model.ApplicationStore
	tasks     TaskScheduler
	responder *responder
	delay     time.Duration
	recipient string
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger

	// simMu keeps simulation loops from interleaving; categories depend on
	// sequence position.
	simMu sync.Mutex
}

// NewEngine wires an engine to its store and task scheduler.
func NewEngine(store model.ApplicationStore, tasks TaskScheduler, opts Options, logger *slog.Logger) *Engine {
	if opts.ResponseDelay <= 0 {
		opts.ResponseDelay = DefaultResponseDelay
	}
	if opts.InterviewWindow <= 0 {
		opts.InterviewWindow = 7 * 24 * time.Hour
	}
	if opts.RecruiterDomain == "" {
		opts.RecruiterDomain = "example.com"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	if opts.RandIntN == nil {
		opts.RandIntN = rand.IntN
	}

	return &Engine{
		store: store,
		tasks: tasks,
		responder: &responder{
			window:          opts.InterviewWindow,
			recruiterDomain: opts.RecruiterDomain,
			randIntN:        opts.RandIntN,
		},
		delay:     opts.ResponseDelay,
		recipient: opts.ApplicantEmail,
		now:       opts.Now,
		newID:     opts.NewID,
		logger:    logger,
	}
}

// Enqueue adds a posting to the user's queue as a new cart application.
// The engine does not deduplicate; callers check Queue first.
func (e *Engine) Enqueue(ctx context.Context, userID string, posting model.JobPosting) (*model.Application, error) {
	app := &model.Application{
		ID:        e.newID(),
		UserID:    userID,
		JobID:     posting.ID,
		Position:  posting.Title,
		Company:   posting.Company,
		Status:    model.StatusCart,
		CreatedAt: e.now(),
	}
	if err := e.store.CreateApplication(ctx, app); err != nil {
		return nil, &model.PersistenceError{Op: "enqueue", ID: posting.ID, Err: err}
	}

	e.logger.Debug("application queued", "application", app.ID, "job_id", posting.ID)
	return app, nil
}

// Dequeue removes a cart application. It fails with *model.NotFoundError for
// an unknown id and *model.InvalidStateError once the application left cart;
// in both cases nothing is modified.
func (e *Engine) Dequeue(ctx context.Context, id string) error {
	app, err := e.load(ctx, "dequeue", id)
	if err != nil {
		return err
	}
	if app.Status != model.StatusCart {
		return &model.InvalidStateError{Op: "dequeue", ID: id, Status: app.Status}
	}
	if err := e.store.DeleteApplication(ctx, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return &model.PersistenceError{Op: "dequeue", ID: id, Err: err}
	}

	e.logger.Debug("application dequeued", "application", id)
	return nil
}

// SubmitBatch moves every cart id to applied, one independent write per id,
// and schedules SimulateResponses for the ids that moved. Unknown and
// non-cart ids are skipped; a failed write is reported for that id only.
// Duplicate ids are processed once. The returned error is non-nil only when
// the simulation could not be scheduled.
func (e *Engine) SubmitBatch(ctx context.Context, ids []string) (BatchResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	var res BatchResult
	var applied []string
	for _, id := range ids {
		item := e.apply(ctx, id)
		if item.Outcome == OutcomeFailed {
			e.logger.Error("apply failed", "application", id, "error", item.Err)
		}
		if item.Outcome == OutcomeUpdated {
			applied = append(applied, id)
		}
		res.Items = append(res.Items, item)
	}

	e.logger.Info("batch submitted",
		"requested", len(ids),
		"applied", len(applied),
		"failed", len(res.Failed()),
	)

	if len(applied) == 0 {
		return res, nil
	}
	err := e.tasks.Schedule(batchKey(applied), e.delay, func(ctx context.Context) {
		e.SimulateResponses(ctx, applied)
	})
	if err != nil {
		return res, fmt.Errorf("scheduling responses for %d applications: %w", len(applied), err)
	}
	return res, nil
}

func (e *Engine) apply(ctx context.Context, id string) ItemResult {
	if err := ctx.Err(); err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Err: err}
	}

	app, err := e.load(ctx, "apply", id)
	if errors.Is(err, model.ErrNotFound) {
		return ItemResult{ID: id, Outcome: OutcomeSkipped, Reason: "not found"}
	}
	if err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Err: err}
	}
	if app.Status != model.StatusCart {
		return ItemResult{ID: id, Outcome: OutcomeSkipped, Status: app.Status, Reason: "not in queue"}
	}

	now := notBefore(e.now(), app.CreatedAt)
	app.Status = model.StatusApplied
	app.ApplicationSentAt = &now
	app.LastStatusUpdate = &now
	if err := e.store.UpdateApplication(ctx, app); err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Status: model.StatusCart,
			Err: &model.PersistenceError{Op: "apply", ID: id, Err: err}}
	}
	return ItemResult{ID: id, Outcome: OutcomeUpdated, Status: model.StatusApplied}
}

// SimulateResponses plays the employer side for ids, strictly in the given
// order: the id at position i gets response category i mod 3. Each applied
// application receives exactly one inbox message and one status change; ids
// no longer applied are skipped. A failing id is logged and the loop moves on.
// Cancelling ctx abandons the remaining ids.
func (e *Engine) SimulateResponses(ctx context.Context, ids []string) BatchResult {
	e.simMu.Lock()
	defer e.simMu.Unlock()

	var res BatchResult
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("simulation abandoned", "remaining", len(ids)-i, "error", err)
			for _, rest := range ids[i:] {
				res.Items = append(res.Items, ItemResult{ID: rest, Outcome: OutcomeFailed, Err: err})
			}
			break
		}

		item := e.respond(ctx, i, id)
		switch item.Outcome {
		case OutcomeFailed:
			e.logger.Error("simulated response failed", "application", id, "position", i, "error", item.Err)
		case OutcomeUpdated:
			e.logger.Info("simulated response", "application", id, "status", item.Status)
		}
		res.Items = append(res.Items, item)
	}
	return res
}

func (e *Engine) respond(ctx context.Context, position int, id string) ItemResult {
	app, err := e.load(ctx, "simulate", id)
	if errors.Is(err, model.ErrNotFound) {
		return ItemResult{ID: id, Outcome: OutcomeSkipped, Reason: "not found"}
	}
	if err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Err: err}
	}
	if app.Status != model.StatusApplied {
		return ItemResult{ID: id, Outcome: OutcomeSkipped, Status: app.Status, Reason: "already answered"}
	}

	cat := categoryFor(position)
	now := notBefore(e.now(), app.CreatedAt)
	if app.ApplicationSentAt != nil {
		now = notBefore(now, *app.ApplicationSentAt)
	}

	resp, err := e.responder.render(cat, app, now)
	if err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Status: app.Status, Err: err}
	}

	msg := &model.InboxMessage{
		ID:              e.newID(),
		ApplicationID:   app.ID,
		UserID:          app.UserID,
		From:            e.responder.sender(app.Company),
		To:              e.recipientFor(app.UserID),
		Subject:         resp.Subject,
		Body:            resp.Body,
		ReceivedAt:      now,
		StatusExtracted: cat.status(),
		Direction:       model.DirectionReceived,
	}
	app.Status = cat.status()
	app.LastStatusUpdate = &now
	app.Detail = &model.StatusDetail{Message: resp.Detail, EmailReceived: true}
	err = e.store.RecordResponse(ctx, app, msg)
	var stateErr *model.InvalidStateError
	if errors.As(err, &stateErr) {
		// answered by another session since it was loaded
		return ItemResult{ID: id, Outcome: OutcomeSkipped, Status: stateErr.Status, Reason: "already answered"}
	}
	if err != nil {
		return ItemResult{ID: id, Outcome: OutcomeFailed, Status: model.StatusApplied,
			Err: &model.PersistenceError{Op: "record " + cat.String() + " email", ID: id, Err: err}}
	}
	return ItemResult{ID: id, Outcome: OutcomeUpdated, Status: app.Status}
}

// load fetches an application, passing not-found through and wrapping any
// other store failure as a PersistenceError.
func (e *Engine) load(ctx context.Context, op, id string) (*model.Application, error) {
	app, err := e.store.GetApplication(ctx, id)
	if err == nil {
		return app, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return nil, &model.PersistenceError{Op: op, ID: id, Err: err}
}

func (e *Engine) recipientFor(userID string) string {
	if e.recipient != "" {
		return e.recipient
	}
	return slug(userID) + "@jobhunter.local"
}

func notBefore(t, floor time.Time) time.Time {
	if t.Before(floor) {
		return floor
	}
	return t
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func batchKey(ids []string) string {
	return "responses:" + strings.Join(ids, ",")
}

// ResumePending schedules responses for applications left in applied by a
// session that ended before its delayed task ran. Oldest applications come
// first. It returns the number of applications scheduled.
func (e *Engine) ResumePending(ctx context.Context, userID string) (int, error) {
	apps, err := e.store.ListApplications(ctx, userID, model.StatusApplied)
	if err != nil {
		return 0, fmt.Errorf("listing pending applications: %w", err)
	}
	if len(apps) == 0 {
		return 0, nil
	}

	ids := make([]string, len(apps))
	for i, a := range apps {
		ids[len(apps)-1-i] = a.ID
	}
	err = e.tasks.Schedule(batchKey(ids), e.delay, func(ctx context.Context) {
		e.SimulateResponses(ctx, ids)
	})
	if err != nil {
		return 0, fmt.Errorf("scheduling responses for %d applications: %w", len(ids), err)
	}

	e.logger.Info("resumed pending responses", "applications", len(ids))
	return len(ids), nil
}
