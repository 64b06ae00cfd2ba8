package lifecycle

import (
	"context"
	"fmt"

	"github.com/amishk599/jobhunter/internal/model"
)

// activeStatuses are shown on the Applications tab.
var activeStatuses = []model.Status{
	model.StatusApplied,
	model.StatusInterviewRequested,
	model.StatusInterviewScheduled,
	model.StatusOfferReceived,
}

// Queue returns the user's cart applications.
func (e *Engine) Queue(ctx context.Context, userID string) ([]model.Application, error) {
	apps, err := e.store.ListApplications(ctx, userID, model.StatusCart)
	if err != nil {
		return nil, fmt.Errorf("listing queue: %w", err)
	}
	return apps, nil
}

// Applications returns submitted applications that are not rejected.
func (e *Engine) Applications(ctx context.Context, userID string) ([]model.Application, error) {
	apps, err := e.store.ListApplications(ctx, userID, activeStatuses...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return apps, nil
}

// Rejected returns the applications kept for the "Learning" view.
func (e *Engine) Rejected(ctx context.Context, userID string) ([]model.Application, error) {
	apps, err := e.store.ListApplications(ctx, userID, model.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("listing rejected: %w", err)
	}
	return apps, nil
}

// Inbox returns the user's messages, most recent first.
func (e *Engine) Inbox(ctx context.Context, userID string) ([]model.InboxMessage, error) {
	msgs, err := e.store.ListInboxMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	return msgs, nil
}

// QueuedJobIDs returns the job ids the user has already queued or applied to,
// used to hide them from the candidate pool.
func (e *Engine) QueuedJobIDs(ctx context.Context, userID string) (map[string]bool, error) {
	apps, err := e.store.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	ids := make(map[string]bool, len(apps))
	for _, a := range apps {
		ids[a.JobID] = true
	}
	return ids, nil
}

// SubmissionOrder returns the ids of a queue as listed by Queue (newest
// first) in the order they should be submitted: oldest first, so responses
// follow the order the user queued them in.
func SubmissionOrder(queue []model.Application) []string {
	ids := make([]string, len(queue))
	for i, a := range queue {
		ids[len(queue)-1-i] = a.ID
	}
	return ids
}
