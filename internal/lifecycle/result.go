package lifecycle

import (
	"errors"

	"github.com/amishk599/jobhunter/internal/model"
)

// Outcome of one id inside a batch operation.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped" // unknown id or not in the expected state
	OutcomeFailed  Outcome = "failed"
)

// ItemResult carries enough for the presentation layer to show a per-id confirmation.
type ItemResult struct {
	ID      string
	Outcome Outcome
	Status  model.Status // status after the operation, empty when unknown
	Reason  string       // why an id was skipped
	Err     error        // set when Outcome is OutcomeFailed
}

// BatchResult lists per-id results in processing order.
type BatchResult struct {
	Items []ItemResult
}

// IDs returns the ids that ended with the given outcome, in order.
func (r BatchResult) IDs(o Outcome) []string {
	var ids []string
	for _, it := range r.Items {
		if it.Outcome == o {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Failed returns the failed items. The caller decides whether to retry them.
func (r BatchResult) Failed() []ItemResult {
	var failed []ItemResult
	for _, it := range r.Items {
		if it.Outcome == OutcomeFailed {
			failed = append(failed, it)
		}
	}
	return failed
}

// Err joins the errors of all failed items, or returns nil.
func (r BatchResult) Err() error {
	var errs []error
	for _, it := range r.Failed() {
		errs = append(errs, it.Err)
	}
	return errors.Join(errs...)
}
