package notifier

import (
	"log/slog"

	"github.com/amishk599/jobhunter/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new postings to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each posting via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each posting. It never fails.
func (n *LogNotifier) Notify(postings []model.JobPosting) error {
	for _, p := range postings {
		args := []any{"job_id", p.ID, "company", p.Company, "title", p.Title, "location", p.Location, "score", p.MatchScore}
		if p.Salary != "" {
			args = append(args, "salary", p.Salary)
		}
		if p.URL != "" {
			args = append(args, "url", p.URL)
		}
		n.logger.Info("new posting", args...)
	}
	return nil
}
