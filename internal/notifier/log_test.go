package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/amishk599/jobhunter/internal/model"
)

func TestLogNotifier_Notify_zeroPostings(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.JobPosting{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestLogNotifier_Notify_multiplePostings(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))
	postings := []model.JobPosting{
		{ID: "1", Company: "Acme", Title: "Junior Engineer", Location: "Remote", MatchScore: 91, Salary: "$60k", URL: "https://example.com/1"},
		{ID: "2", Company: "Beta", Title: "Graduate Developer", Location: "US", MatchScore: 70},
	}
	if err := n.Notify(postings); err != nil {
		t.Errorf("Notify(postings) = %v, want nil", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "salary=$60k") || !strings.Contains(lines[0], "score=91") {
		t.Errorf("first line missing fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "salary=") {
		t.Errorf("empty salary should be omitted: %s", lines[1])
	}
}
