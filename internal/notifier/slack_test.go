package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/amishk599/jobhunter/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSlack(url string, client *http.Client) *SlackNotifier {
	n := NewSlackNotifier(url, client, discardLogger())
	n.gap = 0
	return n
}

func samplePosting(title, company string) model.JobPosting {
	return model.JobPosting{
		ID:         "123",
		Company:    company,
		Title:      title,
		Location:   "Remote, US",
		Salary:     "$55,000",
		MatchScore: 88,
		URL:        "https://example.com/apply",
		Source:     "greenhouse",
	}
}

func TestSlackNotifier_EmptyPostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())

	if err := n.Notify(nil); err != nil {
		t.Errorf("Notify(nil) = %v, want nil", err)
	}
	if err := n.Notify([]model.JobPosting{}); err != nil {
		t.Errorf("Notify([]) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_SinglePosting(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())
	if err := n.Notify([]model.JobPosting{samplePosting("Junior Engineer", "Acme Corp")}); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Blocks[0].Text.Text; got != "🎯 Acme Corp: Junior Engineer" {
		t.Errorf("header text = %q, want company: title", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Company:*\nAcme Corp" {
		t.Errorf("company field = %q", got)
	}
	if got := payload.Blocks[2].Fields[0].Text; got != "*Match:*\n88%" {
		t.Errorf("match field = %q", got)
	}
	if got := payload.Blocks[2].Fields[1].Text; got != "*Salary:*\n$55,000" {
		t.Errorf("salary field = %q", got)
	}
	if got := payload.Blocks[3].Elements[0].URL; got != "https://example.com/apply" {
		t.Errorf("action URL = %q", got)
	}
}

func TestSlackNotifier_MultiplePostings(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())
	postings := []model.JobPosting{
		samplePosting("Engineer 1", "A"),
		samplePosting("Engineer 2", "B"),
		samplePosting("Engineer 3", "C"),
	}

	if err := n.Notify(postings); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 HTTP calls, got %d", c)
	}
}

func TestSlackNotifier_AllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())
	postings := []model.JobPosting{
		samplePosting("A", "X"),
		samplePosting("B", "Y"),
		samplePosting("C", "Z"),
	}

	if err := n.Notify(postings); err == nil {
		t.Error("expected error when all messages fail, got nil")
	}
}

func TestSlackNotifier_PartialFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())
	postings := []model.JobPosting{
		samplePosting("Fails", "A"),
		samplePosting("Succeeds", "B"),
	}

	if err := n.Notify(postings); err != nil {
		t.Errorf("expected nil (partial success), got %v", err)
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestSlack(srv.URL, srv.Client())
	if err := n.Notify([]model.JobPosting{samplePosting("Rate Limited", "Test")}); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestBuildPayload(t *testing.T) {
	tests := []struct {
		name       string
		posting    model.JobPosting
		wantTypes  []string
		wantSalary string
	}{
		{
			name:       "minimal posting",
			posting:    model.JobPosting{ID: "1", Company: "testco", Title: "Trainee", URL: "https://example.com/t"},
			wantTypes:  []string{"header", "section", "section", "actions", "divider"},
			wantSalary: "*Salary:*\nNot listed",
		},
		{
			name:       "description adds snippet",
			posting:    model.JobPosting{ID: "2", Company: "testco", Title: "Trainee", Salary: "€30k", Description: "Learn   the\ntrade", URL: "https://example.com/t"},
			wantTypes:  []string{"header", "section", "section", "section", "actions", "divider"},
			wantSalary: "*Salary:*\n€30k",
		},
		{
			name:       "no url drops button",
			posting:    model.JobPosting{ID: "3", Company: "testco", Title: "Trainee"},
			wantTypes:  []string{"header", "section", "section", "divider"},
			wantSalary: "*Salary:*\nNot listed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPayload(tt.posting)
			var types []string
			for _, b := range p.Blocks {
				types = append(types, b.Type)
			}
			if strings.Join(types, ",") != strings.Join(tt.wantTypes, ",") {
				t.Errorf("block types = %v, want %v", types, tt.wantTypes)
			}
			if got := p.Blocks[2].Fields[1].Text; got != tt.wantSalary {
				t.Errorf("salary field = %q, want %q", got, tt.wantSalary)
			}
			if got := p.Blocks[0].Text.Text; got != "🎯 Testco: Trainee" {
				t.Errorf("header = %q", got)
			}
		})
	}
}

func TestSnippet(t *testing.T) {
	if got := snippet("Learn   the\ntrade"); got != "Learn the trade" {
		t.Errorf("snippet collapses whitespace, got %q", got)
	}
	long := strings.Repeat("a", snippetRunes+10)
	if got := snippet(long); len([]rune(got)) != snippetRunes+1 || !strings.HasSuffix(got, "…") {
		t.Errorf("snippet should truncate to %d runes plus ellipsis, got %d", snippetRunes, len([]rune(got)))
	}
}

func TestSendTestMessage(t *testing.T) {
	rec := &recordingNotifier{}
	if err := SendTestMessage(rec); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if len(rec.got) != 1 || rec.got[0].Source != "test" {
		t.Errorf("expected one test posting, got %+v", rec.got)
	}
}

type recordingNotifier struct {
	got []model.JobPosting
}

func (r *recordingNotifier) Notify(p []model.JobPosting) error {
	r.got = append(r.got, p...)
	return nil
}
