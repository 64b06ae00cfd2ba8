package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/jobhunter/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseSource fetches postings from a Greenhouse public board.
// Greenhouse has no notion of a match score; every posting gets the
// configured default.
type GreenhouseSource struct {
	boardToken   string
	companyName  string
	defaultScore int
	baseURL      string
	client       *http.Client
}

// NewGreenhouseSource creates a source for one Greenhouse board.
func NewGreenhouseSource(boardToken, companyName string, defaultScore int, client *http.Client) *GreenhouseSource {
	return &GreenhouseSource{
		boardToken:   boardToken,
		companyName:  companyName,
		defaultScore: clampScore(defaultScore),
		baseURL:      greenhouseBaseURL,
		client:       client,
	}
}

// FetchPostings retrieves the board including job content. Non-200 responses
// are returned as *model.HTTPError so the retry decorator can classify them.
func (s *GreenhouseSource) FetchPostings(ctx context.Context) ([]model.JobPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", s.baseURL, s.boardToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", s.boardToken, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", s.boardToken, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("greenhouse fetch for %s", s.boardToken),
		}
	}

	var ghResp greenhouseResponse
	if err := json.NewDecoder(resp.Body).Decode(&ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", s.boardToken, err)
	}

	scrapedAt := time.Now().UTC()
	postings := make([]model.JobPosting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		p := model.JobPosting{
			ID:          fmt.Sprintf("greenhouse-%s-%d", s.boardToken, gj.ID),
			Title:       gj.Title,
			Company:     s.companyName,
			Location:    gj.Location.Name,
			Description: extractText(gj.Content),
			MatchScore:  s.defaultScore,
			URL:         gj.AbsoluteURL,
			ScrapedAt:   scrapedAt,
			Source:      "greenhouse",
		}
		if gj.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
				p.ScrapedAt = t
			}
		}
		postings = append(postings, p)
	}

	return postings, nil
}
