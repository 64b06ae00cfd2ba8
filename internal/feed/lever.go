package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/jobhunter/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

type leverCategories struct {
	Team         string   `json:"team"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

type leverSalaryRange struct {
	Currency string  `json:"currency"`
	Interval string  `json:"interval"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// leverJob is one entry of the Lever postings array.
type leverJob struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	DescriptionPlain string            `json:"descriptionPlain"`
	Description      string            `json:"description"`
	Categories       leverCategories   `json:"categories"`
	CreatedAt        int64             `json:"createdAt"`
	HostedURL        string            `json:"hostedUrl"`
	SalaryRange      *leverSalaryRange `json:"salaryRange"`
}

// LeverSource fetches postings from a Lever public postings site.
type LeverSource struct {
	site         string
	companyName  string
	defaultScore int
	baseURL      string
	client       *http.Client
}

// NewLeverSource creates a source for one Lever site slug.
func NewLeverSource(site, companyName string, defaultScore int, client *http.Client) *LeverSource {
	return &LeverSource{
		site:         site,
		companyName:  companyName,
		defaultScore: clampScore(defaultScore),
		baseURL:      leverBaseURL,
		client:       client,
	}
}

func (s *LeverSource) FetchPostings(ctx context.Context) ([]model.JobPosting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", s.baseURL, s.site)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", s.site, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", s.site, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("lever fetch for %s", s.site),
		}
	}

	var jobs []leverJob
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", s.site, err)
	}

	scrapedAt := time.Now().UTC()
	postings := make([]model.JobPosting, 0, len(jobs))
	for _, lj := range jobs {
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		description := lj.DescriptionPlain
		if description == "" {
			description = extractText(lj.Description)
		} else {
			description = strings.Join(strings.Fields(description), " ")
		}

		p := model.JobPosting{
			ID:          "lever-" + s.site + "-" + lj.ID,
			Title:       lj.Text,
			Company:     s.companyName,
			Location:    location,
			Salary:      formatSalary(lj.SalaryRange),
			Description: description,
			MatchScore:  s.defaultScore,
			URL:         lj.HostedURL,
			ScrapedAt:   scrapedAt,
			Source:      "lever",
		}
		// createdAt is Unix milliseconds
		if lj.CreatedAt > 0 {
			p.ScrapedAt = time.UnixMilli(lj.CreatedAt).UTC()
		}
		postings = append(postings, p)
	}

	return postings, nil
}

// formatSalary renders a Lever salary range as "EUR 40000-55000 per-year-salary".
func formatSalary(r *leverSalaryRange) string {
	if r == nil || (r.Min == 0 && r.Max == 0) {
		return ""
	}
	var amount string
	switch {
	case r.Min > 0 && r.Max > 0 && r.Min != r.Max:
		amount = fmt.Sprintf("%.0f-%.0f", r.Min, r.Max)
	case r.Max > 0:
		amount = fmt.Sprintf("%.0f", r.Max)
	default:
		amount = fmt.Sprintf("%.0f", r.Min)
	}
	return strings.TrimSpace(strings.Join([]string{r.Currency, amount, r.Interval}, " "))
}
