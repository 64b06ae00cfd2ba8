package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/amishk599/jobhunter/internal/model"
)

// filePosting is the JSON shape of a scraped posting export.
type filePosting struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Position    string `json:"position"` // older exports use position instead of title
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	MatchScore  int    `json:"match_score"`
	SourceURL   string `json:"source_url"`
	ScrapedAt   string `json:"scraped_at"`
}

// FileSource reads postings from a JSON array written by an external scraper.
type FileSource struct {
	name string
	path string
}

// NewFileSource returns a source reading the JSON export at path.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// FetchPostings re-reads the file on every call so a scraper can replace it
// between polls. Match scores are clamped to 0-100.
func (s *FileSource) FetchPostings(ctx context.Context) ([]model.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", s.path, err)
	}

	var raw []filePosting
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", s.path, err)
	}

	postings := make([]model.JobPosting, 0, len(raw))
	for _, fp := range raw {
		title := fp.Title
		if title == "" {
			title = fp.Position
		}
		p := model.JobPosting{
			ID:          fp.JobID,
			Title:       title,
			Company:     fp.Company,
			Location:    fp.Location,
			Salary:      fp.Salary,
			Description: extractText(fp.Description),
			MatchScore:  clampScore(fp.MatchScore),
			URL:         fp.SourceURL,
			Source:      s.name,
		}
		if fp.ScrapedAt != "" {
			if t, err := time.Parse(time.RFC3339, fp.ScrapedAt); err == nil {
				p.ScrapedAt = t
			}
		}
		postings = append(postings, p)
	}
	return postings, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
