package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/jobhunter/internal/model"
)

// Profile describes the candidate postings are scored against.
type Profile struct {
	Summary string
	Skills  []string
	Tools   []string
}

// Empty reports whether p has nothing to score against.
func (p Profile) Empty() bool {
	return strings.TrimSpace(p.Summary) == "" && len(p.Skills) == 0 && len(p.Tools) == 0
}

// scorePrompt is the data MatchScoreTemplate renders.
type scorePrompt struct {
	Profile
	Posting model.JobPosting
}

// LLMMatchScorer fills MatchScore by asking an LLM how well a posting's
// description fits the candidate profile.
type LLMMatchScorer struct {
	provider LLMProvider
	tmpl     *template.Template
	profile  Profile
	logger   *slog.Logger
}

// NewLLMMatchScorer creates a scorer for profile backed by provider.
func NewLLMMatchScorer(provider LLMProvider, tmpl *template.Template, profile Profile, logger *slog.Logger) *LLMMatchScorer {
	return &LLMMatchScorer{
		provider: provider,
		tmpl:     tmpl,
		profile:  profile,
		logger:   logger,
	}
}

// Score returns posting with MatchScore set from the LLM's rating. The
// posting comes back unchanged when it has no description, and unchanged
// along with an error when the call or the reply fails.
func (s *LLMMatchScorer) Score(ctx context.Context, posting model.JobPosting) (model.JobPosting, error) {
	if strings.TrimSpace(posting.Description) == "" {
		return posting, nil
	}

	data := scorePrompt{Profile: s.profile, Posting: posting}
	if r := []rune(data.Posting.Description); len(r) > maxDescriptionRunes {
		data.Posting.Description = string(r[:maxDescriptionRunes])
	}

	var prompt bytes.Buffer
	if err := s.tmpl.Execute(&prompt, data); err != nil {
		return posting, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := s.provider.Complete(ctx, prompt.String())
	if err != nil {
		return posting, fmt.Errorf("llm complete: %w", err)
	}

	score, reason, err := parseScore(raw)
	if err != nil {
		return posting, fmt.Errorf("parse score: %w", err)
	}

	s.logger.Debug("scored posting", "job_id", posting.ID, "score", score, "reason", reason)
	posting.MatchScore = score
	return posting, nil
}

type rawScore struct {
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
}

// parseScore reads the {"score", "reason"} object out of raw. Text around
// the object, such as a markdown fence, is ignored. The score is clamped
// to 0..100.
func parseScore(raw string) (int, string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return 0, "", errors.New("no JSON object in reply")
	}

	var rs rawScore
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rs); err != nil {
		return 0, "", fmt.Errorf("unmarshal score JSON: %w", err)
	}
	if rs.Score == nil {
		return 0, "", errors.New("reply has no score")
	}

	score := int(*rs.Score + 0.5)
	switch {
	case *rs.Score < 0:
		score = 0
	case score > 100:
		score = 100
	}
	return score, rs.Reason, nil
}
