package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/amishk599/jobhunter/internal/model"
)

var defaultLetter = template.Must(template.New("letter").Parse(`Dear {{with .Company}}{{.}} {{end}}hiring team,

I am writing to apply for the {{.Title}} position{{if .Location}} in {{.Location}}{{end}}. I am excited about the opportunity to start my career at {{or .Company "your company"}} and to learn from an experienced team.

I am a fast learner, comfortable working with others and eager to take on responsibility. I would welcome the chance to discuss how I can contribute.

Kind regards,
{{.Applicant}}`))

// TemplateLetterWriter fills a fixed letter. It is used when ai.enabled is
// false and as the LLM fallback.
type TemplateLetterWriter struct {
	applicant string
}

// NewTemplateLetterWriter signs letters with applicant.
func NewTemplateLetterWriter(applicant string) *TemplateLetterWriter {
	if strings.TrimSpace(applicant) == "" {
		applicant = "Your name"
	}
	return &TemplateLetterWriter{applicant: applicant}
}

func (w *TemplateLetterWriter) Write(_ context.Context, posting model.JobPosting) (string, error) {
	data := struct {
		Title     string
		Company   string
		Location  string
		Applicant string
	}{
		Title:     orDefault(posting.Title, "open"),
		Company:   strings.TrimSpace(posting.Company),
		Location:  posting.Location,
		Applicant: w.applicant,
	}

	var buf bytes.Buffer
	if err := defaultLetter.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render letter: %w", err)
	}
	return buf.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
