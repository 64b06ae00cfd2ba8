package ai

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/jobhunter/internal/model"
)

// LetterWriter produces the application email shown before a user applies.
type LetterWriter interface {
	Write(ctx context.Context, posting model.JobPosting) (string, error)
}

// maxDescriptionRunes bounds the description sent to the LLM.
const maxDescriptionRunes = 6000

// LLMLetterWriter writes letters with an LLM and falls back to a template
// when the posting has no description or the call fails.
type LLMLetterWriter struct {
	provider LLMProvider
	tmpl     *template.Template
	fallback LetterWriter
	logger   *slog.Logger
}

// NewLLMLetterWriter creates a writer backed by provider.
func NewLLMLetterWriter(provider LLMProvider, tmpl *template.Template, fallback LetterWriter, logger *slog.Logger) *LLMLetterWriter {
	return &LLMLetterWriter{
		provider: provider,
		tmpl:     tmpl,
		fallback: fallback,
		logger:   logger,
	}
}

func (w *LLMLetterWriter) Write(ctx context.Context, posting model.JobPosting) (string, error) {
	if strings.TrimSpace(posting.Description) == "" {
		return w.fallback.Write(ctx, posting)
	}

	data := posting
	if r := []rune(data.Description); len(r) > maxDescriptionRunes {
		data.Description = string(r[:maxDescriptionRunes])
	}

	var prompt bytes.Buffer
	if err := w.tmpl.Execute(&prompt, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := w.provider.Complete(ctx, prompt.String())
	if err != nil {
		w.logger.Warn("letter generation failed, using template", "job_id", posting.ID, "error", err)
		return w.fallback.Write(ctx, posting)
	}

	letter := strings.TrimSpace(raw)
	if letter == "" {
		return w.fallback.Write(ctx, posting)
	}
	return letter, nil
}
