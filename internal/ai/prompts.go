package ai

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed prompts/application_letter.md
var applicationLetterPromptRaw string

//go:embed prompts/match_score.md
var matchScorePromptRaw string

// ApplicationLetterTemplate is the parsed prompt for application letters.
var ApplicationLetterTemplate = template.Must(template.New("application_letter").Parse(applicationLetterPromptRaw))

// MatchScoreTemplate is the parsed prompt for match scoring. It renders a
// scorePrompt.
var MatchScoreTemplate = template.Must(template.New("match_score").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(matchScorePromptRaw))
