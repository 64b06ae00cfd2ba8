package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobhunter/internal/model"
)

// Lines per item in a list (title + subtitle + blank separator).
const itemHeight = 3

const timeLayout = "2006-01-02 15:04"

type listItem struct {
	title    string
	subtitle string
}

func applicationItems(apps []model.Application) []listItem {
	items := make([]listItem, len(apps))
	for i, a := range apps {
		sub := fmt.Sprintf("%s · %s", a.Company, statusText(a.Status))
		if a.ApplicationSentAt != nil {
			sub += " · sent " + a.ApplicationSentAt.Local().Format(timeLayout)
		}
		items[i] = listItem{title: a.Position, subtitle: sub}
	}
	return items
}

func messageItems(msgs []model.InboxMessage) []listItem {
	items := make([]listItem, len(msgs))
	for i, m := range msgs {
		items[i] = listItem{
			title:    m.Subject,
			subtitle: fmt.Sprintf("%s · %s · %s", badge(m.StatusExtracted), m.From, m.ReceivedAt.Local().Format(timeLayout)),
		}
	}
	return items
}

func renderItems(items []listItem, cursor int, empty string) string {
	if len(items) == 0 {
		return "  " + empty
	}

	var b strings.Builder
	for i, it := range items {
		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(it.title))
		b.WriteByte('\n')
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(it.subtitle))
		b.WriteByte('\n')

		if i < len(items)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func statusText(s model.Status) string {
	switch s {
	case model.StatusCart:
		return "queued"
	case model.StatusApplied:
		return "waiting for response"
	case model.StatusInterviewRequested:
		return "assignment requested"
	case model.StatusInterviewScheduled:
		return "interview scheduled"
	case model.StatusOfferReceived:
		return "offer received"
	case model.StatusRejected:
		return "not selected"
	default:
		return string(s)
	}
}

func badge(s model.Status) string {
	label := s.Label()
	if st, ok := badgeStyles[label]; ok {
		return st.Render("[" + label + "]")
	}
	return "[" + label + "]"
}

type field struct {
	label string
	value string
}

func renderFields(fields []field) string {
	var b strings.Builder
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b.WriteString(detailLabelStyle.Render(f.label))
		b.WriteString(f.value)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderApplication(a model.Application, width int) string {
	var b strings.Builder
	b.WriteString(renderFields([]field{
		{"Position", a.Position},
		{"Company", a.Company},
		{"Status", statusText(a.Status)},
		{"Job ID", a.JobID},
		{"Queued", a.CreatedAt.Local().Format(timeLayout)},
		{"Sent", fmtTime(a.ApplicationSentAt)},
		{"Last Update", fmtTime(a.LastStatusUpdate)},
	}))
	if a.Detail != nil && a.Detail.Message != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Latest ", width) + "\n\n")
		b.WriteString(bodyStyle.Render(wordWrap(a.Detail.Message, width)) + "\n")
	}
	return b.String()
}

func renderMessage(m model.InboxMessage, width int) string {
	var b strings.Builder
	b.WriteString(renderFields([]field{
		{"Subject", m.Subject},
		{"From", m.From},
		{"To", m.To},
		{"Received", m.ReceivedAt.Local().Format(timeLayout)},
		{"Label", badge(m.StatusExtracted)},
	}))
	b.WriteByte('\n')
	b.WriteString(divider("── Message ", width) + "\n\n")
	for _, para := range strings.Split(m.Body, "\n") {
		b.WriteString(bodyStyle.Render(wordWrap(para, width)) + "\n")
	}
	return b.String()
}

func renderTabs(active tab, counts [tabCount]int) string {
	var parts []string
	for t := tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s (%d)", t+1, t, counts[t])
		if t == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func divider(label string, width int) string {
	fill := strings.Repeat("─", max(width-len(label), 3))
	return dividerStyle.Render(label + fill)
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
