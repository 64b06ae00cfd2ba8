package board

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobhunter/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerModel struct {
	postings []model.JobPosting
	cursor   int
	picked   map[int]bool
	done     bool // enter pressed; false means the user quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.postings)-1 {
				m.cursor++
			}
		case " ", "x":
			if len(m.postings) > 0 {
				m.picked[m.cursor] = !m.picked[m.cursor]
			}
		case "enter":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(fmt.Sprintf("Add to queue (%d selected)", m.count())))
	b.WriteByte('\n')

	if len(m.postings) == 0 {
		b.WriteString(pickerItemStyle.Render("(no eligible postings)") + "\n")
	}
	for i, p := range m.postings {
		box := "[ ]"
		if m.picked[i] {
			box = "[x]"
		}
		label := fmt.Sprintf("%s %3d  %s · %s", box, p.MatchScore, p.Title, p.Company)
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(pickerItemStyle.Render(label) + "\n")
		}
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  space toggle  enter add  q quit"))
	return b.String()
}

func (m pickerModel) count() int {
	n := 0
	for _, v := range m.picked {
		if v {
			n++
		}
	}
	return n
}

func (m pickerModel) selection() []model.JobPosting {
	if !m.done {
		return nil
	}
	var out []model.JobPosting
	for i, p := range m.postings {
		if m.picked[i] {
			out = append(out, p)
		}
	}
	return out
}

// RunPostingPicker lets the user tick postings from the pool. It returns the
// chosen postings in pool order, or nil if the user quit.
func RunPostingPicker(postings []model.JobPosting) ([]model.JobPosting, error) {
	m := pickerModel{
		postings: postings,
		picked:   make(map[int]bool),
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	return result.(pickerModel).selection(), nil
}
