package board

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobhunter/internal/lifecycle"
	"github.com/amishk599/jobhunter/internal/model"
)

// Engine is the slice of the lifecycle engine the board drives.
type Engine interface {
	Queue(ctx context.Context, userID string) ([]model.Application, error)
	Applications(ctx context.Context, userID string) ([]model.Application, error)
	Rejected(ctx context.Context, userID string) ([]model.Application, error)
	Inbox(ctx context.Context, userID string) ([]model.InboxMessage, error)
	Dequeue(ctx context.Context, id string) error
	SubmitBatch(ctx context.Context, ids []string) (lifecycle.BatchResult, error)
}

type tab int

const (
	tabQueue tab = iota
	tabApplications
	tabInbox
	tabRejected
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabQueue:
		return "Queue"
	case tabApplications:
		return "Applications"
	case tabInbox:
		return "Inbox"
	default:
		return "Learning"
	}
}

// Snapshot is everything the board shows at one point in time.
type Snapshot struct {
	Queue        []model.Application
	Applications []model.Application
	Rejected     []model.Application
	Inbox        []model.InboxMessage
}

// LoadSnapshot reads all four views for userID.
func LoadSnapshot(ctx context.Context, e Engine, userID string) (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Queue, err = e.Queue(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	if s.Applications, err = e.Applications(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	if s.Rejected, err = e.Rejected(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	if s.Inbox, err = e.Inbox(ctx, userID); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// awaiting reports whether any submitted application still waits for its response.
func (s Snapshot) awaiting() bool {
	for _, a := range s.Applications {
		if a.Status == model.StatusApplied {
			return true
		}
	}
	return false
}

func (s Snapshot) counts() [tabCount]int {
	return [tabCount]int{len(s.Queue), len(s.Applications), len(s.Inbox), len(s.Rejected)}
}

const (
	refreshInterval = 2 * time.Second
	actionTimeout   = 30 * time.Second
)

type snapshotMsg struct {
	snap Snapshot
	err  error
}

type actionDoneMsg struct {
	status string
	err    error
}

type refreshTickMsg struct{}

type boardModel struct {
	engine Engine
	userID string

	snap    Snapshot
	active  tab
	cursors [tabCount]int

	list     viewport.Model
	detail   viewport.Model
	inDetail bool

	width  int
	height int
	ready  bool

	status  string
	busy    bool
	polling bool // a refresh tick is pending
}

func newBoardModel(e Engine, userID string, snap Snapshot) boardModel {
	return boardModel{engine: e, userID: userID, snap: snap, polling: snap.awaiting()}
}

func (m boardModel) Init() tea.Cmd {
	if m.polling {
		return m.scheduleRefresh()
	}
	return nil
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case snapshotMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.snap = msg.snap
		m.clampCursors()
		m.recalcContent()
		if m.snap.awaiting() && !m.polling {
			m.polling = true
			return m, m.scheduleRefresh()
		}
		return m, nil

	case refreshTickMsg:
		m.polling = false
		return m, m.loadCmd()

	case actionDoneMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, m.loadCmd()

	case tea.KeyMsg:
		if m.inDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m boardModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		m.active = (m.active + 1) % tabCount
	case "shift+tab", "left", "h":
		m.active = (m.active + tabCount - 1) % tabCount
	case "1", "2", "3", "4":
		m.active = tab(msg.String()[0] - '1')
	case "up", "k":
		m.cursors[m.active] = clamp(m.cursors[m.active]-1, 0, max(m.itemCount()-1, 0))
	case "down", "j":
		m.cursors[m.active] = clamp(m.cursors[m.active]+1, 0, max(m.itemCount()-1, 0))
	case "enter":
		if m.itemCount() > 0 {
			m.inDetail = true
			m.detail = newViewport(m.width-4, m.height-4)
			m.detail.SetContent(m.renderDetail())
		}
		return m, nil
	case "r":
		return m, m.loadCmd()
	case "x":
		if m.active == tabQueue && len(m.snap.Queue) > 0 && !m.busy {
			m.busy = true
			return m, m.dequeueCmd(m.snap.Queue[m.cursors[tabQueue]])
		}
		return m, nil
	case "a":
		if m.active == tabQueue && len(m.snap.Queue) > 0 && !m.busy {
			m.busy = true
			m.status = "applying..."
			return m, m.submitCmd(m.snap.Queue)
		}
		return m, nil
	}
	m.recalcContent()
	return m, nil
}

func (m boardModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.inDetail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m boardModel) loadCmd() tea.Cmd {
	e, user := m.engine, m.userID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		snap, err := LoadSnapshot(ctx, e, user)
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m boardModel) scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m boardModel) dequeueCmd(app model.Application) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := e.Dequeue(ctx, app.ID); err != nil {
			return actionDoneMsg{err: fmt.Errorf("remove %s: %w", app.Position, err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("removed %s at %s from queue", app.Position, app.Company)}
	}
}

func (m boardModel) submitCmd(queue []model.Application) tea.Cmd {
	e := m.engine
	ids := lifecycle.SubmissionOrder(queue)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		res, err := e.SubmitBatch(ctx, ids)
		return actionDoneMsg{status: summarize(res), err: err}
	}
}

func summarize(res lifecycle.BatchResult) string {
	applied := len(res.IDs(lifecycle.OutcomeUpdated))
	failed := len(res.Failed())
	s := fmt.Sprintf("applied to %d jobs", applied)
	if failed > 0 {
		s += fmt.Sprintf(", %d failed (still queued)", failed)
	}
	if applied > 0 {
		s += ", responses arrive shortly"
	}
	return s
}

func (m boardModel) itemCount() int {
	switch m.active {
	case tabQueue:
		return len(m.snap.Queue)
	case tabApplications:
		return len(m.snap.Applications)
	case tabInbox:
		return len(m.snap.Inbox)
	default:
		return len(m.snap.Rejected)
	}
}

func (m *boardModel) clampCursors() {
	counts := m.snap.counts()
	for t := tab(0); t < tabCount; t++ {
		m.cursors[t] = clamp(m.cursors[t], 0, max(counts[t]-1, 0))
	}
}

func newViewport(w, h int) viewport.Model {
	return viewport.New(max(w, 20), max(h, 5))
}

func (m *boardModel) recalcLayout() {
	// Tabs (1 line) + border top/bottom (2) + status bar (1).
	if !m.ready {
		m.list = newViewport(m.width-2, m.height-4)
		m.ready = true
	} else {
		m.list.Width = max(m.width-2, 20)
		m.list.Height = max(m.height-4, 5)
	}
	if m.inDetail {
		m.detail.Width = max(m.width-4, 20)
		m.detail.Height = max(m.height-4, 5)
		m.detail.SetContent(m.renderDetail())
	}
	m.recalcContent()
}

func (m *boardModel) recalcContent() {
	if !m.ready {
		return
	}
	m.list.SetContent(m.renderList())

	top := m.cursors[m.active] * itemHeight
	bottom := top + itemHeight - 1
	if top < m.list.YOffset {
		m.list.SetYOffset(top)
	} else if bottom >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(bottom - m.list.Height + 1)
	}
}

func (m boardModel) renderList() string {
	cursor := m.cursors[m.active]
	switch m.active {
	case tabQueue:
		return renderItems(applicationItems(m.snap.Queue), cursor, "(queue is empty, add postings with `jobhunter queue add`)")
	case tabApplications:
		return renderItems(applicationItems(m.snap.Applications), cursor, "(no applications yet)")
	case tabInbox:
		return renderItems(messageItems(m.snap.Inbox), cursor, "(inbox is empty)")
	default:
		return renderItems(applicationItems(m.snap.Rejected), cursor, "(nothing here, keep going)")
	}
}

func (m boardModel) renderDetail() string {
	width := max(m.width-8, 20)
	cursor := m.cursors[m.active]
	switch m.active {
	case tabQueue:
		return renderApplication(m.snap.Queue[cursor], width)
	case tabApplications:
		return renderApplication(m.snap.Applications[cursor], width)
	case tabInbox:
		return renderMessage(m.snap.Inbox[cursor], width)
	default:
		return renderApplication(m.snap.Rejected[cursor], width)
	}
}

func (m boardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.inDetail {
		title := detailTitleStyle.Render(m.active.String())
		content := activeBorderStyle.Width(m.width - 2).Render(m.detail.View())
		bar := statusBarStyle.Width(m.width).Render(" esc/backspace back  ↑/↓ scroll  q quit")
		return title + "\n" + content + "\n" + bar
	}

	tabs := renderTabs(m.active, m.snap.counts())
	content := activeBorderStyle.Width(m.list.Width).Render(m.list.View())

	hints := " ←/→/Tab switch  ↑/↓ cursor  Enter open  r refresh  q quit"
	if m.active == tabQueue {
		hints = " a apply all  x remove " + hints
	}
	statusText := hints
	if m.status != "" {
		statusText = " " + m.status + "  |" + hints
	}
	bar := statusBarStyle.Width(m.width).Render(statusText)
	if m.busy {
		bar = statusBarStyle.Width(m.width).Render(" working..." + hints)
	}

	return tabs + "\n" + content + "\n" + bar
}

// Run launches the board in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, e Engine, userID string) error {
	snap, err := RunLoader("Loading your board", func(ctx context.Context) (Snapshot, error) {
		return LoadSnapshot(ctx, e, userID)
	})
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}

	p := tea.NewProgram(newBoardModel(e, userID, snap), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
