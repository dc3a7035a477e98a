// Package tui renders a live view of a running duplicate search.
package tui

import (
	"fmt"
	"go-local-duplicates/internal/domain/entities"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// snapshotMsg carries one progress snapshot from the operation
type snapshotMsg entities.ProgressSnapshot

// finishedMsg is sent when the snapshot channel closes
type finishedMsg struct{}

type keyMap struct {
	Cancel key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Cancel: key.NewBinding(
			key.WithKeys("c", "esc"),
			key.WithHelp("c", "cancel search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "cancel and quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Cancel, k.Quit}, {k.Help}}
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// Model follows one operation through its snapshot channel. Group totals
// are read from the live collection on every snapshot.
type Model struct {
	root      string
	snapshots <-chan entities.ProgressSnapshot
	results   *entities.MatchCollection
	cancel    func()

	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap

	snap       entities.ProgressSnapshot
	groups     int
	files      int
	reclaim    int64
	started    time.Time
	finished   bool
	cancelling bool
	width      int
}

// New creates a model. cancel requests cancellation of the operation.
func New(root string, snapshots <-chan entities.ProgressSnapshot, results *entities.MatchCollection, cancel func()) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	return Model{
		root:      root,
		snapshots: snapshots,
		results:   results,
		cancel:    cancel,
		spinner:   sp,
		bar:       progress.New(progress.WithDefaultGradient()),
		help:      help.New(),
		keys:      newKeyMap(),
		started:   time.Now(),
	}
}

// waitForSnapshot blocks on the channel until the next snapshot or its close
func waitForSnapshot(ch <-chan entities.ProgressSnapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return finishedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.snapshots))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 80)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snap = entities.ProgressSnapshot(msg)
		m.refreshTotals()
		return m, waitForSnapshot(m.snapshots)

	case finishedMsg:
		m.finished = true
		m.snap.Complete = true
		m.refreshTotals()
		return m, tea.Quit

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.requestCancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Cancel):
			m.requestCancel()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *Model) requestCancel() {
	if m.cancelling || m.finished {
		return
	}
	m.cancelling = true
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) refreshTotals() {
	if m.results == nil {
		return
	}
	m.groups = m.results.Len()
	m.files = m.results.FileCount()
	m.reclaim = m.results.DuplicatesSize()
}

// Cancelled reports whether the user asked to stop the search
func (m Model) Cancelled() bool {
	return m.cancelling
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("dupfind"))
	b.WriteString(" ")
	b.WriteString(mutedStyle.Render(m.root))
	b.WriteString("\n\n")

	state := m.spinner.View() + " searching"
	switch {
	case m.finished && m.cancelling:
		state = warningStyle.Render("cancelled, partial results")
	case m.finished:
		state = titleStyle.Render("done")
	case m.cancelling:
		state = m.spinner.View() + warningStyle.Render(" cancelling...")
	}
	b.WriteString(state)
	b.WriteString("\n")

	b.WriteString(m.bar.ViewAs(m.snap.Percentage() / 100))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(truncate(m.snap.Message, max(m.width-4, 40))))
	b.WriteString("\n\n")

	b.WriteString(statusStyle.Render(fmt.Sprintf("%d groups · %d files · %s reclaimable · %s",
		m.groups, m.files, humanize.IBytes(uint64(m.reclaim)),
		time.Since(m.started).Round(time.Second))))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return boxStyle.Render(b.String()) + "\n"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

// Run shows the model until the operation finishes or the user quits
func Run(m Model) (Model, error) {
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}
