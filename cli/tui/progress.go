package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashstone-io/testpool/metrics"
)

// refreshInterval is how often the view redraws from the collector.
const refreshInterval = 200 * time.Millisecond

// Model is a live view over a run's metrics snapshot. It polls the
// collector on a timer and redraws; it never mutates the run itself.
type Model struct {
	total   int
	mtr     *metrics.Collector
	program *tea.Program
}

// New creates a Model for a run of total executables against mtr.
func New(total int, mtr *metrics.Collector) *Model {
	return &Model{total: total, mtr: mtr}
}

// Run starts the Bubble Tea program and blocks until Stop is called
// or the user quits. Meant to be run on its own goroutine.
func (m *Model) Run() {
	p := tea.NewProgram(progressModel{total: m.total, mtr: m.mtr})
	m.program = p
	_, _ = p.Run()
}

// Stop ends the live view.
func (m *Model) Stop() {
	if m.program != nil {
		m.program.Quit()
	}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type progressModel struct {
	total int
	mtr   *metrics.Collector
}

func (p progressModel) Init() tea.Cmd {
	return tickCmd()
}

func (p progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return p, tea.Quit
		}
	case tickMsg:
		return p, tickCmd()
	}
	return p, nil
}

// state classifies a process pool run's overall progress for the
// title bar color: idle before anything spawns, running while work
// remains, succeeded once the count of terminated children (any
// outcome, stopped and unknown included) reaches the total, failed
// if any child exited nonzero or was signaled.
func (p progressModel) state(snap metrics.Snapshot) string {
	exited := snap.ChildExitedOK + snap.ChildExitedNonzero + snap.ChildSignaled + snap.ChildStopped + snap.ChildUnknown
	switch {
	case snap.ChildExitedNonzero > 0 || snap.ChildSignaled > 0:
		return "failed"
	case p.total > 0 && exited >= int64(p.total):
		return "succeeded"
	case snap.SpawnSuccess > 0:
		return "running"
	default:
		return "idle"
	}
}

func statBox(label string, value int64) string {
	return StatBoxStyle.Render(
		StatLabelStyle.Render(label) + "\n" + StatValueStyle.Render(fmt.Sprintf("%d", value)),
	)
}

func (p progressModel) View() string {
	snap := p.mtr.Snapshot()
	exited := snap.ChildExitedOK + snap.ChildExitedNonzero + snap.ChildSignaled + snap.ChildStopped + snap.ChildUnknown
	failed := snap.ChildExitedNonzero + snap.ChildSignaled

	state := p.state(snap)
	title := StateStyle(state).Render(fmt.Sprintf("testpool run — %s", state))

	boxes := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("spawned", snap.SpawnSuccess),
		statBox("exited", exited),
		statBox("failed", failed),
	)

	body := strings.Join([]string{TitleStyle.Render(title), boxes}, "\n")
	return BoxStyle.Render(body) + "\n" + HelpStyle.Render(fmt.Sprintf("%d/%d total — press q to hide (run continues)", exited, p.total))
}
