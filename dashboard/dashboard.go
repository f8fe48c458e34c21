// Package dashboard implements a terminal live-status view over a set of
// concurrently-running orchestrator loops, satisfying the coordinator's
// Dashboard boundary. It polls each loop's status on a tick rather than
// being pushed events, since the dashboard contract is read-only and
// fire-and-forget.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/relay-loop/ralph/status"
)

const tickInterval = 500 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	rowStyle    = lipgloss.NewStyle().Padding(0, 1)
	stateStyles = map[status.State]lipgloss.Style{
		status.StateStarting: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		status.StateParsing:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		status.StateRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		status.StateComplete: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		status.StateFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		status.StateStopped:  lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
	}
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitForDone returns a tea.Cmd that blocks until ctx is cancelled, then
// asks the program to quit — apart from the user's quit key, the
// dashboard's exit is driven by the coordinator's cancellation, never by its
// own timers.
func waitForDone(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return tea.Quit()
	}
}

// model is the bubbletea Model rendering every loop's latest snapshot.
type model struct {
	ctx       context.Context
	statuses  map[string]*status.Status
	snapshots []status.Snapshot
}

func newModel(ctx context.Context, statuses map[string]*status.Status) model {
	return model{ctx: ctx, statuses: statuses, snapshots: collectSnapshots(statuses)}
}

func collectSnapshots(statuses map[string]*status.Status) []status.Snapshot {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]status.Snapshot, 0, len(names))
	for _, name := range names {
		out = append(out, statuses[name].Snapshot())
	}
	return out
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForDone(m.ctx))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.snapshots = collectSnapshots(m.statuses)
		return m, tickCmd()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-10s %6s %-30s %s", "PRD", "STATE", "DONE", "CURRENT TASK", "ITER")))
	b.WriteString("\n")

	for _, s := range m.snapshots {
		style := stateStyles[s.State]
		line := fmt.Sprintf("%-20s %-10s %3d/%-2d %-30s %4d", truncate(s.Name, 20), s.State, s.Completed, s.Total, truncate(s.CurrentTask, 30), s.Iteration)
		b.WriteString(rowStyle.Render(style.Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\nq to quit (loops keep running)\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// Run implements coordinator.Dashboard: it renders every loop's live status
// until ctx is cancelled, then returns. A program error is non-fatal — the
// dashboard is an observability aid, never a condition the loops depend on.
func Run(ctx context.Context, statuses map[string]*status.Status) {
	p := tea.NewProgram(newModel(ctx, statuses), tea.WithContext(ctx))
	_, _ = p.Run()
}
