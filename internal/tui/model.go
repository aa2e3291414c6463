// Package tui renders the progress of one panel in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
)

const tickInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Update is one message from the running panel: a state change or the
// outcome of one artifact download.
type Update struct {
	Event    *panel.Event
	Progress *download.Progress
}

// EventUpdate wraps a panel state change
func EventUpdate(e panel.Event) Update {
	return Update{Event: &e}
}

// ProgressUpdate wraps a download step
func ProgressUpdate(p download.Progress) Update {
	return Update{Progress: &p}
}

// Model is the bubbletea model rendering one running panel: a status
// line, the artifact progress bar and the elapsed time.
type Model struct {
	title       string
	updates     <-chan Update
	onInterrupt func()
	started     time.Time
	width       int
	frame       int

	state    panel.State
	notice   string
	done     int
	total    int
	failed   int
	lastFile string
	quitting bool
}

type doneMsg struct{}

type updateMsg Update

type tickMsg time.Time

// NewModel creates a model reading updates until the channel is closed.
// onInterrupt is called when the user presses ctrl+c.
func NewModel(title string, updates <-chan Update, onInterrupt func()) Model {
	return Model{
		title:       title,
		updates:     updates,
		onInterrupt: onInterrupt,
		started:     time.Now(),
		state:       panel.StateReady,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listenForUpdates(m.updates), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m = m.apply(Update(msg))
		return m, listenForUpdates(m.updates)
	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.onInterrupt != nil {
			m.onInterrupt()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) apply(u Update) Model {
	if u.Event != nil {
		m.state = u.Event.To
		m.notice = u.Event.Notice
	}
	if u.Progress != nil {
		m.done = u.Progress.Done
		m.total = u.Progress.Total
		m.lastFile = u.Progress.Item.FileName
		if !u.Progress.Item.OK() {
			m.failed++
		}
	}
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	lines := []string{
		titleStyle.Render(m.title),
		m.statusLine(),
	}

	if m.total > 0 {
		lines = append(lines,
			labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.done, m.total))+
				dimStyle.Render(fmt.Sprintf("  failed:%d  %s", m.failed, m.lastFile)),
			barStyle.Render(renderBar(m.barWidth(), m.ratio())),
		)
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	lines = append(lines, dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)))

	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	switch m.state {
	case panel.StateSubmitting:
		return labelStyle.Render(spinnerFrames[m.frame] + " Processing...")
	case panel.StateSucceeded:
		return successStyle.Render("✔ " + m.notice)
	case panel.StateFailed:
		return errorStyle.Render("✘ " + m.notice)
	default:
		if m.notice != "" {
			return warnStyle.Render(m.notice)
		}
		return dimStyle.Render(m.state.String())
	}
}

func (m Model) barWidth() int {
	if m.width <= 0 {
		return 40
	}
	width := int(math.Min(60, float64(m.width-10)))
	if width < 20 {
		width = 20
	}
	return width
}

func (m Model) ratio() float64 {
	if m.total == 0 {
		return 0
	}
	return math.Min(1, float64(m.done)/float64(m.total))
}

func listenForUpdates(updates <-chan Update) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}
