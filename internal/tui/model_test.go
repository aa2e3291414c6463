package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-ops/internal/download"
	"github.com/a3tai/mcp-pdf-ops/internal/panel"
)

func TestModel_AppliesUpdates(t *testing.T) {
	updates := make(chan Update, 4)
	m := NewModel("Split PDF", updates, nil)

	next, cmd := m.Update(updateMsg(EventUpdate(panel.Event{From: panel.StateReady, To: panel.StateSubmitting})))
	require.NotNil(t, cmd, "model keeps listening")
	m = next.(Model)
	assert.Equal(t, panel.StateSubmitting, m.state)
	assert.Contains(t, m.View(), "Processing...")

	next, _ = m.Update(updateMsg(ProgressUpdate(download.Progress{
		Done:  1,
		Total: 2,
		Item:  download.Item{FileName: "split_1.pdf", Path: "/out/split_1.pdf"},
	})))
	m = next.(Model)
	next, _ = m.Update(updateMsg(ProgressUpdate(download.Progress{
		Done:  2,
		Total: 2,
		Item:  download.Item{FileName: "split_2.pdf", Err: errors.New("boom")},
	})))
	m = next.(Model)

	assert.Equal(t, 2, m.done)
	assert.Equal(t, 1, m.failed)
	view := m.View()
	assert.Contains(t, view, "Files: 2/2")
	assert.Contains(t, view, "failed:1")
	assert.Contains(t, view, "["+strings.Repeat("=", 40)+"]")

	next, _ = m.Update(updateMsg(EventUpdate(panel.Event{
		From:   panel.StateSubmitting,
		To:     panel.StateSucceeded,
		Notice: "PDF split successfully",
	})))
	m = next.(Model)
	assert.Contains(t, m.View(), "PDF split successfully")
}

func TestModel_QuitsWhenUpdatesClose(t *testing.T) {
	updates := make(chan Update)
	close(updates)

	m := NewModel("Merge PDFs", updates, nil)
	msg := listenForUpdates(updates)()
	assert.Equal(t, doneMsg{}, msg)

	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.(Model).View())
}

func TestModel_Interrupt(t *testing.T) {
	interrupted := false
	m := NewModel("Compress PDF", make(chan Update), func() { interrupted = true })

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, interrupted)
}

func TestModel_BarWidth(t *testing.T) {
	m := NewModel("x", nil, nil)
	assert.Equal(t, 40, m.barWidth())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 200})
	assert.Equal(t, 60, next.(Model).barWidth())

	next, _ = m.Update(tea.WindowSizeMsg{Width: 15})
	assert.Equal(t, 20, next.(Model).barWidth())
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[     ]", renderBar(5, 0))
	assert.Equal(t, "[==   ]", renderBar(5, 0.4))
	assert.Equal(t, "[=====]", renderBar(5, 1.5))
}
