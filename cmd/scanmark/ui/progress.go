// Package ui holds the terminal surface for batch runs: a progress bar fed
// by pipeline page events.
package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PageMsg reports one resolved page.
type PageMsg struct {
	Done  int
	Total int
	Path  string
}

// DoneMsg ends the progress display.
type DoneMsg struct{}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	pathStyle  = lipgloss.NewStyle().Faint(true)
)

// ProgressModel renders batch progress.
type ProgressModel struct {
	bar   progress.Model
	done  int
	total int
	path  string
}

// NewProgressModel creates the progress display.
func NewProgressModel() ProgressModel {
	return ProgressModel{bar: progress.New(progress.WithDefaultGradient())}
}

// Init initializes the model.
func (m ProgressModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		return m, nil

	case PageMsg:
		m.done = msg.Done
		m.total = msg.Total
		m.path = msg.Path
		if msg.Total == 0 {
			return m, nil
		}
		return m, m.bar.SetPercent(float64(msg.Done) / float64(msg.Total))

	case DoneMsg:
		return m, tea.Sequence(m.bar.SetPercent(1), tea.Quit)

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// View renders the bar and the page being worked on.
func (m ProgressModel) View() string {
	header := labelStyle.Render(fmt.Sprintf("resolving pages %d/%d", m.done, m.total))
	line := ""
	if m.path != "" {
		line = pathStyle.Render(filepath.Base(m.path))
	}
	return header + "\n" + m.bar.View() + "\n" + line + "\n"
}
