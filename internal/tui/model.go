package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pixresize/internal/processor"
)

type Model struct {
	updates    <-chan processor.ProgressUpdate
	cancel     context.CancelFunc
	started    time.Time
	width      int
	total      int
	completed  int
	failed     int
	degraded   int
	last       string
	cancelling bool
	quitting   bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// NewModel shows progress for a batch of total files. Pressing q or ctrl+c
// calls cancel; the view keeps draining updates until the channel closes.
func NewModel(updates <-chan processor.ProgressUpdate, total int, cancel context.CancelFunc) Model {
	return Model{updates: updates, cancel: cancel, total: total, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		if !msg.Result.OK() {
			m.failed++
		}
		if msg.Result.MetadataDegraded {
			m.degraded++
		}
		m.last = msg.Result.Display
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.completed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("pixresize"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.completed, m.total)) + dimStyle.Render(fmt.Sprintf("  failed:%d  metadata dropped:%d", m.failed, m.degraded)),
		dimStyle.Render("Last: " + lastOrDash(m.last)),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}
	if m.cancelling {
		lines = append(lines, warnStyle.Render("Cancelling: finishing images already in progress..."))
	} else {
		lines = append(lines, dimStyle.Render("q to cancel"))
	}

	return strings.Join(lines, "\n")
}

func lastOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
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

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorSuccess)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(ColorWarn)
)
