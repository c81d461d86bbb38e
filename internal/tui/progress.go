// Package tui renders a live pass/fail/step progress view for `zentest
// run`, replacing the teacher's narrative adventure screens with a
// status board matching what a test run actually produces.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	healedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Italic(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).PaddingLeft(4)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")).MarginTop(1)
)

// TestStatus is one test's outcome as known so far.
type TestStatus int

const (
	StatusPending TestStatus = iota
	StatusRunning
	StatusPassed
	StatusFailed
	StatusHealed
)

// TestRow tracks one test's live status for the progress view.
type TestRow struct {
	Name       string
	Status     TestStatus
	StepCount  int
	LastAction string
	Reason     string
}

// StepMsg reports a new step for the named test.
type StepMsg struct {
	TestName   string
	ActionDesc string
}

// ResultMsg reports a test's terminal outcome.
type ResultMsg struct {
	TestName string
	Status   TestStatus
	Reason   string
}

// DoneMsg signals the whole suite has finished; the program exits after
// rendering the final frame.
type DoneMsg struct{}

// Model is the bubbletea model backing the progress view.
type Model struct {
	SuiteName string
	rows      []TestRow
	index     map[string]int
	done      bool
}

// NewModel seeds the progress view with every test name in run order.
func NewModel(suiteName string, testNames []string) Model {
	rows := make([]TestRow, len(testNames))
	index := make(map[string]int, len(testNames))
	for i, name := range testNames {
		rows[i] = TestRow{Name: name, Status: StatusPending}
		index[name] = i
	}
	return Model{SuiteName: suiteName, rows: rows, index: index}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case StepMsg:
		if i, ok := m.index[msg.TestName]; ok {
			m.rows[i].Status = StatusRunning
			m.rows[i].StepCount++
			m.rows[i].LastAction = msg.ActionDesc
		}
	case ResultMsg:
		if i, ok := m.index[msg.TestName]; ok {
			m.rows[i].Status = msg.Status
			m.rows[i].Reason = msg.Reason
		}
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" %s ", m.SuiteName)))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		b.WriteString(renderRow(row))
		b.WriteString("\n")
		if row.Status == StatusRunning && row.LastAction != "" {
			b.WriteString(stepStyle.Render(fmt.Sprintf("step %d: %s", row.StepCount, row.LastAction)))
			b.WriteString("\n")
		}
	}

	if m.done {
		b.WriteString(footerStyle.Render("done"))
	} else {
		b.WriteString(footerStyle.Render("ctrl+c to abort"))
	}
	return b.String()
}

func renderRow(row TestRow) string {
	switch row.Status {
	case StatusPassed:
		return passStyle.Render("✓ ") + row.Name
	case StatusHealed:
		return healedStyle.Render("✓ (healed) ") + row.Name
	case StatusFailed:
		line := failStyle.Render("✗ ") + row.Name
		if row.Reason != "" {
			line += stepStyle.Render(" — " + row.Reason)
		}
		return line
	case StatusRunning:
		return runningStyle.Render("▸ ") + row.Name
	default:
		return stepStyle.Render("· ") + row.Name
	}
}
