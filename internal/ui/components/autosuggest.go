package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// AutoSuggestModel handles text input with auto-suggestions
type AutoSuggestModel struct {
	textInput     textinput.Model
	suggestions   []string
	filteredSugs  []string
	selectedSug   int
	showSugs      bool
	prompt        string
	placeholder   string
	defaultValue  string
	finished      bool
	cancelled     bool
	width         int
	maxSugs       int

	// Styles
	promptStyle     lipgloss.Style
	inputStyle      lipgloss.Style
	suggestStyle    lipgloss.Style
	selectedSugStyle lipgloss.Style
	helpStyle       lipgloss.Style
}

// NewAutoSuggestModel creates a new auto-suggest input model
func NewAutoSuggestModel(prompt, placeholder, defaultValue string, suggestions []string) *AutoSuggestModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.SetValue(defaultValue)
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	return &AutoSuggestModel{
		textInput:    ti,
		suggestions:  suggestions,
		prompt:       prompt,
		placeholder:  placeholder,
		defaultValue: defaultValue,
		width:        80,
		maxSugs:      5,

		// Default styles
		promptStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1),
		
		inputStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		
		suggestStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(2),
		
		selectedSugStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1),
		
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1),
	}
}

// GetValue returns the current input value
func (m *AutoSuggestModel) GetValue() string {
	value := strings.TrimSpace(m.textInput.Value())
	if value == "" {
		return m.defaultValue
	}
	return value
}

// IsFinished returns true if input is complete
func (m *AutoSuggestModel) IsFinished() bool {
	return m.finished
}

// IsCancelled returns true if input was cancelled
func (m *AutoSuggestModel) IsCancelled() bool {
	return m.cancelled
}

// Init initializes the auto-suggest model
func (m AutoSuggestModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles auto-suggest model updates
func (m AutoSuggestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
			
		case "enter":
			// If a suggestion is selected, use it
			if m.showSugs && len(m.filteredSugs) > 0 && m.selectedSug >= 0 && m.selectedSug < len(m.filteredSugs) {
				m.textInput.SetValue(m.filteredSugs[m.selectedSug])
				m.showSugs = false
				m.selectedSug = 0
			} else {
				// Finish input
				m.finished = true
				return m, tea.Quit
			}
			
		case "tab":
			// Autocomplete with first suggestion
			if m.showSugs && len(m.filteredSugs) > 0 {
				m.textInput.SetValue(m.filteredSugs[0])
				m.showSugs = false
				m.selectedSug = 0
			}
			
		case "up":
			if m.showSugs && len(m.filteredSugs) > 0 {
				if m.selectedSug > 0 {
					m.selectedSug--
				}
			}
			
		case "down":
			if m.showSugs && len(m.filteredSugs) > 0 {
				if m.selectedSug < len(m.filteredSugs)-1 {
					m.selectedSug++
				}
			}
			
		default:
			// Update text input and filter suggestions
			m.textInput, cmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}
		
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textInput.Width = msg.Width - 4
		
	default:
		m.textInput, cmd = m.textInput.Update(msg)
	}
	
	return m, cmd
}

// updateSuggestions filters suggestions based on current input
func (m *AutoSuggestModel) updateSuggestions() {
	input := strings.ToLower(strings.TrimSpace(m.textInput.Value()))
	
	if input == "" {
		m.showSugs = false
		m.filteredSugs = nil
		m.selectedSug = 0
		return
	}
	
	// Filter suggestions
	var filtered []string
	for _, suggestion := range m.suggestions {
		if strings.Contains(strings.ToLower(suggestion), input) {
			filtered = append(filtered, suggestion)
			if len(filtered) >= m.maxSugs {
				break
			}
		}
	}
	
	m.filteredSugs = filtered
	m.showSugs = len(filtered) > 0 && input != ""
	m.selectedSug = 0
}

// View renders the auto-suggest input
func (m AutoSuggestModel) View() string {
	if m.finished || m.cancelled {
		return ""
	}
	
	var b strings.Builder

	// Prompt
	b.WriteString(m.promptStyle.Render(m.prompt))
	b.WriteString("\n")
	
	// Input field
	inputView := m.inputStyle.Render(m.textInput.View())
	b.WriteString(inputView)
	b.WriteString("\n")
	
	// Suggestions
	if m.showSugs && len(m.filteredSugs) > 0 {
		b.WriteString("\n")
		for i, suggestion := range m.filteredSugs {
			if i == m.selectedSug {
				b.WriteString(m.selectedSugStyle.Render("→ " + suggestion))
			} else {
				b.WriteString(m.suggestStyle.Render("  " + suggestion))
			}
			b.WriteString("\n")
		}
	}
	
	// Help text
	help := m.buildHelpText()
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render(help))
	
	return b.String()
}

// buildHelpText creates context-appropriate help text
func (m AutoSuggestModel) buildHelpText() string {
	var parts []string
	
	if m.showSugs && len(m.filteredSugs) > 0 {
		parts = append(parts, "↑↓: navigate suggestions")
		parts = append(parts, "tab: autocomplete")
		parts = append(parts, "enter: select/confirm")
	} else {
		parts = append(parts, "enter: confirm")
	}
	
	if m.defaultValue != "" {
		parts = append(parts, "empty for default: "+m.defaultValue)
	}
	
	parts = append(parts, "esc: cancel")
	
	return strings.Join(parts, " • ")
}

// RunAutoSuggestInput runs an auto-suggest input and returns the value
func RunAutoSuggestInput(prompt, placeholder, defaultValue string, suggestions []string) (string, error) {
	model := NewAutoSuggestModel(prompt, placeholder, defaultValue, suggestions)

	program := tea.NewProgram(model, tea.WithAltScreen())
	result, err := program.Run()
	if err != nil {
		return "", err
	}
	
	finalModel := result.(AutoSuggestModel)
	if finalModel.IsCancelled() {
		return "", ErrInputCancelled{}
	}
	
	return finalModel.GetValue(), nil
}

// ErrInputCancelled is returned when user cancels input
type ErrInputCancelled struct{}

func (e ErrInputCancelled) Error() string {
	return "input cancelled"
}