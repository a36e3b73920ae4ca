package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for validation messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// NewAnswerInput creates the text input shared by every step.
func NewAnswerInput() textinput.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40
	ti.Prompt = "> "

	return ti
}

// Question returns the question asked at a step.
func Question(state int) string {
	switch state {
	case StateExchangeInput:
		return "Enter Exchange (NSE, BSE):"
	case StateSymbolInput:
		return "Enter Symbol:"
	case StateFromDateInput:
		return "Enter From Date (DD-MM-YYYY):"
	case StateToDateInput:
		return "Enter To Date (DD-MM-YYYY)/(TODAY):"
	case StateIntervalInput:
		return fmt.Sprintf("Enter Intervals (%s):", strings.Join(types.SupportedIntervals(), ", "))
	default:
		return ""
	}
}

func placeholder(state int) string {
	switch state {
	case StateExchangeInput:
		return "NSE"
	case StateSymbolInput:
		return "SBIN"
	case StateFromDateInput:
		return "01-01-2024"
	case StateToDateInput:
		return "TODAY"
	case StateIntervalInput:
		return "1m, 15m, 1d"
	default:
		return ""
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.state == StateDone {
		return ""
	}

	var s strings.Builder

	s.WriteString(TitleStyle.Render(Question(m.state)))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	s.WriteString("\n")

	if m.err != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(m.err))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press Enter to confirm, Esc to go back, Ctrl+C to quit"))

	return s.String()
}
