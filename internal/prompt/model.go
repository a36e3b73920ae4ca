package prompt

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata"
)

// Prompt steps, in the order they are asked.
const (
	StateExchangeInput = iota
	StateSymbolInput
	StateFromDateInput
	StateToDateInput
	StateIntervalInput
	StateDone
)

// Validation messages shown when an answer is rejected.
const (
	InvalidExchange = "INVALID EXCHANGE"
	InvalidSymbol   = "INVALID SYMBOL"
	InvalidDate     = "INVALID DATE"
	InvalidInterval = "INVALID INTERVAL"
)

// Model is the Bubble Tea model that collects the missing fields of a download.
// A rejected answer keeps the current step and shows the reason.
type Model struct {
	state     int
	input     textinput.Model
	config    marketdata.DownloadConfig
	asked     []int
	now       func() time.Time
	err       string
	cancelled bool
}

// NewModel creates a Model that asks only for the fields config leaves empty.
func NewModel(config marketdata.DownloadConfig, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}

	m := Model{
		input:  NewAnswerInput(),
		config: config,
		asked:  missingSteps(config),
		now:    now,
	}

	m.state = m.firstStep()
	m.input.Placeholder = placeholder(m.state)

	return m
}

// Config returns the collected configuration.
func (m Model) Config() marketdata.DownloadConfig {
	return m.config
}

// State returns the current step.
func (m Model) State() int {
	return m.state
}

// Cancelled reports whether the user quit before answering everything.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Err returns the last validation message, if any.
func (m Model) Err() string {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.state == StateDone {
		return tea.Quit
	}

	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateDone {
		return m, tea.Quit
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC:
			m.cancelled = true

			return m, tea.Quit
		case tea.KeyEsc:
			return m.back(), nil
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// submit validates the current answer and advances on success.
func (m Model) submit() (tea.Model, tea.Cmd) {
	answer := strings.TrimSpace(m.input.Value())

	switch m.state {
	case StateExchangeInput:
		exchange := strings.ToUpper(answer)
		if exchange != "NSE" && exchange != "BSE" {
			return m.reject(InvalidExchange), nil
		}

		m.config.Exchange = exchange
	case StateSymbolInput:
		symbol := strings.ToUpper(answer)
		if !isAlpha(symbol) || len(symbol) > marketdata.MaxSymbolLength {
			return m.reject(InvalidSymbol), nil
		}

		m.config.Symbol = symbol
	case StateFromDateInput:
		if strings.EqualFold(answer, marketdata.Today) {
			return m.reject(InvalidDate), nil
		}

		if _, err := marketdata.ParseInputDate(answer, m.now); err != nil {
			return m.reject(InvalidDate), nil
		}

		m.config.FromDate = answer
	case StateToDateInput:
		if _, err := marketdata.ParseInputDate(answer, m.now); err != nil {
			return m.reject(InvalidDate), nil
		}

		if strings.EqualFold(answer, marketdata.Today) {
			answer = marketdata.Today
		}

		m.config.ToDate = answer
	case StateIntervalInput:
		if _, err := types.ParseIntervalList(answer); err != nil {
			return m.reject(InvalidInterval), nil
		}

		m.config.Intervals = strings.Split(strings.ReplaceAll(answer, " ", ""), ",")
	}

	m.err = ""
	m.state = m.nextStep()
	m.input.Reset()
	m.input.Placeholder = placeholder(m.state)

	if m.state == StateDone {
		m.input.Blur()

		return m, tea.Quit
	}

	return m, nil
}

// reject clears the answer and keeps the current step.
func (m Model) reject(reason string) Model {
	m.err = reason
	m.input.Reset()

	return m
}

// back returns to the previously asked step.
func (m Model) back() Model {
	for i := len(m.asked) - 1; i >= 0; i-- {
		if m.asked[i] < m.state {
			m.state = m.asked[i]
			m.err = ""
			m.input.Reset()
			m.input.Placeholder = placeholder(m.state)

			break
		}
	}

	return m
}

func (m Model) firstStep() int {
	if len(m.asked) == 0 {
		return StateDone
	}

	return m.asked[0]
}

func (m Model) nextStep() int {
	for _, step := range m.asked {
		if step > m.state {
			return step
		}
	}

	return StateDone
}

// missingSteps lists the steps whose field is empty.
func missingSteps(config marketdata.DownloadConfig) []int {
	var steps []int

	if config.Exchange == "" {
		steps = append(steps, StateExchangeInput)
	}

	if config.Symbol == "" {
		steps = append(steps, StateSymbolInput)
	}

	if config.FromDate == "" {
		steps = append(steps, StateFromDateInput)
	}

	if config.ToDate == "" {
		steps = append(steps, StateToDateInput)
	}

	if len(config.Intervals) == 0 {
		steps = append(steps, StateIntervalInput)
	}

	return steps
}

// isAlpha reports whether s is non-empty and made of letters only.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}

	return true
}
