// File path: internal/tui/model.go

// Package tui is the terminal chat front end over the assistant pipeline.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aquametrics/waterlens/internal/assistant"
)

// Answerer is the TUI-facing subset of the assistant.
type Answerer interface {
	AnswerDetailed(ctx context.Context, question string) (assistant.Response, error)
}

type turn struct {
	question string
	answer   string
	err      error
}

type answerMsg struct {
	question string
	resp     assistant.Response
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	service  Answerer
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model over the given assistant.
func New(service Answerer, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the water-utility datasets and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: summary}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case answerMsg:
		m.waiting = false
		t := turn{question: msg.question, err: msg.err}
		if msg.err == nil {
			t.answer = msg.resp.Answer
			m.status = fmt.Sprintf("Answered with %d metric(s).", len(msg.resp.Results))
		} else {
			m.status = "Error: " + msg.err.Error()
		}
		m.turns = append(m.turns, t)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			question := strings.TrimSpace(m.input.Value())
			if question != "" {
				m.input.SetValue("")
				m.waiting = true
				m.status = "Thinking..."
				return m, m.ask(question)
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		resp, err := service.AnswerDetailed(context.Background(), question)
		return answerMsg{question: question, resp: resp, err: err}
	}
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("WaterLens Chat")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "Ask a question about the cataloged datasets."
	}
	parts := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		block := questionStyle.Render("You: "+t.question) + "\n"
		if t.err != nil {
			block += errorStyle.Render("Error: " + t.err.Error())
		} else {
			block += t.answer
		}
		parts = append(parts, block)
	}
	return strings.Join(parts, "\n\n")
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
