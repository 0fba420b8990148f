// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     repl
// Description: Bubbletea model for the interactive scan/parse REPL
// Author:      msto63
// Created:     2025-12-07
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mdwast "github.com/msto63/lox/foundation/lox/ast"
	mdwtoken "github.com/msto63/lox/foundation/lox/token"
	"github.com/msto63/lox/foundation/utils/stringx"
	"github.com/msto63/lox/internal/frontend/service"
)

// Config holds REPL configuration
type Config struct {
	Prompt      string
	HistorySize int
	Mode        Mode
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Prompt:      "> ",
		HistorySize: 100,
		Mode:        ModeParse,
	}
}

// Model is the Bubbletea model for the REPL
type Model struct {
	width   int
	height  int
	ready   bool
	running bool

	input    textinput.Model
	viewport viewport.Model

	service *service.Service
	mode    Mode
	entries []Entry

	// Input history, newest last
	history      []string
	historyIndex int // -1 = editing a new line
	historySize  int
	draft        string
}

// New creates a REPL model
func New(cfg Config, svc *service.Service) Model {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultConfig().Prompt
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}

	ti := textinput.New()
	ti.Prompt = cfg.Prompt
	ti.PromptStyle = PromptStyle
	ti.Placeholder = "expression, or :help"
	ti.Focus()

	return Model{
		input:        ti,
		viewport:     viewport.New(80, 20),
		service:      svc,
		mode:         cfg.Mode,
		historyIndex: -1,
		historySize:  cfg.HistorySize,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyUp:
			m.historyBack()
			return m, nil
		case tea.KeyDown:
			m.historyForward()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, 10)
		m.viewport.Height = max(msg.Height-6, 3)
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.ready = true
		m.refresh()

	case resultMsg:
		m.running = false
		entry := msg.entry
		if msg.err != nil {
			entry.Info = "error: " + msg.err.Error()
		}
		m.entries = append(m.entries, entry)
		m.refresh()
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: runs a command or analyzes the line
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.input.SetValue("")
	m.historyIndex = -1
	m.draft = ""

	if stringx.IsBlank(line) {
		return m, nil
	}
	m.remember(line)

	if strings.HasPrefix(strings.TrimSpace(line), ":") {
		return m.command(strings.TrimSpace(line))
	}

	if m.running {
		return m, nil
	}
	m.running = true
	return m, m.analyze(line, m.mode)
}

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return m, tea.Quit
	case ":clear":
		m.entries = nil
	case ":help":
		m.entries = append(m.entries, Entry{Input: line, Info: helpText})
	case ":keywords":
		m.entries = append(m.entries, Entry{Input: line, Info: keywordList()})
	case ":parse", ":tree", ":scan":
		mode, _ := ParseMode(strings.TrimPrefix(fields[0], ":"))
		if len(fields) > 1 {
			// one-off analysis in another mode
			rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
			m.running = true
			return m, m.analyze(rest, mode)
		}
		m.mode = mode
		m.entries = append(m.entries, Entry{Input: line, Info: "mode: " + mode.String()})
	default:
		m.entries = append(m.entries, Entry{Input: line, Info: "unknown command " + fields[0] + ", try :help"})
	}
	m.refresh()
	return m, nil
}

const helpText = ":parse  :tree  :scan  switch mode (or prefix a single line)\n" +
	":keywords  list reserved words\n" +
	":clear  clear the transcript   :quit  leave"

// keywordList renders the reserved words, sorted
func keywordList() string {
	words := make([]string, 0, len(mdwtoken.Keywords()))
	for w := range mdwtoken.Keywords() {
		words = append(words, w)
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// analyze runs the service off the update loop
func (m Model) analyze(line string, mode Mode) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return runLine(ctx, svc, line, mode)
	}
}

func runLine(ctx context.Context, svc *service.Service, line string, mode Mode) resultMsg {
	entry := Entry{Input: line}
	req := service.Request{Source: line, Origin: "repl"}

	if mode == ModeScan {
		resp, err := svc.Scan(ctx, req)
		if err != nil {
			return resultMsg{entry: entry, err: err}
		}
		for _, t := range resp.Tokens {
			entry.Output = append(entry.Output, t.String())
		}
		entry.Diagnostics = resp.Diagnostics
		entry.Duration = resp.Duration
		return resultMsg{entry: entry}
	}

	resp, err := svc.Parse(ctx, req)
	if err != nil {
		return resultMsg{entry: entry, err: err}
	}
	entry.Diagnostics = resp.Diagnostics
	entry.Duration = resp.Duration
	if resp.Expr != nil && len(resp.Diagnostics) == 0 {
		if mode == ModeTree {
			entry.Output = stringx.SplitLines(strings.TrimRight(mdwast.NewTreePrinter().Print(resp.Expr), "\n"))
		} else {
			entry.Output = []string{mdwast.Print(resp.Expr)}
		}
	}
	return resultMsg{entry: entry}
}

func (m *Model) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
}

func (m *Model) historyBack() {
	if len(m.history) == 0 {
		return
	}
	if m.historyIndex == -1 {
		m.draft = m.input.Value()
		m.historyIndex = len(m.history) - 1
	} else if m.historyIndex > 0 {
		m.historyIndex--
	}
	m.input.SetValue(m.history[m.historyIndex])
	m.input.CursorEnd()
}

func (m *Model) historyForward() {
	if m.historyIndex == -1 {
		return
	}
	if m.historyIndex < len(m.history)-1 {
		m.historyIndex++
		m.input.SetValue(m.history[m.historyIndex])
	} else {
		m.historyIndex = -1
		m.input.SetValue(m.draft)
	}
	m.input.CursorEnd()
}

// refresh re-renders the transcript into the viewport
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	var b strings.Builder
	for _, e := range m.entries {
		b.WriteString(InputLineStyle.Render(m.input.Prompt + e.Input))
		b.WriteString("\n")
		for _, line := range e.Output {
			b.WriteString(ResultStyle.Render(line))
			b.WriteString("\n")
		}
		for _, d := range e.Diagnostics {
			b.WriteString(DiagnosticStyle.Render(d.String()))
			b.WriteString("\n")
		}
		if e.Info != "" {
			b.WriteString(InfoStyle.Render(e.Info))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Starting REPL..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		LogoStyle.Render(Logo), " ",
		SubHeaderStyle.Render("expression front end"), "  ",
		ModeStyle.Render("["+m.mode.String()+"]"),
	)

	status := fmt.Sprintf("%d entries", len(m.entries))
	if n := len(m.entries); n > 0 && m.entries[n-1].Duration > 0 {
		status += fmt.Sprintf(" · last %s", m.entries[n-1].Duration.Round(time.Microsecond))
	}
	help := HelpKeyStyle.Render("enter") + HelpDescStyle.Render(" run  ") +
		HelpKeyStyle.Render("↑/↓") + HelpDescStyle.Render(" history  ") +
		HelpKeyStyle.Render("esc") + HelpDescStyle.Render(" quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		TranscriptStyle.Width(m.viewport.Width).Render(m.viewport.View()),
		m.input.View(),
		StatusBarStyle.Render(status)+"  "+help,
	)
}

// Entries returns the transcript
func (m Model) Entries() []Entry {
	return m.entries
}

// Mode returns the current mode
func (m Model) Mode() Mode {
	return m.mode
}

// Run starts the REPL in the alternate screen
func Run(cfg Config, svc *service.Service) error {
	p := tea.NewProgram(New(cfg, svc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
