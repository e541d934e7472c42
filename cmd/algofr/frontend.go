package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gosuda/algofr"
	"github.com/gosuda/algofr/diag"
	aruntime "github.com/gosuda/algofr/runtime"
)

const memoryWidth = 34

type model struct {
	app      appConfig
	log      *slog.Logger
	src      []string
	viewport viewport.Model
	input    textinput.Model
	ready    bool
	width    int
	height   int
	status   string
	program  string
	session  *aruntime.Session
	line     int
	memory   aruntime.Snapshot
	output   []string
	notice   string
	pending  pending
	scripted int
	started  time.Time
}

var (
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1)
	lineStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	memStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	typeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func newModel(app appConfig, logger *slog.Logger) model {
	vp := viewport.New(80, 20)
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 4096
	return model{
		app:      app,
		log:      logger,
		src:      strings.Split(strings.ReplaceAll(app.source, "\r\n", "\n"), "\n"),
		viewport: vp,
		input:    ti,
		status:   "démarrage",
	}
}

func startSession(app appConfig, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		prog, err := algofr.Parse(app.source)
		if err != nil {
			return sessionEventMsg{ev: doneEvent(err)}
		}
		opts := engineOptions(app, logger)
		// the debugger always steps; -s only matters in plain mode
		return sessionStartedMsg{program: prog.Name, session: aruntime.Start(context.Background(), prog, true, opts...)}
	}
}

func doneEvent(err error) aruntime.Event {
	ev := aruntime.Event{Kind: aruntime.EventDone, Err: err}
	if de, ok := diag.As(err); ok {
		ev.Line = de.Line
	}
	return ev
}

func waitEvent(s *aruntime.Session) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-s.Events()
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg{ev: ev}
	}
}

func (m model) Init() tea.Cmd {
	return startSession(m.app, m.log)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case sessionStartedMsg:
		m.session = msg.session
		m.program = msg.program
		m.started = time.Now()
		m.status = "en cours"
		return m, waitEvent(m.session)

	case sessionClosedMsg:
		return m, nil

	case sessionEventMsg:
		return m.handleEvent(msg.ev)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.stopSession()
			return m, tea.Quit
		}

		if m.pending.kind == pendingInput {
			if msg.Type == tea.KeyEnter {
				m.session.Provide(m.input.Value())
				m.pending = pending{}
				m.input.Blur()
				m.input.SetValue("")
				m.status = "en cours"
				m.layout()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			m.stopSession()
			return m, tea.Quit
		case "enter", "n", " ":
			if m.pending.kind == pendingStep {
				m.pending = pending{}
				m.status = "en cours"
				m.session.Advance()
			}
			return m, nil
		case "p":
			if m.session == nil || !m.session.Interpreter().Running() {
				return m, nil
			}
			if m.session.Interpreter().Paused() {
				m.session.Interpreter().Resume()
				m.status = "en cours"
			} else {
				m.session.Interpreter().Pause()
				m.status = "en pause"
			}
			return m, nil
		case "s":
			m.stopSession()
			return m, nil
		case "r":
			if m.session != nil && m.session.Interpreter().Running() {
				return m, nil
			}
			m.reset()
			m.status = "redémarrage"
			return m, startSession(m.app, m.log)
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleEvent(ev aruntime.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case aruntime.EventOutput:
		m.output = append(m.output, ev.Text)
		m.refreshOutput()
	case aruntime.EventMemory:
		m.memory = ev.Memory
	case aruntime.EventLine:
		m.line = ev.Line
	case aruntime.EventNeedStep:
		m.pending = pending{kind: pendingStep, line: ev.Line}
		m.status = "pas à pas: Entrée pour continuer"
	case aruntime.EventNeedInput:
		if m.scripted < len(m.app.run.Inputs) {
			v := m.app.run.Inputs[m.scripted]
			m.scripted++
			m.session.Provide(v)
			break
		}
		m.pending = pending{kind: pendingInput, name: ev.Name, line: ev.Line}
		m.input.Placeholder = ev.Name
		m.status = fmt.Sprintf("LIRE(%s)", ev.Name)
		m.layout()
		return m, tea.Batch(m.input.Focus(), waitEvent(m.session))
	case aruntime.EventDone:
		return m.finish(ev), waitEvent(m.session)
	}
	return m, waitEvent(m.session)
}

func (m model) finish(ev aruntime.Event) model {
	m.pending = pending{}
	m.input.Blur()
	m.line = ev.Line
	if ev.Memory != nil {
		m.memory = ev.Memory
	}
	switch {
	case ev.Err == nil:
		m.status = "terminé"
	case errors.Is(ev.Err, aruntime.ErrStopped):
		m.status = "arrêté"
		m.notice = hintStyle.Render("Exécution arrêtée")
	default:
		m.status = "échec"
		text := ev.Err.Error()
		if de, ok := diag.As(ev.Err); ok {
			text = diag.Format(de)
		}
		m.notice = errStyle.Render(text)
	}
	m.refreshOutput()
	if m.session != nil {
		saveRun(context.Background(), m.app, m.log, runRecord{
			program: m.programName(),
			output:  m.output,
			memory:  m.memory,
			err:     ev.Err,
			started: m.started,
		})
	}
	return m
}

func (m model) programName() string {
	if m.program != "" {
		return m.program
	}
	return displayName(m.app.path)
}

func (m *model) stopSession() {
	if m.session != nil {
		m.session.Stop()
	}
}

func (m *model) reset() {
	m.session = nil
	m.output = nil
	m.notice = ""
	m.memory = nil
	m.line = 0
	m.scripted = 0
	m.pending = pending{}
	m.input.Blur()
	m.input.SetValue("")
	m.refreshOutput()
}

func (m *model) layout() {
	if m.width == 0 {
		return
	}
	footer := 2
	if m.pending.kind == pendingInput {
		footer++
	}
	h := m.height - footer
	if h < 3 {
		h = 3
	}
	w := m.width - memoryWidth - 4
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.refreshOutput()
}

func (m *model) refreshOutput() {
	lines := m.output
	if m.notice != "" {
		lines = append(lines[:len(lines):len(lines)], m.notice)
	}
	content := strings.Join(lines, "\n")
	if content == "" {
		content = statusStyle.Render("(aucune sortie)")
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

func (m model) memoryView() string {
	if len(m.memory) == 0 {
		return statusStyle.Render("(mémoire vide)")
	}
	rows := make([]string, 0, len(m.memory))
	for _, b := range m.memory {
		rows = append(rows, fmt.Sprintf("%s %s = %s", nameStyle.Render(b.Name), typeStyle.Render(string(b.Type)), b.Value))
	}
	return strings.Join(rows, "\n")
}

func (m model) sourceLine() string {
	if m.line < 1 || m.line > len(m.src) {
		return ""
	}
	return strings.TrimSpace(m.src[m.line-1])
}

func (m model) View() string {
	if !m.ready {
		return "initialisation..."
	}
	mem := memStyle.Width(memoryWidth).Height(m.viewport.Height - 2).Render(m.memoryView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), " ", mem)

	parts := []string{body}
	parts = append(parts, lineStyle.Render(fmt.Sprintf("ligne %d", m.line))+" "+m.sourceLine())
	if m.pending.kind == pendingInput {
		parts = append(parts, inputStyle.Render(m.input.View()))
	}
	parts = append(parts, statusStyle.Render(m.status+"  ·  Entrée: pas  p: pause  s: arrêt  r: relancer  q: quitter"))
	return strings.Join(parts, "\n")
}
