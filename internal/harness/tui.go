package harness

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/term"

	"chaoskit/internal/chaos"
)

const maxLogLines = 500

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	delayStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

type decisionMsg struct{ d chaos.Decision }
type passMsg struct{ name string }

// TUIReporter renders live gate decisions in a terminal UI. It implements
// chaos.Reporter so it can sit in the reporter fan-out like any other sink.
type TUIReporter struct {
	program teaProgram
	done    chan struct{}
}

// NewTUIReporter starts the bubbletea program and returns the reporter.
func NewTUIReporter(gateID string) *TUIReporter {
	w, h := 80, 24
	if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		w, h = tw, th
	}
	r := &TUIReporter{done: make(chan struct{})}
	p := tea.NewProgram(newTUIModel(gateID, w, h), tea.WithAltScreen())
	r.program = p
	go func() {
		_, _ = p.Run()
		close(r.done)
	}()
	return r
}

// Record implements chaos.Reporter.
func (r *TUIReporter) Record(d chaos.Decision) error {
	r.program.Send(decisionMsg{d: d})
	return nil
}

// SetPass updates the pass label shown in the header.
func (r *TUIReporter) SetPass(name string) {
	r.program.Send(passMsg{name: name})
}

// Close shuts the TUI down and waits for terminal restore.
func (r *TUIReporter) Close() error {
	if r.program != nil {
		r.program.Send(tea.Quit())
	}
	if r.done != nil {
		<-r.done
	}
	return nil
}

type opCounts struct {
	pass, delay, fail int
}

type tuiModel struct {
	gateID     string
	pass       string
	table      table.Model
	vp         viewport.Model
	logs       []string
	counts     map[string]*opCounts
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newTUIModel(gateID string, width, height int) tuiModel {
	cols := []table.Column{
		{Title: "Operation", Width: 28},
		{Title: "Pass", Width: 8},
		{Title: "Delay", Width: 8},
		{Title: "Fail", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(6))
	vp := viewport.New(width, height)
	return tuiModel{
		gateID:     gateID,
		pass:       "baseline",
		table:      t,
		vp:         vp,
		counts:     make(map[string]*opCounts),
		autoscroll: true,
		width:      width,
		height:     height,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refresh()
		case "a":
			m.autoscroll = !m.autoscroll
		}
	case passMsg:
		m.pass = msg.name
	case decisionMsg:
		m.observe(msg.d)
		m.refresh()
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *tuiModel) observe(d chaos.Decision) {
	c := m.counts[d.Operation]
	if c == nil {
		c = &opCounts{}
		m.counts[d.Operation] = c
	}
	var style lipgloss.Style
	switch d.Outcome {
	case chaos.OutcomeFailed:
		c.fail++
		style = failStyle
	case chaos.OutcomeDelayed:
		c.delay++
		style = delayStyle
	default:
		c.pass++
		style = passStyle
	}
	line := fmt.Sprintf("%s %s op=%s p=%.3f delay=%.3fs",
		dimStyle.Render(d.Timestamp.Format(time.RFC3339)),
		style.Render(string(d.Outcome)),
		d.Operation, d.Probability, d.DelaySeconds)
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}

	names := make([]string, 0, len(m.counts))
	for name := range m.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		c := m.counts[name]
		rows = append(rows, table.Row{
			name,
			fmt.Sprintf("%d", c.pass),
			fmt.Sprintf("%d", c.delay),
			fmt.Sprintf("%d", c.fail),
		})
	}
	m.table.SetRows(rows)
}

func (m *tuiModel) layout() {
	m.table.SetWidth(m.width)
	m.vp.Width = m.width
	header := m.header()
	h := m.height - lipgloss.Height(header) - lipgloss.Height(m.table.View()) - 1
	if h < 3 {
		h = 3
	}
	m.vp.Height = h
}

func (m *tuiModel) refresh() {
	lines := m.logs
	if m.wrap {
		wrapped := make([]string, 0, len(lines))
		for _, l := range lines {
			wrapped = append(wrapped, wordwrap.String(l, m.vp.Width))
		}
		lines = wrapped
	}
	m.vp.SetContent(joinLines(lines))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) header() string {
	return headerStyle.Render(fmt.Sprintf("chaoskit gate=%s pass=%s", m.gateID, m.pass)) +
		dimStyle.Render("  [q quit, w wrap, a autoscroll]")
}

func (m tuiModel) View() string {
	return m.header() + "\n" + m.table.View() + "\n" + m.vp.View()
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
