// Package tui is an interactive terminal viewer for translations. A query
// typed at the prompt is run through the engine and the outcome is shown
// across tabs: validation, algebra expressions, operator trees, execution
// plans and the optimization trace.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/relalg/internal/engine"
	"github.com/leapstack-labs/relalg/pkg/format"
)

// Tab identifies one view of the result.
type Tab int

// Tabs in display order.
const (
	TabValidation Tab = iota
	TabAlgebra
	TabTree
	TabPlan
	TabTrace
)

var tabNames = [...]string{"Validation", "Algebra", "Tree", "Plan", "Trace"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return fmt.Sprintf("Tab(%d)", int(t))
	}
	return tabNames[t]
}

// Processor translates a query.
type Processor interface {
	Process(ctx context.Context, query string) (*engine.Result, error)
}

// resultMsg carries a finished translation back to Update.
type resultMsg struct {
	query  string
	result *engine.Result
	err    error
}

// chrome is the number of lines taken by everything but the viewport.
const chrome = 7

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx  context.Context
	proc Processor

	input    textinput.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap

	active  Tab
	query   string
	result  *engine.Result
	err     error
	pending bool

	width int
}

// New creates a viewer. A non-empty query is translated on start.
func New(ctx context.Context, proc Processor, query string) Model {
	ti := textinput.New()
	ti.Prompt = "sql> "
	ti.Placeholder = "SELECT ... FROM ... WHERE ..."
	ti.CharLimit = 4096
	ti.Width = 76
	ti.SetValue(query)
	ti.Focus()

	m := Model{
		ctx:      ctx,
		proc:     proc,
		input:    ti,
		viewport: viewport.New(80, 20),
		help:     help.New(),
		keys:     defaultKeyMap(),
		width:    80,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if q := strings.TrimSpace(m.input.Value()); q != "" {
		return tea.Batch(textinput.Blink, m.translate(q))
	}
	return textinput.Blink
}

// Active returns the selected tab.
func (m Model) Active() Tab { return m.active }

// Result returns the last successful translation, if any.
func (m Model) Result() *engine.Result { return m.result }

// Err returns the error of the last translation, if any.
func (m Model) Err() error { return m.err }

func (m Model) translate(query string) tea.Cmd {
	ctx, proc := m.ctx, m.proc
	return func() tea.Msg {
		res, err := proc.Process(ctx, query)
		return resultMsg{query: query, result: res, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 3)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case resultMsg:
		m.pending = false
		m.query = msg.query
		m.result, m.err = msg.result, msg.err
		switch {
		case m.err != nil:
			m.active = TabValidation
		case m.active == TabValidation:
			m.active = TabAlgebra
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.active = (m.active + 1) % Tab(len(tabNames))
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.active = (m.active + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.pending = true
			m.refresh()
			return m, m.translate(q)
		case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDn):
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("relalg"))
	b.WriteString(mutedStyle.Render("  SQL to relational algebra"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) tabBar() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := inactiveTabStyle
		if Tab(i) == m.active {
			style = activeTabStyle
		}
		tabs[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

// refresh loads the active tab's content into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.content(m.active))
	m.viewport.GotoTop()
}

func (m Model) content(tab Tab) string {
	if m.pending {
		return mutedStyle.Render("Translating...")
	}
	if m.result == nil && m.err == nil {
		return mutedStyle.Render("Type a query and press enter.")
	}
	if tab == TabValidation {
		return m.validationView()
	}
	if m.err != nil {
		return mutedStyle.Render("No translation: the query was rejected. See the Validation tab.")
	}

	res := m.result
	switch tab {
	case TabAlgebra:
		return section("Unoptimized", res.Expression) + "\n" +
			section("Optimized", res.OptimizedExpression)
	case TabTree:
		return section("Unoptimized", format.Tree(res.Tree)) + "\n" +
			section("Optimized", format.Tree(res.Optimized))
	case TabPlan:
		return section("Unoptimized", format.Plan(res.Tree)) + "\n" +
			section("Optimized", format.Plan(res.Optimized))
	case TabTrace:
		return m.traceView()
	}
	return ""
}

func (m Model) validationView() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(errStyle.Render("✗ Rejected (" + engine.ErrorKind(m.err) + ")"))
		b.WriteString("\n\n")
		b.WriteString(m.err.Error())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(okStyle.Render("✓ Query is valid"))
	b.WriteString("\n\n")
	b.WriteString(sectionStyle.Render("Relations"))
	b.WriteString("\n")
	for _, rel := range m.result.Relations {
		b.WriteString("  " + rel.String() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Translated in " + m.result.Duration.String()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) traceView() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Optimization trace"))
	b.WriteString("\n")
	lines := m.result.Log.Lines()
	if len(lines) == 0 {
		b.WriteString(mutedStyle.Render("  (no rewrites)") + "\n")
	}
	for _, line := range lines {
		b.WriteString("  " + line + "\n")
	}

	if req := m.result.RequiredColumns; req != nil {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Required columns"))
		b.WriteString("\n")
		for _, rc := range req.Relations {
			b.WriteString(fmt.Sprintf("  %s: %s\n", rc.Relation.Ref(), strings.Join(rc.Columns, ", ")))
		}
		if len(req.Unattributed) > 0 {
			b.WriteString(fmt.Sprintf("  unattributed: %s\n", strings.Join(req.Unattributed, ", ")))
		}
	}
	return b.String()
}

func section(title, body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return sectionStyle.Render(title) + "\n" + strings.Join(lines, "\n") + "\n"
}

// Run starts the viewer on the terminal and blocks until the user quits
// or ctx is cancelled.
func Run(ctx context.Context, proc Processor, query string, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, proc, query), opts...)
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
