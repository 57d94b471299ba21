// Package book implements the interactive notebook screen.
package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nerdbook/cmd/nerdbook/ui"
	"nerdbook/internal/logging"
	"nerdbook/internal/notebook"
	"nerdbook/internal/sandbox"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 1
	footerHeight = 2
)

// runFinishedMsg carries a completed run back to Update.
type runFinishedMsg struct {
	cell     notebook.Cell
	found    bool
	isolated bool
	elapsed  time.Duration
}

// Model is the notebook screen.
type Model struct {
	ctx    context.Context
	nb     *notebook.Notebook
	styles ui.Styles
	panes  *ui.PaneRenderer
	keys   keyMap

	editor   textarea.Model
	viewport viewport.Model
	help     help.Model

	selected int
	editing  bool
	running  bool
	status   string

	width  int
	height int
	ready  bool
}

// New creates the screen for nb. Runs use ctx.
func New(ctx context.Context, nb *notebook.Notebook, styles ui.Styles, panes *ui.PaneRenderer) Model {
	ed := textarea.New()
	ed.Placeholder = "Go statements or expressions..."
	ed.ShowLineNumbers = true
	ed.CharLimit = 0
	ed.SetWidth(80)
	ed.SetHeight(6)

	h := help.New()
	h.Styles.ShortKey = styles.Bold
	h.Styles.ShortDesc = styles.Muted

	return Model{
		ctx:      ctx,
		nb:       nb,
		styles:   styles,
		panes:    panes,
		keys:     defaultKeyMap(),
		editor:   ed,
		viewport: viewport.New(80, 20),
		help:     h,
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-headerHeight-footerHeight)
		m.editor.SetWidth(max(10, msg.Width-6))
		m.help.Width = msg.Width
		m.ready = true
		m.refresh()
		return m, nil

	case runFinishedMsg:
		m.running = false
		switch {
		case !msg.found:
			m.status = "cell no longer exists"
		case strings.HasPrefix(msg.cell.Result, sandbox.ErrorPrefix):
			m.status = fmt.Sprintf("failed in %v", msg.elapsed.Round(time.Millisecond))
		default:
			mode := "with context"
			if msg.isolated {
				mode = "isolated"
			}
			m.status = fmt.Sprintf("ran %s in %v", mode, msg.elapsed.Round(time.Millisecond))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.running && m.mutates(msg) {
		m.status = "run in progress; wait for it to finish"
		m.refresh()
		return m, nil
	}

	if m.editing {
		switch {
		case key.Matches(msg, m.keys.Commit):
			m.commitEdit()
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.Run), key.Matches(msg, m.keys.Isolated):
			m.commitEdit()
			return m.startRun(key.Matches(msg, m.keys.Isolated))
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.refresh()
		return m, cmd
	}

	cells := m.nb.Cells()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(cells)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Edit):
		if id, ok := m.selectedID(); ok {
			c, _ := m.nb.Cell(id)
			m.beginEdit(c.Source)
		}
	case key.Matches(msg, m.keys.New):
		c := m.nb.AddCell()
		m.selected = m.nb.Len() - 1
		m.status = "added cell"
		logging.UIDebug("new cell %s", c.ID)
		m.beginEdit("")
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selectedID(); ok {
			m.nb.DeleteCell(id)
			if m.selected >= m.nb.Len() && m.selected > 0 {
				m.selected--
			}
			m.status = "deleted cell"
		}
	case key.Matches(msg, m.keys.Toggle):
		if id, ok := m.selectedID(); ok {
			m.nb.ToggleCell(id)
			c, _ := m.nb.Cell(id)
			m.status = "deactivated cell"
			if c.Active {
				m.status = "activated cell"
			}
		}
	case key.Matches(msg, m.keys.Run):
		return m.startRun(false)
	case key.Matches(msg, m.keys.Isolated):
		return m.startRun(true)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

// mutates reports whether msg would change the notebook. Those changes queue
// behind a run in progress, so they are refused until it finishes.
func (m Model) mutates(msg tea.KeyMsg) bool {
	if m.editing {
		return key.Matches(msg, m.keys.Commit, m.keys.Run, m.keys.Isolated)
	}
	return key.Matches(msg, m.keys.New, m.keys.Delete, m.keys.Toggle, m.keys.Run, m.keys.Isolated)
}

func (m *Model) beginEdit(source string) {
	m.editing = true
	m.editor.SetValue(source)
	m.editor.Focus()
	m.refresh()
}

func (m *Model) commitEdit() {
	if id, ok := m.selectedID(); ok {
		m.nb.EditCell(id, m.editor.Value())
	}
	m.editing = false
	m.editor.Blur()
}

func (m Model) selectedID() (string, bool) {
	cells := m.nb.Cells()
	if m.selected < 0 || m.selected >= len(cells) {
		return "", false
	}
	return cells[m.selected].ID, true
}

// startRun issues the run as a command so the UI stays responsive.
func (m Model) startRun(isolated bool) (tea.Model, tea.Cmd) {
	id, ok := m.selectedID()
	if !ok || m.running {
		m.refresh()
		return m, nil
	}
	m.running = true
	m.status = "running..."
	m.refresh()

	ctx, nb := m.ctx, m.nb
	return m, func() tea.Msg {
		start := time.Now()
		c, found := nb.RunCell(ctx, id, isolated)
		return runFinishedMsg{cell: c, found: found, isolated: isolated, elapsed: time.Since(start)}
	}
}

// refresh re-renders the cell list into the viewport, keeping the selected
// cell in view.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	cells := m.nb.Cells()
	if m.selected >= len(cells) {
		m.selected = max(0, len(cells)-1)
	}

	var b strings.Builder
	selectedLine := 0
	for i, c := range cells {
		if i == m.selected {
			selectedLine = lipgloss.Height(b.String()) - 1
		}
		b.WriteString(m.renderCell(i, c))
		b.WriteString("\n")
	}
	if len(cells) == 0 {
		b.WriteString(m.styles.Muted.Render("No cells. Press ctrl+n to add one."))
	}

	m.viewport.SetContent(b.String())
	if selectedLine < m.viewport.YOffset || selectedLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(selectedLine)
	}
}

func (m Model) renderCell(i int, c notebook.Cell) string {
	width := max(10, m.width-2)

	marker := "●"
	if !c.Active {
		marker = "○"
	}
	label := m.styles.CellIndex.Render(fmt.Sprintf("[%d] %s", i+1, marker))

	style := m.styles.Cell
	switch {
	case i == m.selected && m.editing:
		style = m.styles.CellEditing
	case i == m.selected:
		style = m.styles.CellSelected
	case !c.Active:
		style = m.styles.CellInactive
	}

	body := c.Source
	if i == m.selected && m.editing {
		body = m.editor.View()
	} else if body == "" {
		body = m.styles.Muted.Render("(empty)")
	}

	parts := []string{label, style.Width(width).Render(body)}
	if panes := m.panes.Render(c.Result, c.Log); panes != "" {
		if !c.Active {
			panes = m.styles.Muted.Render(panes)
		}
		parts = append(parts, panes)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// View renders the screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := m.styles.Header.Render("nerdbook") +
		m.styles.Muted.Render(fmt.Sprintf(" %d cells", m.nb.Len()))
	if m.running {
		header += " " + m.styles.Badge.Render("running")
	}

	status := m.styles.Status.Render(m.status)
	footer := lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}
