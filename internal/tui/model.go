// Package tui is the terminal front-end for editor sessions.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/rams-cli/internal/editor"
	"github.com/KaramelBytes/rams-cli/internal/rams"
	"github.com/KaramelBytes/rams-cli/internal/render"
)

// SaveFunc persists the edited document.
type SaveFunc func(doc rams.Document) error

type savedMsg struct{ err error }

// Model is the bubbletea model wrapping an editor.Session.
type Model struct {
	session *editor.Session
	save    SaveFunc
	keys    KeyMap
	styles  Styles

	input    textinput.Model
	preview  viewport.Model
	editing  bool
	cursor   int
	quitting bool
	// quitArmed is set after a quit with unsaved edits; a second quit exits.
	quitArmed bool

	status string
	err    error
	width  int
	height int
}

// New returns a model editing s. A nil save disables ctrl+s.
func New(s *editor.Session, save SaveFunc) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 2000
	return Model{
		session: s,
		save:    save,
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		input:   ti,
		preview: viewport.New(80, 20),
		width:   100,
		height:  30,
	}
}

// Run starts the editor full screen and blocks until the user quits.
func Run(s *editor.Session, save SaveFunc) error {
	_, err := tea.NewProgram(New(s, save), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.preview.Width = max(20, m.width-sidebarWidth-4)
		m.preview.Height = max(5, m.height-4)
		m.refreshPreview()
		return m, nil
	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session.MarkSaved()
		m.err, m.status = nil, "Saved"
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		f, ok := m.selected()
		m.editing = false
		m.input.Blur()
		if !ok {
			return m, nil
		}
		m.setErr(m.session.Set(f.Key, m.input.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.session.Dirty() && m.save != nil && !m.quitArmed {
			m.quitArmed = true
			m.status = "Unsaved changes: ctrl+s to save, q again to quit"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Save):
		if m.save == nil {
			return m, nil
		}
		doc, save := m.session.Document(), m.save
		return m, func() tea.Msg { return savedMsg{err: save(doc)} }
	case key.Matches(msg, m.keys.NextStep):
		m.session.Next()
		m.enterStep()
	case key.Matches(msg, m.keys.PrevStep):
		m.session.Prev()
		m.enterStep()
	case m.onPreview():
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(0, m.cursor-1)
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.session.Fields())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Edit):
		f, ok := m.selected()
		if !ok || f.ReadOnly {
			return m, nil
		}
		m.editing = true
		m.input.SetValue(f.Value)
		m.input.CursorEnd()
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Add):
		if err := m.session.Add(); err != nil {
			m.setErr(err)
			break
		}
		m.cursor = max(0, len(m.session.Fields())-1)
		m.setErr(nil)
	case key.Matches(msg, m.keys.Remove):
		f, ok := m.selected()
		if !ok || f.Row < 0 {
			break
		}
		m.setErr(m.session.Remove(f.Row))
		m.cursor = min(m.cursor, max(0, len(m.session.Fields())-1))
	}
	return m, nil
}

func (m *Model) setErr(err error) {
	m.err = err
	if err == nil {
		m.status = ""
	}
}

func (m *Model) enterStep() {
	m.cursor = 0
	m.err = nil
	if m.onPreview() {
		m.refreshPreview()
	}
}

func (m Model) onPreview() bool {
	return m.session.Current().ID == editor.StepPreview
}

func (m Model) selected() (editor.Field, bool) {
	fields := m.session.Fields()
	if m.cursor < 0 || m.cursor >= len(fields) {
		return editor.Field{}, false
	}
	return fields[m.cursor], true
}

// refreshPreview renders the document markdown into the preview viewport,
// falling back to plain markdown when glamour cannot style it.
func (m *Model) refreshPreview() {
	md := render.Markdown(m.session.Document())
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(m.preview.Width))
	if err == nil {
		if out, rerr := r.Render(md); rerr == nil {
			md = out
		}
	}
	m.preview.SetContent(md)
	m.preview.GotoTop()
}

const sidebarWidth = 26

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var side strings.Builder
	for i, st := range m.session.Steps() {
		line := fmt.Sprintf("%2d %s", i+1, st.Title)
		if i == m.session.Index() {
			side.WriteString(m.styles.Current.Render(line))
		} else {
			side.WriteString(m.styles.Step.Render(line))
		}
		side.WriteByte('\n')
	}
	sidebar := m.styles.Sidebar.Width(sidebarWidth).Render(side.String())

	var main string
	if m.onPreview() {
		main = m.preview.View()
	} else {
		main = m.fieldsView()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	title := m.styles.Title.Render("RAMS · " + m.session.Current().Title)
	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.statusLine())
}

func (m Model) fieldsView() string {
	var b strings.Builder
	row := -1
	for i, f := range m.session.Fields() {
		if f.Row != row && f.Row >= 0 && strings.Contains(f.Key, ".") {
			row = f.Row
			b.WriteString(m.styles.Row.Render(fmt.Sprintf("#%d", row+1)))
			b.WriteByte('\n')
		}
		value := f.Value
		if i == m.cursor && m.editing {
			value = m.input.View()
		}
		label := m.styles.Label.Render(f.Label + ":")
		switch {
		case i == m.cursor:
			b.WriteString(m.styles.Selected.Render("▸ ") + label + " " + value)
		case f.ReadOnly:
			b.WriteString("  " + label + " " + m.styles.ReadOnly.Render(value))
		default:
			b.WriteString("  " + label + " " + m.styles.Value.Render(value))
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		b.WriteString(m.styles.Help.Render("No rows. Press a to add one."))
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.err != nil {
		return m.styles.Error.Render("✗ " + m.err.Error())
	}
	var help []string
	for _, k := range m.keys.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	line := m.styles.Help.Render(strings.Join(help, " · "))
	if m.status != "" {
		line = m.styles.Status.Render(m.status) + "  " + line
	}
	return line
}
