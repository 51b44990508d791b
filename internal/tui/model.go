package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/ttsdeck/internal/model"
	"github.com/Makepad-fr/ttsdeck/internal/recordlist"
)

const (
	minTextLines = 3
	maxTextLines = 10
)

type focus int

const (
	focusList focus = iota
	focusTitle
	focusText
)

// listItem adapts a record to bubbles/list.Item
type listItem struct {
	rec model.Record
}

func (i listItem) Title() string       { return i.rec.Title }
func (i listItem) Description() string { return i.rec.Text }
func (i listItem) FilterValue() string { return i.rec.Title + " " + i.rec.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	title := it.rec.Title
	if title == "" {
		title = "(untitled)"
	}
	line := fmt.Sprintf("%s %s  %s", playStyle.Render(symRecord), title, mutedStyle.Render(snippet(it.rec.Text, 48)))
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

var (
	playBind    = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play"))
	deleteBind  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	focusBind   = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit"))
	submitBind  = key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "synthesize"))
)

// Model is the bubbletea view over a recordlist.Controller.
type Model struct {
	ctrl *recordlist.Controller

	list    list.Model
	title   textinput.Model
	text    textarea.Model
	spinner spinner.Model
	focus   focus

	width, height int
}

// New builds the view. The controller is shared, not copied.
func New(ctrl *recordlist.Controller) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Speech records")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("record", "records")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{playBind, deleteBind, refreshBind, focusBind, submitBind}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Title..."
	ti.CharLimit = 200

	ta := textarea.New()
	ta.Placeholder = "Text to synthesize..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(minTextLines)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	m := Model{ctrl: ctrl, list: l, title: ti, text: ta, spinner: sp, width: 80, height: 24}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd { return m.ctrl.RefreshList() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case recordlist.RecordsMsg:
		next := m.ctrl.Update(msg)
		cmd := m.rebuild(msg)
		return m, tea.Batch(next, cmd)

	case recordlist.AudioMsg, recordlist.DeletedMsg, recordlist.SynthesizedMsg, recordlist.PlaybackMsg:
		return m, m.ctrl.Update(msg)

	case spinner.TickMsg:
		if m.ctrl.State() != recordlist.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateInputs(msg)
	}

	return m.forward(msg)
}

// rebuild replaces every list item after a successful fetch.
func (m *Model) rebuild(msg recordlist.RecordsMsg) tea.Cmd {
	if msg.Err != nil {
		return nil
	}
	recs := m.ctrl.Records()
	items := make([]list.Item, 0, len(recs))
	for _, r := range recs {
		items = append(items, listItem{rec: r})
	}
	return m.list.SetItems(items)
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.forward(msg)
	}
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		if it, ok := m.list.SelectedItem().(listItem); ok {
			cmd := m.ctrl.PlayRecord(it.rec)
			m.syncInputs()
			return m, cmd
		}
		return m, nil
	case "d":
		if it, ok := m.list.SelectedItem().(listItem); ok {
			return m, m.ctrl.DeleteRecord(it.rec.Id)
		}
		return m, nil
	case "r":
		return m, m.ctrl.RefreshList()
	case "tab":
		cmd := m.setFocus(focusTitle)
		return m, cmd
	case "ctrl+s":
		return m.submit()
	}
	return m.forward(msg)
}

func (m Model) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl.State() == recordlist.Submitting {
		// the input area is hidden while a request is in flight; only the
		// way back to the list stays open
		switch msg.String() {
		case "esc", "tab":
			cmd := m.setFocus(focusList)
			return m, cmd
		}
		return m, nil
	}
	switch msg.String() {
	case "esc":
		cmd := m.setFocus(focusList)
		return m, cmd
	case "tab":
		next := focusText
		if m.focus == focusText {
			next = focusList
		}
		cmd := m.setFocus(next)
		return m, cmd
	case "ctrl+s":
		return m.submit()
	}
	var cmd tea.Cmd
	if m.focus == focusTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.text, cmd = m.text.Update(msg)
		m.fitText()
	}
	m.ctrl.SetInputs(m.title.Value(), m.text.Value())
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.title.Value())
	text := m.text.Value()
	if strings.TrimSpace(text) == "" {
		cmd := m.setFocus(focusText)
		return m, cmd
	}
	cmd := m.ctrl.SubmitText(title, text)
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.title.Blur()
	m.text.Blur()
	switch f {
	case focusTitle:
		return m.title.Focus()
	case focusText:
		return m.text.Focus()
	}
	return nil
}

// syncInputs copies the controller's title/text into the widgets.
func (m *Model) syncInputs() {
	m.title.SetValue(m.ctrl.Title())
	m.text.SetValue(m.ctrl.Text())
	m.fitText()
}

// fitText grows the textarea with its content.
func (m *Model) fitText() {
	h := m.text.LineCount()
	if h < minTextLines {
		h = minTextLines
	}
	if h > maxTextLines {
		h = maxTextLines
	}
	m.text.SetHeight(h)
	m.resize()
}

func (m *Model) resize() {
	inner := m.width - 4
	if inner < 20 {
		inner = 20
	}
	m.title.Width = inner - 4
	m.text.SetWidth(inner)

	// border + title label + input + label + textarea + status line
	reserved := 2 + 2 + 1 + 1 + m.text.Height() + 2 + 1
	lh := m.height - reserved
	if lh < 3 {
		lh = 3
	}
	m.list.SetSize(inner, lh)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")

	if m.ctrl.State() == recordlist.Submitting {
		b.WriteString(panelStyle.Render(m.spinner.View() + " " + busyStyle.Render("Synthesizing...")))
	} else {
		b.WriteString(panelStyle.Render(m.inputView()))
	}
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return panelStyle.Render(b.String())
}

func (m Model) inputView() string {
	label := func(s string, f focus) string {
		if m.focus == f {
			return focusedLabel.Render(s)
		}
		return mutedStyle.Render(s)
	}
	return label("Title", focusTitle) + "\n" + m.title.View() + "\n" +
		label("Text", focusText) + "\n" + m.text.View()
}

func (m Model) statusLine() string {
	src := m.ctrl.Source()
	if src.URL == "" {
		return mutedStyle.Render("nothing played yet")
	}
	line := accentStyle.Render("▶ ") + src.URL
	if src.Duration > 0 {
		line += mutedStyle.Render(fmt.Sprintf("  (%s)", src.Duration.Round(100*time.Millisecond)))
	}
	return line
}

// Run starts the interactive program on the alternate screen.
func Run(ctrl *recordlist.Controller) error {
	p := tea.NewProgram(New(ctrl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
