// Package tui provides a Bubble Tea browser for the asset catalog.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentic-research/simready/api"
	"github.com/agentic-research/simready/internal/catalog"
	"github.com/agentic-research/simready/internal/search"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#76B900")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1)
)

// Focus is the pane receiving keys.
type Focus int

const (
	FocusSearch Focus = iota
	FocusCategories
	FocusAssets
)

const maxRows = 20

type (
	// LoadedMsg is sent when the catalog has finished loading.
	LoadedMsg struct{ Err error }
)

// Model is the Bubble Tea model of the browser.
type Model struct {
	index          *catalog.Index
	session        *search.Session
	defaultPhysics string
	ctx            context.Context

	loading bool
	focus   Focus
	input   textinput.Model
	spinner spinner.Model

	categories []catalog.Category
	catCursor  int
	items      []*catalog.Item
	itemCursor int
	suggest    []string

	status  string
	err     error
	dropped []string

	width int
}

// NewModel creates a browser over x.
func NewModel(ctx context.Context, x *catalog.Index, policy search.SubsetPolicy, defaultPhysics string) Model {
	ti := textinput.New()
	ti.Placeholder = "search words"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		index:          x,
		session:        search.NewSession(x, policy),
		defaultPhysics: defaultPhysics,
		ctx:            ctx,
		loading:        true,
		input:          ti,
		spinner:        sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		m.index.Start(m.ctx)
		return LoadedMsg{Err: m.index.Wait(m.ctx)}
	}
}

// Dropped returns the drag payloads chosen during the session.
func (m Model) Dropped() []string {
	return m.dropped
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		m.categories = m.index.Categories()
		m = m.search()
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m = m.cycleFocus()
			return m, nil
		}
		if m.focus != FocusSearch {
			return m.navigate(msg), nil
		}
		if msg.String() == "enter" {
			m.focus = FocusAssets
			m.input.Blur()
			return m, nil
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before && !m.loading {
			m = m.search()
		}
		return m, cmd
	}

	return m, tea.Batch(cmds...)
}

func (m Model) cycleFocus() Model {
	m.focus = (m.focus + 1) % 3
	if m.focus == FocusSearch {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
	return m
}

func (m Model) navigate(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "up", "k":
		if m.focus == FocusCategories && m.catCursor > 0 {
			m.catCursor--
		}
		if m.focus == FocusAssets && m.itemCursor > 0 {
			m.itemCursor--
		}
	case "down", "j":
		if m.focus == FocusCategories && m.catCursor < len(m.categories)-1 {
			m.catCursor++
		}
		if m.focus == FocusAssets && m.itemCursor < len(m.items)-1 {
			m.itemCursor++
		}
	case "enter":
		if m.focus == FocusCategories {
			return m.selectCategory()
		}
		return m.drop()
	case "p":
		if m.focus == FocusAssets {
			return m.cyclePhysics()
		}
	}
	return m
}

func (m Model) selectCategory() Model {
	if m.catCursor >= len(m.categories) {
		return m
	}
	words, suggestions := m.session.SelectCategory(m.categories[m.catCursor].Label)
	m.input.SetValue(strings.Join(words, " "))
	m = m.search()
	m.suggest = suggestions
	return m
}

func (m Model) search() Model {
	res := m.session.Search(search.Normalize(m.input.Value()))
	m.items = catalog.Items(res.Records, m.defaultPhysics)
	m.suggest = res.Suggestions
	m.itemCursor = 0
	m.catCursor = 0
	for i, c := range m.categories {
		if c.Label == res.Category {
			m.catCursor = i
		}
	}
	return m
}

func (m Model) cyclePhysics() Model {
	if m.itemCursor >= len(m.items) {
		return m
	}
	it := m.items[m.itemCursor]
	choices := it.PhysicsChoices()
	for i, c := range choices {
		if c == it.Physics() {
			_ = it.SetPhysics(choices[(i+1)%len(choices)])
			break
		}
	}
	return m
}

func (m Model) drop() Model {
	if m.itemCursor >= len(m.items) {
		return m
	}
	line, err := api.Encode(m.items[m.itemCursor].Payload())
	if err != nil {
		m.err = err
		return m
	}
	m.dropped = append(m.dropped, line)
	m.status = fmt.Sprintf("queued %s", m.items[m.itemCursor].Record.Name)
	return m
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SimReady Explorer"))
	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " loading catalog...\n")
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	if len(m.suggest) > 0 {
		b.WriteString(dimStyle.Render("tags: " + strings.Join(head(m.suggest, 12), ", ")))
		b.WriteString("\n")
	}

	left := m.viewCategories()
	right := m.viewAssets()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(left), paneStyle.Render(right)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(headerStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("tab: switch pane • enter: select/queue • p: physics • esc: quit"))
	return b.String()
}

func (m Model) viewCategories() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Categories"))
	b.WriteString("\n")
	for i, c := range m.categories {
		line := fmt.Sprintf("%s (%d)", c.Name, c.Count)
		if i == m.catCursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) viewAssets() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Assets (%d)", len(m.items))))
	b.WriteString("\n")
	start := 0
	if m.itemCursor >= maxRows {
		start = m.itemCursor - maxRows + 1
	}
	for i := start; i < len(m.items) && i < start+maxRows; i++ {
		b.WriteString(renderItem(m.items[i], i == m.itemCursor))
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(it *catalog.Item, selected bool) string {
	line := it.Record.Name
	if _, ok := it.Record.PhysicsVariant(); ok {
		line += dimStyle.Render(" [" + it.Physics() + "]")
	}
	if tags := it.Record.TagsString(); tags != "" {
		line += dimStyle.Render("  " + tags)
	}
	if selected {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
