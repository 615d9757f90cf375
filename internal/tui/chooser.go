// Package tui holds the terminal front end: the candidate menu, the progress
// spinner and clipboard access.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/committo/internal/selection"
	"github.com/rs/zerolog/log"
)

const (
	listHeight   = 12
	defaultWidth = 72
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	previewStyle      = lipgloss.NewStyle().MarginLeft(2)
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

type item struct {
	label   string
	index   int
	preview string
}

func (i item) FilterValue() string { return i.label }

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(item)
	if !ok {
		return
	}
	label := firstLine(i.label)
	if index == m.Index() {
		_, _ = fmt.Fprint(w, selectedItemStyle.Render("> "+label))
		return
	}
	_, _ = fmt.Fprint(w, itemStyle.Render(label))
}

type model struct {
	list      list.Model
	title     string
	chosen    int
	cancelled bool
	done      bool
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		case "enter":
			if i, ok := m.list.SelectedItem().(item); ok {
				m.chosen = i.index
				m.done = true
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n")
	}
	if i, ok := m.list.SelectedItem().(item); ok && i.preview != "" {
		b.WriteString(previewStyle.Render(i.preview))
		b.WriteString("\n")
	}
	b.WriteString(m.list.View())
	return b.String()
}

// Chooser presents a selection.Menu as an interactive list. The highlighted
// message is shown rendered as markdown above the list.
type Chooser struct {
	In  io.Reader
	Out io.Writer
	// Style is a glamour standard style; empty picks one from the terminal.
	Style string
}

var _ selection.Chooser = (*Chooser)(nil)

func (c *Chooser) Choose(ctx context.Context, menu selection.Menu) (int, error) {
	m, err := c.newModel(menu)
	if err != nil {
		return 0, err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.In != nil {
		opts = append(opts, tea.WithInput(c.In))
	}
	if c.Out != nil {
		opts = append(opts, tea.WithOutput(c.Out))
	}
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) {
			return 0, selection.ErrCancelled
		}
		return 0, fmt.Errorf("run menu: %w", err)
	}

	fm, ok := final.(model)
	if !ok || fm.cancelled || !fm.done {
		return 0, selection.ErrCancelled
	}
	log.Debug().Int("choice", fm.chosen).Msg("menu choice")
	return fm.chosen, nil
}

func (c *Chooser) newModel(menu selection.Menu) (model, error) {
	renderer, err := c.renderer()
	if err != nil {
		return model{}, err
	}

	title := menu.Title
	single := len(menu.Options) == 2 && menu.Options[0] == selection.OptionUse
	items := make([]list.Item, 0, len(menu.Options))
	for i, opt := range menu.Options {
		it := item{label: opt, index: i}
		switch {
		case single:
			it.preview = renderPreview(renderer, menu.Title)
		case opt != selection.OptionRegenerate:
			it.preview = renderPreview(renderer, stripNumber(opt))
		}
		items = append(items, it)
	}
	if single {
		title = "Commit message"
	}

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle
	if menu.Default >= 0 && menu.Default < len(items) {
		l.Select(menu.Default)
	}
	return model{list: l, title: title}, nil
}

func (c *Chooser) renderer() (*glamour.TermRenderer, error) {
	style := glamour.WithAutoStyle()
	if c.Style != "" {
		style = glamour.WithStandardStyle(c.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(defaultWidth))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return r, nil
}

func renderPreview(r *glamour.TermRenderer, text string) string {
	out, err := r.Render(text)
	if err != nil {
		log.Debug().Err(err).Msg("render preview")
		return text
	}
	return strings.Trim(out, "\n")
}

// stripNumber removes the "N. " prefix menus put in front of candidates.
func stripNumber(label string) string {
	if i := strings.Index(label, ". "); i > 0 && strings.Trim(label[:i], "0123456789") == "" {
		return label[i+2:]
	}
	return label
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
