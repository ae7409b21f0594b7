// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/marquee/internal/tmdb"
)

const (
	listWidth  = 80
	listHeight = 16

	// DefaultMinVotes hides obscure entries that clutter broad searches.
	DefaultMinVotes = 100
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m, tea.WithAltScreen()).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected an item.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user quit.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *tmdb.SearchResult
}

type keyMap struct {
	open key.Binding
	skip key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		skip: key.NewBinding(key.WithKeys("s", "esc"), key.WithHelp("s", "skip")),
		quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type model struct {
	list   list.Model
	keys   keyMap
	theme  theme
	query  string
	result SelectionResult
}

func newModel(query string, results []tmdb.SearchResult) *model {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{result: r}
	}

	th := defaultTheme()
	l := list.New(items, cardDelegate{theme: th}, listWidth, listHeight)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return &model{
		list:  l,
		keys:  newKeyMap(),
		theme: th,
		query: query,
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.open):
			it, ok := m.list.SelectedItem().(resultItem)
			if !ok {
				return m, nil
			}
			picked := it.result
			return m.finish(SelectionResult{Action: ActionSelected, Selection: &picked})
		case key.Matches(msg, m.keys.skip):
			return m.finish(SelectionResult{Action: ActionSkipped})
		case key.Matches(msg, m.keys.quit):
			return m.finish(SelectionResult{Action: ActionStopped})
		}
	case tea.WindowSizeMsg:
		m.list.SetSize(fitSize(listWidth, msg.Width-2, 40), fitSize(listHeight, msg.Height-5, 4))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) finish(result SelectionResult) (tea.Model, tea.Cmd) {
	m.result = result
	return m, tea.Quit
}

func (m *model) View() string {
	header := m.theme.header.Render(fmt.Sprintf("%d titles matching %q", len(m.list.Items()), m.query))
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View(), m.hints())
}

// hints renders the key bindings plus list navigation as a single footer line.
func (m *model) hints() string {
	bindings := []key.Binding{
		key.NewBinding(key.WithHelp("↑/↓", "move")),
		m.keys.open,
		m.keys.skip,
		m.keys.quit,
	}

	parts := make([]string, len(bindings))
	for i, b := range bindings {
		h := b.Help()
		parts[i] = m.theme.hintKey.Render(h.Key) + " " + m.theme.hintText.Render(h.Desc)
	}
	return strings.Join(parts, m.theme.hintText.Render("  •  "))
}

// Select presents an interactive selection UI for TMDB search results. Results
// with fewer than minVotes votes are hidden; when nothing remains the selection
// counts as skipped.
func Select(query string, results []tmdb.SearchResult, minVotes int) (SelectionResult, error) {
	shown := filterByVotes(results, minVotes)
	if len(shown) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	final, err := runProgram(newModel(query, shown))
	if err != nil {
		return SelectionResult{}, err
	}

	m, ok := final.(*model)
	if !ok {
		return SelectionResult{}, fmt.Errorf("unexpected program result %T", final)
	}
	return m.result, nil
}

func filterByVotes(results []tmdb.SearchResult, minVotes int) []tmdb.SearchResult {
	kept := make([]tmdb.SearchResult, 0, len(results))
	for _, r := range results {
		if r.VoteCount >= minVotes {
			kept = append(kept, r)
		}
	}
	return kept
}

// fitSize shrinks preferred to the available space without going below minimum.
func fitSize(preferred, available, minimum int) int {
	size := preferred
	if available > 0 && available < preferred {
		size = available
	}
	return max(size, minimum)
}
