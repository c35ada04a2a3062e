// Package tui is the interactive hero browser.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marshallshelly/superheroes/internal/store"
)

// BrowseMode is the current screen of the browser.
type BrowseMode int

const (
	ModeLoading BrowseMode = iota
	ModeList
	ModeConfirm
	ModeError
)

// BrowseModel is the bubbletea model for browsing heroes.
type BrowseModel struct {
	mode         BrowseMode
	store        store.Store
	list         list.Model
	confirmation ConfirmationDialog
	pending      HeroItem
	status       string
	err          error
	width        int
	height       int
}

// NewBrowseModel creates a browser over s.
func NewBrowseModel(s store.Store) BrowseModel {
	l := list.New(nil, HeroItemDelegate{}, 0, 0)
	l.Title = "Heroes"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return BrowseModel{mode: ModeLoading, store: s, list: l}
}

type heroesLoadedMsg struct {
	items []HeroItem
}

type heroDeletedMsg struct {
	item HeroItem
}

type errorMsg struct {
	err error
}

// LoadHeroes returns every hero with its powers, ordered by id.
func LoadHeroes(ctx context.Context, s store.Store) ([]HeroItem, error) {
	heroes, err := s.ListHeroes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list heroes: %w", err)
	}

	powerNames := make(map[int64]string)
	items := make([]HeroItem, 0, len(heroes))
	for _, h := range heroes {
		owned, err := s.HeroPowersOf(ctx, h.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load powers of hero %d: %w", h.ID, err)
		}

		item := HeroItem{ID: h.ID, Name: text(h.Name), SuperName: text(h.SuperName)}
		for _, hp := range owned {
			name, ok := powerNames[hp.PowerID]
			if !ok {
				p, err := s.GetPower(ctx, hp.PowerID)
				if err != nil {
					return nil, fmt.Errorf("failed to load power %d: %w", hp.PowerID, err)
				}
				name = text(p.Name)
				powerNames[hp.PowerID] = name
			}
			item.Powers = append(item.Powers, PowerLine{Name: name, Strength: hp.Strength})
		}
		items = append(items, item)
	}
	return items, nil
}

func text(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}

func (m BrowseModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := LoadHeroes(context.Background(), m.store)
		if err != nil {
			return errorMsg{err: err}
		}
		return heroesLoadedMsg{items: items}
	}
}

func (m BrowseModel) deleteCmd(item HeroItem) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.DeleteHero(context.Background(), item.ID); err != nil {
			return errorMsg{err: fmt.Errorf("failed to delete hero %d: %w", item.ID, err)}
		}
		return heroDeletedMsg{item: item}
	}
}

// Init loads the heroes.
func (m BrowseModel) Init() tea.Cmd {
	return m.loadCmd()
}

// Update handles messages.
func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case heroesLoadedMsg:
		items := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			items[i] = it
		}
		m.mode = ModeList
		return m, m.list.SetItems(items)

	case heroDeletedMsg:
		m.status = fmt.Sprintf("Deleted %s with %d hero power(s)", msg.item.Name, len(msg.item.Powers))
		return m, m.loadCmd()

	case errorMsg:
		m.mode = ModeError
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeList:
			if m.list.FilterState() == list.Filtering {
				break
			}
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "r":
				return m, m.loadCmd()
			case "d", "delete":
				item, ok := m.list.SelectedItem().(HeroItem)
				if !ok {
					return m, nil
				}
				m.pending = item
				m.confirmation = NewConfirmationDialog(
					"Delete Hero",
					fmt.Sprintf("Delete %s aka %s and its %d hero power(s)?", item.Name, item.SuperName, len(item.Powers)),
				)
				m.mode = ModeConfirm
				return m, nil
			}

		case ModeConfirm:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			done, confirmed := m.confirmation.Update(msg)
			if !done {
				return m, nil
			}
			m.mode = ModeList
			if confirmed {
				return m, m.deleteCmd(m.pending)
			}
			return m, nil

		case ModeError, ModeLoading:
			switch msg.String() {
			case "ctrl+c", "q", "enter":
				return m, tea.Quit
			}
			return m, nil
		}
	}

	if m.mode == ModeList {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the browser.
func (m BrowseModel) View() string {
	switch m.mode {
	case ModeLoading:
		return mutedStyle.Render("Loading heroes...")

	case ModeList:
		help := helpStyle.Render(
			FormatKey("↑/↓", "navigate") + " • " +
				FormatKey("/", "filter") + " • " +
				FormatKey("d", "delete") + " • " +
				FormatKey("r", "reload") + " • " +
				FormatKey("q", "quit"),
		)
		views := []string{m.list.View()}
		if m.status != "" {
			views = append(views, successStyle.Render(m.status))
		}
		views = append(views, help)
		return lipgloss.JoinVertical(lipgloss.Left, views...)

	case ModeConfirm:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirmation.View())

	case ModeError:
		msg := titleStyle.Render("Error") + "\n\n" +
			errorStyle.Render(m.err.Error()) + "\n\n" +
			helpStyle.Render(FormatKey("enter/q", "exit"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(msg))
	}
	return "Unknown mode"
}

// RunBrowser starts the interactive browser on the alternate screen.
func RunBrowser(s store.Store) error {
	_, err := tea.NewProgram(NewBrowseModel(s), tea.WithAltScreen()).Run()
	return err
}
