package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationDialog is a yes/no prompt. No is selected initially.
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

// NewConfirmationDialog creates a new confirmation dialog.
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{Title: title, Message: message}
}

// Update moves the selection. done reports that the user answered, and
// confirmed whether the answer was yes.
func (d *ConfirmationDialog) Update(msg tea.Msg) (done, confirmed bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, false
	}
	switch key.String() {
	case "left", "h":
		d.YesSelected = true
	case "right", "l":
		d.YesSelected = false
	case "y":
		return true, true
	case "n", "esc", "q":
		return true, false
	case "enter":
		return true, d.YesSelected
	}
	return false, false
}

// View renders the dialog.
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yes, no := inactiveButtonStyle.Render("Yes"), activeButtonStyle.Render("No")
	if d.YesSelected {
		yes, no = activeButtonStyle.Render("Yes"), inactiveButtonStyle.Render("No")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(FormatKey("←/→", "choose") + " • " + FormatKey("enter", "confirm") + " • " + FormatKey("esc", "cancel")))

	return boxStyle.Render(b.String())
}

// PowerLine is one power held by a hero.
type PowerLine struct {
	Name     string
	Strength string
}

// HeroItem is a hero in the browser list.
type HeroItem struct {
	ID        int64
	Name      string
	SuperName string
	Powers    []PowerLine
}

// FilterValue implements list.Item.
func (i HeroItem) FilterValue() string { return i.Name + " " + i.SuperName }

// Title is the first line of the item.
func (i HeroItem) Title() string {
	return fmt.Sprintf("%d  %s aka %s", i.ID, i.Name, i.SuperName)
}

// Description lists the hero's powers.
func (i HeroItem) Description() string {
	if len(i.Powers) == 0 {
		return mutedStyle.Render("no powers")
	}
	parts := make([]string, 0, len(i.Powers))
	for _, p := range i.Powers {
		parts = append(parts, p.Name+" ("+FormatStrength(p.Strength)+")")
	}
	return strings.Join(parts, ", ")
}

// HeroItemDelegate renders HeroItems on two lines.
type HeroItemDelegate struct{}

func (d HeroItemDelegate) Height() int                             { return 2 }
func (d HeroItemDelegate) Spacing() int                            { return 1 }
func (d HeroItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d HeroItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(HeroItem)
	if !ok {
		return
	}

	s := unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	}
	_, _ = fmt.Fprint(w, s)
}
