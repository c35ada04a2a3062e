package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store/memstore"
)

const flightDescription = "gives the wielder the ability to fly through the skies at supersonic speed"

func seed(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	s := memstore.New(nil)

	kamala := models.NewHero("Kamala Khan", "Ms. Marvel")
	require.NoError(t, s.CreateHero(ctx, kamala))
	require.NoError(t, s.CreateHero(ctx, models.NewHero("Doreen Green", "Squirrel Girl")))

	flight, err := models.NewPower("flight", flightDescription)
	require.NoError(t, err)
	require.NoError(t, s.CreatePower(ctx, flight))

	hp, err := models.NewHeroPower(kamala.ID, flight.ID, "Average")
	require.NoError(t, err)
	require.NoError(t, s.CreateHeroPower(ctx, hp))
	return s
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and runs the returned command once.
func step(t *testing.T, m BrowseModel, msg tea.Msg) (BrowseModel, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	bm := next.(BrowseModel)
	if cmd == nil {
		return bm, nil
	}
	return bm, cmd()
}

func TestLoadHeroes(t *testing.T) {
	items, err := LoadHeroes(context.Background(), seed(t))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Kamala Khan", items[0].Name)
	assert.Equal(t, []PowerLine{{Name: "flight", Strength: "Average"}}, items[0].Powers)
	assert.Empty(t, items[1].Powers)
}

func TestBrowseModel_LoadAndDelete(t *testing.T) {
	s := seed(t)
	m := NewBrowseModel(s)

	loaded := m.Init()()
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, loaded)
	require.Equal(t, ModeList, m.mode)
	assert.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "Kamala Khan")

	m, _ = step(t, m, key("d"))
	require.Equal(t, ModeConfirm, m.mode)
	assert.Contains(t, m.View(), "Delete Hero")

	m, _ = step(t, m, key("h"))
	assert.True(t, m.confirmation.YesSelected)

	m, deleted := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.IsType(t, heroDeletedMsg{}, deleted)

	m, reloaded := step(t, m, deleted)
	assert.Contains(t, m.status, "Deleted Kamala Khan with 1 hero power(s)")
	m, _ = step(t, m, reloaded)
	assert.Len(t, m.list.Items(), 1)

	all, err := s.ListHeroPowers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBrowseModel_CancelDelete(t *testing.T) {
	s := seed(t)
	m := NewBrowseModel(s)
	m, _ = step(t, m, m.Init()())

	m, _ = step(t, m, key("d"))
	m, msg := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, msg)
	assert.Equal(t, ModeList, m.mode)

	heroes, err := s.ListHeroes(context.Background())
	require.NoError(t, err)
	assert.Len(t, heroes, 2)
}

func TestBrowseModel_Error(t *testing.T) {
	m := NewBrowseModel(memstore.New(nil))
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = step(t, m, errorMsg{err: assert.AnError})

	assert.Equal(t, ModeError, m.mode)
	assert.Contains(t, m.View(), assert.AnError.Error())
}

func TestConfirmationDialog(t *testing.T) {
	d := NewConfirmationDialog("t", "m")

	done, _ := d.Update(key("l"))
	assert.False(t, done)

	done, confirmed := d.Update(key("y"))
	assert.True(t, done)
	assert.True(t, confirmed)

	done, confirmed = d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, done)
	assert.False(t, confirmed)
}
