package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store"
	"github.com/marshallshelly/superheroes/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New(nil)
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	h := models.NewHero("Kamala Khan", "Ms. Marvel")
	require.NoError(t, s.CreateHero(ctx, h))
	*h.Name = "changed after create"

	got, err := s.GetHero(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kamala Khan", *got.Name)

	*got.Name = "changed after get"
	again, err := s.GetHero(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kamala Khan", *again.Name)
}

func TestStore_DropsRelationshipFields(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	h := models.NewHero("Kamala Khan", "Ms. Marvel")
	h.HeroPowers = []models.HeroPower{{Strength: "Strong"}}
	require.NoError(t, s.CreateHero(ctx, h))

	got, err := s.GetHero(ctx, h.ID)
	require.NoError(t, err)
	assert.Nil(t, got.HeroPowers)
}

func TestStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	h := models.NewHero("Kamala Khan", "Ms. Marvel")
	require.NoError(t, s.CreateHero(ctx, h))
	p, err := models.NewPower("flight", storetest.Description)
	require.NoError(t, err)
	require.NoError(t, s.CreatePower(ctx, p))

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			hp, err := models.NewHeroPower(h.ID, p.ID, "Average")
			if assert.NoError(t, err) {
				assert.NoError(t, s.CreateHeroPower(ctx, hp))
			}
		})
	}
	wg.Wait()

	owned, err := s.HeroPowersOf(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, owned, n)

	seen := make(map[int64]bool, n)
	for _, hp := range owned {
		assert.False(t, seen[hp.ID], "duplicate id %d", hp.ID)
		seen[hp.ID] = true
	}
}
