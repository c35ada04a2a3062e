// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

// Description is a valid Power description.
const Description = "gives the wielder the ability to fly through the skies at supersonic speed"

// Factory returns an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises s against the store.Store contract.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Scenario", testScenario},
		{"HeroCRUD", testHeroCRUD},
		{"PowerValidation", testPowerValidation},
		{"HeroPowerValidation", testHeroPowerValidation},
		{"ForeignKeys", testForeignKeys},
		{"DeleteHeroCascades", testDeleteHeroCascades},
		{"DeletePowerCascades", testDeletePowerCascades},
		{"DeleteHeroPowerKeepsParents", testDeleteHeroPowerKeepsParents},
		{"DerivedViewsAreDistinct", testDerivedViewsAreDistinct},
		{"NotFound", testNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustHero(t *testing.T, s store.Store, name, superName string) *models.Hero {
	t.Helper()
	h := models.NewHero(name, superName)
	require.NoError(t, s.CreateHero(context.Background(), h))
	require.NotZero(t, h.ID)
	return h
}

func mustPower(t *testing.T, s store.Store, name string) *models.Power {
	t.Helper()
	p, err := models.NewPower(name, Description)
	require.NoError(t, err)
	require.NoError(t, s.CreatePower(context.Background(), p))
	require.NotZero(t, p.ID)
	return p
}

func mustHeroPower(t *testing.T, s store.Store, heroID, powerID int64, strength string) *models.HeroPower {
	t.Helper()
	hp, err := models.NewHeroPower(heroID, powerID, strength)
	require.NoError(t, err)
	require.NoError(t, s.CreateHeroPower(context.Background(), hp))
	require.NotZero(t, hp.ID)
	return hp
}

func testScenario(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	p := mustPower(t, s, "flight")
	hp := mustHeroPower(t, s, h.ID, p.ID, "Average")

	got, err := s.GetHeroPower(ctx, hp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Average", got.Strength)
	assert.Equal(t, h.ID, got.HeroID)
	assert.Equal(t, p.ID, got.PowerID)

	owned, err := s.HeroPowersOf(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, hp.ID, owned[0].ID)

	powers, err := s.PowersOf(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, powers, 1)
	assert.Equal(t, "flight", *powers[0].Name)

	heroes, err := s.HeroesWith(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, heroes, 1)
	assert.Equal(t, "Ms. Marvel", *heroes[0].SuperName)
}

func testHeroCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Doreen Green", "Squirrel Girl")
	mustHero(t, s, "Gwen Stacy", "Spider-Gwen")

	name := "Doreen Allene Green"
	h.Name = &name
	h.SuperName = nil
	require.NoError(t, s.UpdateHero(ctx, h))

	got, err := s.GetHero(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, name, *got.Name)
	assert.Nil(t, got.SuperName)

	all, err := s.ListHeroes(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Less(t, all[0].ID, all[1].ID)
}

func testPowerValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := models.NewPower("weak", "too short")
	require.True(t, runtime.IsValidationError(err))

	bypass := &models.Power{Description: "too short"}
	require.True(t, runtime.IsValidationError(s.CreatePower(ctx, bypass)))
	all, err := s.ListPowers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected power must not be persisted")

	p := mustPower(t, s, "flight")
	p.Description = "short"
	require.True(t, runtime.IsValidationError(s.UpdatePower(ctx, p)))

	stored, err := s.GetPower(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, Description, stored.Description)

	exact := strings.Repeat("x", models.MinDescriptionLength)
	require.NoError(t, stored.SetDescription(exact))
	require.NoError(t, s.UpdatePower(ctx, stored))
	stored, err = s.GetPower(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, exact, stored.Description)
}

func testHeroPowerValidation(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	p := mustPower(t, s, "flight")

	bypass := &models.HeroPower{HeroID: h.ID, PowerID: p.ID, Strength: "Mega"}
	err := s.CreateHeroPower(ctx, bypass)
	var ve *runtime.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "'Strong', 'Weak', 'Average'")

	hp := mustHeroPower(t, s, h.ID, p.ID, "Weak")
	hp.Strength = "weak"
	require.True(t, runtime.IsValidationError(s.UpdateHeroPower(ctx, hp)))

	require.NoError(t, hp.SetStrength("Strong"))
	require.NoError(t, s.UpdateHeroPower(ctx, hp))
	got, err := s.GetHeroPower(ctx, hp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Strong", got.Strength)
}

func testForeignKeys(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	p := mustPower(t, s, "flight")

	hp, err := models.NewHeroPower(h.ID+1000, p.ID, "Strong")
	require.NoError(t, err)
	require.ErrorIs(t, s.CreateHeroPower(ctx, hp), runtime.ErrForeignKeyViolation)

	hp, err = models.NewHeroPower(h.ID, p.ID+1000, "Strong")
	require.NoError(t, err)
	require.ErrorIs(t, s.CreateHeroPower(ctx, hp), runtime.ErrForeignKeyViolation)

	all, err := s.ListHeroPowers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testDeleteHeroCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	kamala := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	gwen := mustHero(t, s, "Gwen Stacy", "Spider-Gwen")
	flight := mustPower(t, s, "flight")
	strength := mustPower(t, s, "super strength")

	mustHeroPower(t, s, kamala.ID, flight.ID, "Average")
	mustHeroPower(t, s, kamala.ID, strength.ID, "Strong")
	mustHeroPower(t, s, kamala.ID, strength.ID, "Weak")
	kept := mustHeroPower(t, s, gwen.ID, strength.ID, "Strong")

	require.NoError(t, s.DeleteHero(ctx, kamala.ID))

	_, err := s.GetHero(ctx, kamala.ID)
	require.ErrorIs(t, err, runtime.ErrNotFound)

	all, err := s.ListHeroPowers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	powers, err := s.ListPowers(ctx)
	require.NoError(t, err)
	assert.Len(t, powers, 2, "powers are never deleted by a hero cascade")

	heroes, err := s.ListHeroes(ctx)
	require.NoError(t, err)
	require.Len(t, heroes, 1)
	assert.Equal(t, gwen.ID, heroes[0].ID)
}

func testDeletePowerCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	kamala := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	gwen := mustHero(t, s, "Gwen Stacy", "Spider-Gwen")
	flight := mustPower(t, s, "flight")
	strength := mustPower(t, s, "super strength")

	mustHeroPower(t, s, kamala.ID, flight.ID, "Average")
	mustHeroPower(t, s, gwen.ID, flight.ID, "Weak")
	kept := mustHeroPower(t, s, gwen.ID, strength.ID, "Strong")

	require.NoError(t, s.DeletePower(ctx, flight.ID))

	all, err := s.ListHeroPowers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	heroes, err := s.ListHeroes(ctx)
	require.NoError(t, err)
	assert.Len(t, heroes, 2)

	owned, err := s.HeroPowersOf(ctx, kamala.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func testDeleteHeroPowerKeepsParents(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	p := mustPower(t, s, "flight")
	hp := mustHeroPower(t, s, h.ID, p.ID, "Average")

	require.NoError(t, s.DeleteHeroPower(ctx, hp.ID))
	_, err := s.GetHero(ctx, h.ID)
	require.NoError(t, err)
	_, err = s.GetPower(ctx, p.ID)
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteHeroPower(ctx, hp.ID), runtime.ErrNotFound)
}

func testDerivedViewsAreDistinct(t *testing.T, s store.Store) {
	ctx := context.Background()
	h := mustHero(t, s, "Kamala Khan", "Ms. Marvel")
	p := mustPower(t, s, "flight")
	mustHeroPower(t, s, h.ID, p.ID, "Average")
	mustHeroPower(t, s, h.ID, p.ID, "Strong")

	owned, err := s.HeroPowersOf(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	powers, err := s.PowersOf(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, powers, 1)

	heroes, err := s.HeroesWith(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, heroes, 1)

	forPower, err := s.HeroPowersFor(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, forPower, 2)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetHero(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
	_, err = s.GetPower(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
	_, err = s.GetHeroPower(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)

	assert.ErrorIs(t, s.DeleteHero(ctx, 42), runtime.ErrNotFound)
	assert.ErrorIs(t, s.DeletePower(ctx, 42), runtime.ErrNotFound)
	assert.ErrorIs(t, s.UpdateHero(ctx, &models.Hero{ID: 42}), runtime.ErrNotFound)

	p, err := models.NewPower("flight", Description)
	require.NoError(t, err)
	p.ID = 42
	assert.ErrorIs(t, s.UpdatePower(ctx, p), runtime.ErrNotFound)

	_, err = s.HeroPowersOf(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
	_, err = s.PowersOf(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
	_, err = s.HeroesWith(ctx, 42)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
}
