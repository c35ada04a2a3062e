package serialize_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/serialize"
	"github.com/marshallshelly/superheroes/internal/store/memstore"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

const flightDescription = "gives the wielder the ability to fly through the skies at supersonic speed"

type fixture struct {
	store *memstore.Store
	hero  *models.Hero
	power *models.Power
	hp    *models.HeroPower
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New(nil)

	h := models.NewHero("Kamala Khan", "Ms. Marvel")
	require.NoError(t, s.CreateHero(ctx, h))
	p, err := models.NewPower("flight", flightDescription)
	require.NoError(t, err)
	require.NoError(t, s.CreatePower(ctx, p))
	hp, err := models.NewHeroPower(h.ID, p.ID, models.StrengthAverage)
	require.NoError(t, err)
	require.NoError(t, s.CreateHeroPower(ctx, hp))

	return fixture{store: s, hero: h, power: p, hp: hp}
}

func TestHero_DefaultRules(t *testing.T) {
	f := newFixture(t)

	node, err := serialize.Hero(context.Background(), f.store, f.hero, serialize.HeroRules)
	require.NoError(t, err)

	assert.Equal(t, serialize.Node{
		"id":         f.hero.ID,
		"name":       "Kamala Khan",
		"super_name": "Ms. Marvel",
		"hero_powers": []serialize.Node{{
			"id":       f.hp.ID,
			"strength": "Average",
			"hero_id":  f.hero.ID,
			"power_id": f.power.ID,
			"power": serialize.Node{
				"id":          f.power.ID,
				"name":        "flight",
				"description": flightDescription,
			},
		}},
	}, node)
}

func TestPower_DefaultRules(t *testing.T) {
	f := newFixture(t)

	node, err := serialize.Power(context.Background(), f.store, f.power, serialize.PowerRules)
	require.NoError(t, err)

	list := node["hero_powers"].([]serialize.Node)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0], "power")
	assert.Equal(t, serialize.Node{
		"id":         f.hero.ID,
		"name":       "Kamala Khan",
		"super_name": "Ms. Marvel",
	}, list[0]["hero"])
}

func TestHeroPower_DefaultRules(t *testing.T) {
	f := newFixture(t)

	node, err := serialize.HeroPower(context.Background(), f.store, f.hp, serialize.HeroPowerRules)
	require.NoError(t, err)

	assert.Equal(t, serialize.Node{
		"id":       f.hp.ID,
		"strength": "Average",
		"hero_id":  f.hero.ID,
		"power_id": f.power.ID,
		"hero": serialize.Node{
			"id":         f.hero.ID,
			"name":       "Kamala Khan",
			"super_name": "Ms. Marvel",
		},
		"power": serialize.Node{
			"id":          f.power.ID,
			"name":        "flight",
			"description": flightDescription,
		},
	}, node)
}

func TestHero_EmptyRulesStillTerminates(t *testing.T) {
	f := newFixture(t)

	node, err := serialize.Hero(context.Background(), f.store, f.hero, nil)
	require.NoError(t, err)

	hp := node["hero_powers"].([]serialize.Node)[0]
	back := hp["hero"].(serialize.Node)
	assert.NotContains(t, back, "hero_powers")

	_, err = json.Marshal(node)
	assert.NoError(t, err)
}

func TestHero_UsesLoadedRelationships(t *testing.T) {
	name := "flight"
	h := models.NewHero("Kamala Khan", "Ms. Marvel")
	h.ID = 1
	h.HeroPowers = []models.HeroPower{{
		ID: 2, Strength: "Strong", HeroID: 1, PowerID: 3,
		Power: &models.Power{ID: 3, Name: &name, Description: flightDescription},
	}}

	// An empty store proves nothing is fetched.
	node, err := serialize.Hero(context.Background(), memstore.New(nil), h, serialize.HeroRules)
	require.NoError(t, err)

	hp := node["hero_powers"].([]serialize.Node)[0]
	assert.Equal(t, int64(3), hp["power"].(serialize.Node)["id"])
}

func TestHero_NoHeroPowers(t *testing.T) {
	s := memstore.New(nil)
	h := models.NewHero("Bruce Banner", "Hulk")
	require.NoError(t, s.CreateHero(context.Background(), h))

	node, err := serialize.Hero(context.Background(), s, h, serialize.HeroRules)
	require.NoError(t, err)
	assert.Equal(t, []serialize.Node{}, node["hero_powers"])

	out, err := json.Marshal(node)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"hero_powers":[]`)
}

func TestHeroPower_MissingParent(t *testing.T) {
	hp := &models.HeroPower{ID: 1, Strength: "Weak", HeroID: 9, PowerID: 9}

	_, err := serialize.HeroPower(context.Background(), memstore.New(nil), hp, serialize.HeroPowerRules)
	assert.ErrorIs(t, err, runtime.ErrNotFound)
}

func TestSummaries_NullNames(t *testing.T) {
	out, err := json.Marshal(serialize.HeroSummary(&models.Hero{ID: 4}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":4,"name":null,"super_name":null}`, string(out))
}

func TestRules_Excludes(t *testing.T) {
	r := serialize.NewRules("a.b", "c")
	assert.True(t, r.Excludes("a.b"))
	assert.True(t, r.Excludes("c"))
	assert.False(t, r.Excludes("a"))

	var none serialize.Rules
	assert.False(t, none.Excludes("a"))
}
