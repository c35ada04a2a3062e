package models

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/superheroes/pkg/registry"
	"github.com/marshallshelly/superheroes/pkg/runtime"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

const flight = "gives the wielder the ability to fly through the skies at supersonic speed"

func TestValidateDescription(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty", "", true},
		{"too short", "too short", true},
		{"nineteen", strings.Repeat("a", 19), true},
		{"exactly twenty", strings.Repeat("a", 20), false},
		{"long", flight, false},
		{"multibyte counted as characters", strings.Repeat("é", 20), false},
		{"multibyte short", strings.Repeat("é", 19), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDescription(tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ve *runtime.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "description", ve.Field)
			assert.Equal(t, "Description must be at least 20 characters long.", ve.Message)
		})
	}
}

func TestValidateStrength(t *testing.T) {
	for _, s := range []string{"Strong", "Weak", "Average"} {
		assert.NoError(t, ValidateStrength(s), s)
	}
	for _, s := range []string{"", "Mega", "strong", "STRONG", " Weak", "Strong Weak"} {
		err := ValidateStrength(s)
		var ve *runtime.ValidationError
		require.ErrorAs(t, err, &ve, "%q", s)
		assert.Equal(t, "strength", ve.Field)
		assert.Equal(t, "Strength must be one of: 'Strong', 'Weak', 'Average'", ve.Message)
	}
}

func TestStrengths(t *testing.T) {
	got := Strengths()
	assert.Equal(t, []string{"Strong", "Weak", "Average"}, got)

	got[0] = "Mega"
	assert.Equal(t, "Strong", Strengths()[0], "Strengths must return a copy")
}

func TestNewPower(t *testing.T) {
	p, err := NewPower("flight", flight)
	require.NoError(t, err)
	assert.Equal(t, flight, p.Description)
	assert.Equal(t, "flight", *p.Name)

	p, err = NewPower("flight", "too short")
	assert.Nil(t, p)
	assert.True(t, runtime.IsValidationError(err))
}

func TestPower_SetDescriptionKeepsPreviousOnError(t *testing.T) {
	p, err := NewPower("flight", flight)
	require.NoError(t, err)

	err = p.SetDescription("short")
	require.Error(t, err)
	assert.Equal(t, flight, p.Description)

	require.NoError(t, p.SetDescription(strings.Repeat("x", 20)))
	assert.Equal(t, strings.Repeat("x", 20), p.Description)

	p.Description = "bypassed"
	assert.Error(t, p.Validate())
}

func TestNewHeroPower(t *testing.T) {
	hp, err := NewHeroPower(1, 2, "Average")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hp.HeroID)
	assert.Equal(t, int64(2), hp.PowerID)
	assert.Equal(t, "Average", hp.Strength)

	hp, err = NewHeroPower(1, 2, "Mega")
	assert.Nil(t, hp)
	var ve *runtime.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Message, "'Strong', 'Weak', 'Average'")
}

func TestHeroPower_SetStrengthKeepsPreviousOnError(t *testing.T) {
	hp, err := NewHeroPower(1, 1, "Weak")
	require.NoError(t, err)

	assert.Error(t, hp.SetStrength("weak"))
	assert.Equal(t, "Weak", hp.Strength)

	require.NoError(t, hp.SetStrength("Strong"))
	assert.Equal(t, "Strong", hp.Strength)
	assert.NoError(t, hp.Validate())
}

func TestString(t *testing.T) {
	h := NewHero("Kamala Khan", "Ms. Marvel")
	h.ID = 1
	assert.Equal(t, "<Hero 1 - Kamala Khan aka Ms. Marvel>", h.String())
	assert.Equal(t, "<Hero 0 - None aka None>", (&Hero{}).String())

	p, err := NewPower("flight", flight)
	require.NoError(t, err)
	p.ID = 3
	assert.Equal(t, "<Power 3 - flight>", p.String())

	hp, err := NewHeroPower(1, 3, "Average")
	require.NoError(t, err)
	hp.ID = 7
	assert.Equal(t, "<HeroPower 7 - hero 1 with power 3 at Average strength>", hp.String())

	hp.Hero, hp.Power = h, p
	assert.Equal(t, "<HeroPower 7 - Kamala Khan with flight at Average strength>", hp.String())
}

func TestDerivedViews(t *testing.T) {
	h := NewHero("Kamala Khan", "Ms. Marvel")
	p, err := NewPower("flight", flight)
	require.NoError(t, err)

	h.HeroPowers = []HeroPower{{Strength: "Average", Power: p}, {Strength: "Weak"}}
	assert.Equal(t, []*Power{p}, h.Powers())

	p.HeroPowers = []HeroPower{{Strength: "Average", Hero: h}}
	assert.Equal(t, []*Hero{h}, p.Heroes())
}

func TestRegisterAll(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, RegisterAll(reg))

	var names []string
	for _, table := range reg.All() {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{"heroes", "powers", "hero_powers"}, names)

	hp, err := reg.GetByName("hero_powers")
	require.NoError(t, err)
	require.Len(t, hp.ForeignKeys, 2)
	assert.Equal(t, "fk_hero_powers_hero_id_heroes", hp.ForeignKeys[0].Name)
	assert.Equal(t, "fk_hero_powers_power_id_powers", hp.ForeignKeys[1].Name)
	for _, fk := range hp.ForeignKeys {
		assert.Equal(t, schema.Cascade, fk.OnDelete)
	}

	heroes, err := reg.GetByName("heroes")
	require.NoError(t, err)
	deps := heroes.CascadeDependents()
	require.Len(t, deps, 1)
	assert.Equal(t, "hero_powers", deps[0].TargetTable)
	assert.Equal(t, "hero_id", deps[0].ForeignKey)

	powers, err := reg.GetByName("powers")
	require.NoError(t, err)
	require.Len(t, powers.CascadeDependents(), 1)
	assert.Equal(t, "power_id", powers.CascadeDependents()[0].ForeignKey)
}
