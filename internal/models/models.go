// Package models declares the Hero, Power and HeroPower records and the
// validation applied whenever a validated field is assigned.
package models

import (
	"fmt"

	"github.com/marshallshelly/superheroes/pkg/registry"
)

// Hero is a row of the heroes table.
type Hero struct {
	ID        int64   `po:"id,serial,primaryKey"`
	Name      *string `po:"name,text"`
	SuperName *string `po:"super_name,text"`

	// HeroPowers is owned: deleting the hero deletes these rows.
	HeroPowers []HeroPower `po:"-,hasMany,cascade,foreignKey(hero_id)"`
}

// TableName returns the table name.
func (Hero) TableName() string { return "heroes" }

// NewHero returns an unsaved Hero.
func NewHero(name, superName string) *Hero {
	return &Hero{Name: &name, SuperName: &superName}
}

// Powers returns the powers reached through loaded HeroPowers.
func (h *Hero) Powers() []*Power {
	var powers []*Power
	for i := range h.HeroPowers {
		if p := h.HeroPowers[i].Power; p != nil {
			powers = append(powers, p)
		}
	}
	return powers
}

func (h *Hero) String() string {
	return fmt.Sprintf("<Hero %d - %s aka %s>", h.ID, deref(h.Name), deref(h.SuperName))
}

// Power is a row of the powers table.
type Power struct {
	ID          int64   `po:"id,serial,primaryKey"`
	Name        *string `po:"name,text"`
	Description string  `po:"description,text,notNull"`

	HeroPowers []HeroPower `po:"-,hasMany,cascade,foreignKey(power_id)"`
}

// TableName returns the table name.
func (Power) TableName() string { return "powers" }

// NewPower returns an unsaved Power, rejecting a short description.
func NewPower(name, description string) (*Power, error) {
	p := &Power{Name: &name}
	if err := p.SetDescription(description); err != nil {
		return nil, err
	}
	return p, nil
}

// SetName assigns the name. Names are not validated.
func (p *Power) SetName(name string) {
	p.Name = &name
}

// SetDescription assigns the description if it is valid. On error the
// previous value is kept.
func (p *Power) SetDescription(description string) error {
	if err := ValidateDescription(description); err != nil {
		return err
	}
	p.Description = description
	return nil
}

// Validate re-checks fields that may have been assigned directly.
func (p *Power) Validate() error {
	return ValidateDescription(p.Description)
}

// Heroes returns the heroes reached through loaded HeroPowers.
func (p *Power) Heroes() []*Hero {
	var heroes []*Hero
	for i := range p.HeroPowers {
		if h := p.HeroPowers[i].Hero; h != nil {
			heroes = append(heroes, h)
		}
	}
	return heroes
}

func (p *Power) String() string {
	return fmt.Sprintf("<Power %d - %s>", p.ID, deref(p.Name))
}

// HeroPower associates a Hero with a Power at a strength.
type HeroPower struct {
	ID       int64  `po:"id,serial,primaryKey"`
	Strength string `po:"strength,text,notNull"`
	HeroID   int64  `po:"hero_id,integer,notNull,fk:heroes.id,onDelete:cascade"`
	PowerID  int64  `po:"power_id,integer,notNull,fk:powers.id,onDelete:cascade"`

	Hero  *Hero  `po:"-,belongsTo,foreignKey(hero_id)"`
	Power *Power `po:"-,belongsTo,foreignKey(power_id)"`
}

// TableName returns the table name.
func (HeroPower) TableName() string { return "hero_powers" }

// NewHeroPower returns an unsaved HeroPower, rejecting an unknown strength.
// Whether heroID and powerID exist is checked when the row is stored.
func NewHeroPower(heroID, powerID int64, strength string) (*HeroPower, error) {
	hp := &HeroPower{HeroID: heroID, PowerID: powerID}
	if err := hp.SetStrength(strength); err != nil {
		return nil, err
	}
	return hp, nil
}

// SetStrength assigns the strength if it is allowed. On error the previous
// value is kept.
func (hp *HeroPower) SetStrength(strength string) error {
	if err := ValidateStrength(strength); err != nil {
		return err
	}
	hp.Strength = strength
	return nil
}

// Validate re-checks fields that may have been assigned directly.
func (hp *HeroPower) Validate() error {
	return ValidateStrength(hp.Strength)
}

func (hp *HeroPower) String() string {
	hero := fmt.Sprintf("hero %d", hp.HeroID)
	if hp.Hero != nil {
		hero = deref(hp.Hero.Name)
	}
	power := fmt.Sprintf("power %d", hp.PowerID)
	if hp.Power != nil {
		power = deref(hp.Power.Name)
	}
	return fmt.Sprintf("<HeroPower %d - %s with %s at %s strength>", hp.ID, hero, power, hp.Strength)
}

// RegisterAll registers the three models with reg, parents first.
func RegisterAll(reg *registry.Registry) error {
	for _, m := range []any{Hero{}, Power{}, HeroPower{}} {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "None"
	}
	return *s
}
