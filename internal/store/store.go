// Package store defines persistence for heroes, powers and the hero_powers
// association. Implementations live in the memstore and pgstore packages.
package store

import (
	"context"

	"github.com/marshallshelly/superheroes/internal/models"
)

// Store persists the three models.
//
// Create methods assign the generated ID to their argument. Records returned
// by the store carry column values only; relationship fields are nil.
// Missing rows surface runtime.ErrNotFound. A HeroPower referencing a
// missing hero or power surfaces runtime.ErrForeignKeyViolation.
// DeleteHero and DeletePower also delete the HeroPowers that reference the
// deleted row, and nothing else.
type Store interface {
	CreateHero(ctx context.Context, h *models.Hero) error
	GetHero(ctx context.Context, id int64) (*models.Hero, error)
	ListHeroes(ctx context.Context) ([]models.Hero, error)
	UpdateHero(ctx context.Context, h *models.Hero) error
	DeleteHero(ctx context.Context, id int64) error

	CreatePower(ctx context.Context, p *models.Power) error
	GetPower(ctx context.Context, id int64) (*models.Power, error)
	ListPowers(ctx context.Context) ([]models.Power, error)
	UpdatePower(ctx context.Context, p *models.Power) error
	DeletePower(ctx context.Context, id int64) error

	CreateHeroPower(ctx context.Context, hp *models.HeroPower) error
	GetHeroPower(ctx context.Context, id int64) (*models.HeroPower, error)
	ListHeroPowers(ctx context.Context) ([]models.HeroPower, error)
	UpdateHeroPower(ctx context.Context, hp *models.HeroPower) error
	DeleteHeroPower(ctx context.Context, id int64) error

	// HeroPowersOf returns the HeroPowers owned by a hero.
	HeroPowersOf(ctx context.Context, heroID int64) ([]models.HeroPower, error)
	// HeroPowersFor returns the HeroPowers owned by a power.
	HeroPowersFor(ctx context.Context, powerID int64) ([]models.HeroPower, error)
	// PowersOf returns the distinct powers a hero holds.
	PowersOf(ctx context.Context, heroID int64) ([]models.Power, error)
	// HeroesWith returns the distinct heroes holding a power.
	HeroesWith(ctx context.Context, powerID int64) ([]models.Hero, error)
}

// Validator is implemented by models with validated fields.
type Validator interface {
	Validate() error
}

// CheckValid runs v.Validate when v has validated fields. Stores call it
// before every write so fields assigned directly cannot bypass validation.
func CheckValid(v any) error {
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}
