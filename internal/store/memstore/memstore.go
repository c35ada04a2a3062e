// Package memstore is an in-memory store.Store. Each table is an arena keyed
// by id; heroes and powers keep an index of the hero_powers rows they own.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store"
	"github.com/marshallshelly/superheroes/pkg/runtime"
)

type idSet map[int64]struct{}

// Store is safe for concurrent use. Every method is one critical section.
type Store struct {
	mu sync.RWMutex

	heroes     map[int64]models.Hero
	powers     map[int64]models.Power
	heroPowers map[int64]models.HeroPower

	byHero  map[int64]idSet
	byPower map[int64]idSet

	nextHero, nextPower, nextHeroPower int64

	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		heroes:     make(map[int64]models.Hero),
		powers:     make(map[int64]models.Power),
		heroPowers: make(map[int64]models.HeroPower),
		byHero:     make(map[int64]idSet),
		byPower:    make(map[int64]idSet),
		logger:     logger.With("store", "memory"),
	}
}

func notFound(table string, id int64) error {
	return fmt.Errorf("%s %d: %w", table, id, runtime.ErrNotFound)
}

func fkViolation(column, table string, id int64) error {
	return &runtime.ConstraintError{
		Constraint: "fk_hero_powers_" + column + "_" + table,
		Detail:     fmt.Sprintf("Key (%s)=(%d) is not present in table %q.", column, id, table),
		Kind:       runtime.ErrForeignKeyViolation,
	}
}

// Stored rows never carry relationship fields or share string pointers
// with the caller.
func heroRow(h models.Hero) models.Hero {
	h.HeroPowers = nil
	h.Name, h.SuperName = cloneString(h.Name), cloneString(h.SuperName)
	return h
}

func powerRow(p models.Power) models.Power {
	p.HeroPowers = nil
	p.Name = cloneString(p.Name)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func heroPowerRow(hp models.HeroPower) models.HeroPower {
	hp.Hero, hp.Power = nil, nil
	return hp
}

// sortedValues returns copies of the map's values ordered by id.
func sortedValues[V any](m map[int64]V, copyRow func(V) V) []V {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyRow(m[id]))
	}
	return out
}

// CreateHero implements store.Store.
func (s *Store) CreateHero(ctx context.Context, h *models.Hero) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHero++
	h.ID = s.nextHero
	s.heroes[h.ID] = heroRow(*h)
	s.byHero[h.ID] = make(idSet)
	s.logger.DebugContext(ctx, "hero created", "id", h.ID)
	return nil
}

// GetHero implements store.Store.
func (s *Store) GetHero(_ context.Context, id int64) (*models.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.heroes[id]
	if !ok {
		return nil, notFound("hero", id)
	}
	h = heroRow(h)
	return &h, nil
}

// ListHeroes implements store.Store.
func (s *Store) ListHeroes(_ context.Context) ([]models.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.heroes, heroRow), nil
}

// UpdateHero implements store.Store.
func (s *Store) UpdateHero(ctx context.Context, h *models.Hero) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.heroes[h.ID]; !ok {
		return notFound("hero", h.ID)
	}
	s.heroes[h.ID] = heroRow(*h)
	s.logger.DebugContext(ctx, "hero updated", "id", h.ID)
	return nil
}

// DeleteHero implements store.Store.
func (s *Store) DeleteHero(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.heroes[id]; !ok {
		return notFound("hero", id)
	}
	n := len(s.byHero[id])
	for hpID := range s.byHero[id] {
		s.removeHeroPower(hpID)
	}
	delete(s.byHero, id)
	delete(s.heroes, id)
	s.logger.DebugContext(ctx, "hero deleted", "id", id, "hero_powers", n)
	return nil
}

// CreatePower implements store.Store.
func (s *Store) CreatePower(ctx context.Context, p *models.Power) error {
	if err := store.CheckValid(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPower++
	p.ID = s.nextPower
	s.powers[p.ID] = powerRow(*p)
	s.byPower[p.ID] = make(idSet)
	s.logger.DebugContext(ctx, "power created", "id", p.ID)
	return nil
}

// GetPower implements store.Store.
func (s *Store) GetPower(_ context.Context, id int64) (*models.Power, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.powers[id]
	if !ok {
		return nil, notFound("power", id)
	}
	p = powerRow(p)
	return &p, nil
}

// ListPowers implements store.Store.
func (s *Store) ListPowers(_ context.Context) ([]models.Power, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.powers, powerRow), nil
}

// UpdatePower implements store.Store.
func (s *Store) UpdatePower(ctx context.Context, p *models.Power) error {
	if err := store.CheckValid(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.powers[p.ID]; !ok {
		return notFound("power", p.ID)
	}
	s.powers[p.ID] = powerRow(*p)
	s.logger.DebugContext(ctx, "power updated", "id", p.ID)
	return nil
}

// DeletePower implements store.Store.
func (s *Store) DeletePower(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.powers[id]; !ok {
		return notFound("power", id)
	}
	n := len(s.byPower[id])
	for hpID := range s.byPower[id] {
		s.removeHeroPower(hpID)
	}
	delete(s.byPower, id)
	delete(s.powers, id)
	s.logger.DebugContext(ctx, "power deleted", "id", id, "hero_powers", n)
	return nil
}

// CreateHeroPower implements store.Store.
func (s *Store) CreateHeroPower(ctx context.Context, hp *models.HeroPower) error {
	if err := store.CheckValid(hp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkReferences(hp); err != nil {
		return err
	}
	s.nextHeroPower++
	hp.ID = s.nextHeroPower
	s.heroPowers[hp.ID] = heroPowerRow(*hp)
	s.byHero[hp.HeroID][hp.ID] = struct{}{}
	s.byPower[hp.PowerID][hp.ID] = struct{}{}
	s.logger.DebugContext(ctx, "hero power created", "id", hp.ID, "hero_id", hp.HeroID, "power_id", hp.PowerID)
	return nil
}

// GetHeroPower implements store.Store.
func (s *Store) GetHeroPower(_ context.Context, id int64) (*models.HeroPower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hp, ok := s.heroPowers[id]
	if !ok {
		return nil, notFound("hero power", id)
	}
	return &hp, nil
}

// ListHeroPowers implements store.Store.
func (s *Store) ListHeroPowers(_ context.Context) ([]models.HeroPower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.heroPowers, heroPowerRow), nil
}

// UpdateHeroPower implements store.Store. The row may move to another hero
// or power; both must exist.
func (s *Store) UpdateHeroPower(ctx context.Context, hp *models.HeroPower) error {
	if err := store.CheckValid(hp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.heroPowers[hp.ID]
	if !ok {
		return notFound("hero power", hp.ID)
	}
	if err := s.checkReferences(hp); err != nil {
		return err
	}
	delete(s.byHero[old.HeroID], hp.ID)
	delete(s.byPower[old.PowerID], hp.ID)
	s.heroPowers[hp.ID] = heroPowerRow(*hp)
	s.byHero[hp.HeroID][hp.ID] = struct{}{}
	s.byPower[hp.PowerID][hp.ID] = struct{}{}
	s.logger.DebugContext(ctx, "hero power updated", "id", hp.ID)
	return nil
}

// DeleteHeroPower implements store.Store. The referenced hero and power
// are left in place.
func (s *Store) DeleteHeroPower(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.heroPowers[id]; !ok {
		return notFound("hero power", id)
	}
	s.removeHeroPower(id)
	s.logger.DebugContext(ctx, "hero power deleted", "id", id)
	return nil
}

// HeroPowersOf implements store.Store.
func (s *Store) HeroPowersOf(_ context.Context, heroID int64) ([]models.HeroPower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byHero[heroID]
	if !ok {
		return nil, notFound("hero", heroID)
	}
	return s.collect(ids), nil
}

// HeroPowersFor implements store.Store.
func (s *Store) HeroPowersFor(_ context.Context, powerID int64) ([]models.HeroPower, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byPower[powerID]
	if !ok {
		return nil, notFound("power", powerID)
	}
	return s.collect(ids), nil
}

// PowersOf implements store.Store.
func (s *Store) PowersOf(_ context.Context, heroID int64) ([]models.Power, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byHero[heroID]
	if !ok {
		return nil, notFound("hero", heroID)
	}
	powers := make(map[int64]models.Power)
	for hpID := range ids {
		pid := s.heroPowers[hpID].PowerID
		powers[pid] = s.powers[pid]
	}
	return sortedValues(powers, powerRow), nil
}

// HeroesWith implements store.Store.
func (s *Store) HeroesWith(_ context.Context, powerID int64) ([]models.Hero, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.byPower[powerID]
	if !ok {
		return nil, notFound("power", powerID)
	}
	heroes := make(map[int64]models.Hero)
	for hpID := range ids {
		hid := s.heroPowers[hpID].HeroID
		heroes[hid] = s.heroes[hid]
	}
	return sortedValues(heroes, heroRow), nil
}

// checkReferences stands in for the foreign key constraints. Callers hold mu.
func (s *Store) checkReferences(hp *models.HeroPower) error {
	if _, ok := s.heroes[hp.HeroID]; !ok {
		return fkViolation("hero_id", "heroes", hp.HeroID)
	}
	if _, ok := s.powers[hp.PowerID]; !ok {
		return fkViolation("power_id", "powers", hp.PowerID)
	}
	return nil
}

// removeHeroPower drops a row from the arena and both indexes. Callers hold mu.
func (s *Store) removeHeroPower(id int64) {
	hp, ok := s.heroPowers[id]
	if !ok {
		return
	}
	delete(s.byHero[hp.HeroID], id)
	delete(s.byPower[hp.PowerID], id)
	delete(s.heroPowers, id)
}

// collect returns the indexed rows ordered by id. Callers hold mu.
func (s *Store) collect(ids idSet) []models.HeroPower {
	out := make([]models.HeroPower, 0, len(ids))
	for id := range ids {
		out = append(out, s.heroPowers[id])
	}
	slices.SortFunc(out, func(a, b models.HeroPower) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
