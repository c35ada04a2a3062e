// Package pgstore is a PostgreSQL store.Store built on the query builder.
// Every mutating call runs in its own transaction.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marshallshelly/superheroes/internal/models"
	"github.com/marshallshelly/superheroes/internal/store"
	"github.com/marshallshelly/superheroes/pkg/builder"
	"github.com/marshallshelly/superheroes/pkg/registry"
	"github.com/marshallshelly/superheroes/pkg/runtime"
	"github.com/marshallshelly/superheroes/pkg/schema"
)

// Store implements store.Store over a connection pool.
type Store struct {
	db     *runtime.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New returns a store over db. The models are registered in the default
// registry so their cascade metadata is available.
func New(db *runtime.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := models.RegisterAll(registry.Default()); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	return &Store{db: db, logger: logger.With("store", "postgres")}, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) pool() *builder.DB {
	return builder.New(s.db.Pool())
}

func notFound(table string, id int64, err error) error {
	return fmt.Errorf("%s %d: %w", table, id, err)
}

// affected maps an UPDATE or DELETE that touched no row to ErrNotFound.
func affected(table string, id int64, n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(table, id, runtime.ErrNotFound)
	}
	return nil
}

// deleteOwned deletes the rows owned through cascade relationships, then the
// row itself, in one transaction.
func (s *Store) deleteOwned(ctx context.Context, model any, id int64) error {
	table, err := registry.GetOrRegister(model)
	if err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(q runtime.Querier) error {
		for _, rel := range table.CascadeDependents() {
			n, err := runtime.Exec(ctx, q, deleteByColumnSQL(rel.TargetTable, rel.ForeignKey), id)
			if err != nil {
				return err
			}
			s.logger.DebugContext(ctx, "cascade delete", "table", rel.TargetTable, "column", rel.ForeignKey, "id", id, "rows", n)
		}
		n, err := runtime.Exec(ctx, q, deleteByColumnSQL(table.Name, primaryKeyColumn(table)), id)
		return affected(table.Name, id, n, err)
	})
}

func deleteByColumnSQL(table, column string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, column)
}

func primaryKeyColumn(table *schema.TableMetadata) string {
	if table.PrimaryKey == nil || len(table.PrimaryKey.Columns) == 0 {
		return "id"
	}
	return table.PrimaryKey.Columns[0]
}

// insert runs an INSERT ... RETURNING * inside a transaction and returns
// the stored row.
func insert[T any](ctx context.Context, s *Store, row T) (T, error) {
	var stored T
	err := s.db.WithTx(ctx, func(q runtime.Querier) error {
		rows, err := builder.Insert[T](builder.New(q)).Values(row).ExecReturning(ctx)
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			return fmt.Errorf("insert returned %d rows", len(rows))
		}
		stored = rows[0]
		return nil
	})
	return stored, err
}

// update runs an UPDATE by id inside a transaction; set adds the SET clauses.
func update[T any](ctx context.Context, s *Store, table string, id int64, set func(u *builder.UpdateQuery[T])) error {
	return s.db.WithTx(ctx, func(q runtime.Querier) error {
		u := builder.Update[T](builder.New(q))
		set(u)
		n, err := u.Where(builder.Eq("id", id)).Exec(ctx)
		return affected(table, id, n, err)
	})
}

func get[T any](ctx context.Context, s *Store, table string, id int64) (*T, error) {
	row, err := builder.Select[T](s.pool()).Where(builder.Eq("id", id)).First(ctx)
	if err != nil {
		return nil, notFound(table, id, err)
	}
	return row, nil
}

func list[T any](ctx context.Context, s *Store) ([]T, error) {
	rows, err := builder.Select[T](s.pool()).OrderByAsc("id").All(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// CreateHero implements store.Store.
func (s *Store) CreateHero(ctx context.Context, h *models.Hero) error {
	stored, err := insert(ctx, s, *h)
	if err != nil {
		return err
	}
	h.ID = stored.ID
	s.logger.DebugContext(ctx, "hero created", "id", h.ID)
	return nil
}

// GetHero implements store.Store.
func (s *Store) GetHero(ctx context.Context, id int64) (*models.Hero, error) {
	return get[models.Hero](ctx, s, "hero", id)
}

// ListHeroes implements store.Store.
func (s *Store) ListHeroes(ctx context.Context) ([]models.Hero, error) {
	return list[models.Hero](ctx, s)
}

// UpdateHero implements store.Store.
func (s *Store) UpdateHero(ctx context.Context, h *models.Hero) error {
	err := update(ctx, s, "hero", h.ID, func(u *builder.UpdateQuery[models.Hero]) {
		u.Set("name", h.Name).Set("super_name", h.SuperName)
	})
	if err == nil {
		s.logger.DebugContext(ctx, "hero updated", "id", h.ID)
	}
	return err
}

// DeleteHero implements store.Store.
func (s *Store) DeleteHero(ctx context.Context, id int64) error {
	if err := s.deleteOwned(ctx, models.Hero{}, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "hero deleted", "id", id)
	return nil
}

// CreatePower implements store.Store.
func (s *Store) CreatePower(ctx context.Context, p *models.Power) error {
	if err := store.CheckValid(p); err != nil {
		return err
	}
	stored, err := insert(ctx, s, *p)
	if err != nil {
		return err
	}
	p.ID = stored.ID
	s.logger.DebugContext(ctx, "power created", "id", p.ID)
	return nil
}

// GetPower implements store.Store.
func (s *Store) GetPower(ctx context.Context, id int64) (*models.Power, error) {
	return get[models.Power](ctx, s, "power", id)
}

// ListPowers implements store.Store.
func (s *Store) ListPowers(ctx context.Context) ([]models.Power, error) {
	return list[models.Power](ctx, s)
}

// UpdatePower implements store.Store.
func (s *Store) UpdatePower(ctx context.Context, p *models.Power) error {
	if err := store.CheckValid(p); err != nil {
		return err
	}
	err := update(ctx, s, "power", p.ID, func(u *builder.UpdateQuery[models.Power]) {
		u.Set("name", p.Name).Set("description", p.Description)
	})
	if err == nil {
		s.logger.DebugContext(ctx, "power updated", "id", p.ID)
	}
	return err
}

// DeletePower implements store.Store.
func (s *Store) DeletePower(ctx context.Context, id int64) error {
	if err := s.deleteOwned(ctx, models.Power{}, id); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "power deleted", "id", id)
	return nil
}

// CreateHeroPower implements store.Store. Missing parents are reported by
// the foreign key constraints.
func (s *Store) CreateHeroPower(ctx context.Context, hp *models.HeroPower) error {
	if err := store.CheckValid(hp); err != nil {
		return err
	}
	row := *hp
	row.Hero, row.Power = nil, nil
	stored, err := insert(ctx, s, row)
	if err != nil {
		return err
	}
	hp.ID = stored.ID
	s.logger.DebugContext(ctx, "hero power created", "id", hp.ID, "hero_id", hp.HeroID, "power_id", hp.PowerID)
	return nil
}

// GetHeroPower implements store.Store.
func (s *Store) GetHeroPower(ctx context.Context, id int64) (*models.HeroPower, error) {
	return get[models.HeroPower](ctx, s, "hero power", id)
}

// ListHeroPowers implements store.Store.
func (s *Store) ListHeroPowers(ctx context.Context) ([]models.HeroPower, error) {
	return list[models.HeroPower](ctx, s)
}

// UpdateHeroPower implements store.Store.
func (s *Store) UpdateHeroPower(ctx context.Context, hp *models.HeroPower) error {
	if err := store.CheckValid(hp); err != nil {
		return err
	}
	err := update(ctx, s, "hero power", hp.ID, func(u *builder.UpdateQuery[models.HeroPower]) {
		u.Set("strength", hp.Strength).Set("hero_id", hp.HeroID).Set("power_id", hp.PowerID)
	})
	if err == nil {
		s.logger.DebugContext(ctx, "hero power updated", "id", hp.ID)
	}
	return err
}

// DeleteHeroPower implements store.Store.
func (s *Store) DeleteHeroPower(ctx context.Context, id int64) error {
	return s.db.WithTx(ctx, func(q runtime.Querier) error {
		n, err := builder.Delete[models.HeroPower](builder.New(q)).Where(builder.Eq("id", id)).Exec(ctx)
		return affected("hero power", id, n, err)
	})
}

// HeroPowersOf implements store.Store.
func (s *Store) HeroPowersOf(ctx context.Context, heroID int64) ([]models.HeroPower, error) {
	if _, err := s.GetHero(ctx, heroID); err != nil {
		return nil, err
	}
	return s.heroPowersWhere(ctx, "hero_id", heroID)
}

// HeroPowersFor implements store.Store.
func (s *Store) HeroPowersFor(ctx context.Context, powerID int64) ([]models.HeroPower, error) {
	if _, err := s.GetPower(ctx, powerID); err != nil {
		return nil, err
	}
	return s.heroPowersWhere(ctx, "power_id", powerID)
}

func (s *Store) heroPowersWhere(ctx context.Context, column string, id int64) ([]models.HeroPower, error) {
	rows, err := builder.Select[models.HeroPower](s.pool()).
		Where(builder.Eq(column, id)).
		OrderByAsc("id").
		All(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.HeroPower{}
	}
	return rows, nil
}

// PowersOf implements store.Store.
func (s *Store) PowersOf(ctx context.Context, heroID int64) ([]models.Power, error) {
	if _, err := s.GetHero(ctx, heroID); err != nil {
		return nil, err
	}
	rows, err := builder.Select[models.Power](s.pool()).
		Distinct().
		InnerJoin("hero_powers", "hero_powers.power_id = powers.id").
		Where(builder.Eq("hero_powers.hero_id", heroID)).
		OrderByAsc("powers.id").
		All(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Power{}
	}
	return rows, nil
}

// HeroesWith implements store.Store.
func (s *Store) HeroesWith(ctx context.Context, powerID int64) ([]models.Hero, error) {
	if _, err := s.GetPower(ctx, powerID); err != nil {
		return nil, err
	}
	rows, err := builder.Select[models.Hero](s.pool()).
		Distinct().
		InnerJoin("hero_powers", "hero_powers.hero_id = heroes.id").
		Where(builder.Eq("hero_powers.power_id", powerID)).
		OrderByAsc("heroes.id").
		All(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Hero{}
	}
	return rows, nil
}
