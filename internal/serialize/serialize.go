// Package serialize renders models as JSON-ready trees. Relationships are
// followed through a Graph and pruned by exclusion rules, so a tree never
// refers back to the record that contains it.
package serialize

import (
	"context"

	"github.com/marshallshelly/superheroes/internal/models"
)

// MaxDepth is the number of relationship hops followed from the root.
// Records at this depth are rendered with their columns only.
const MaxDepth = 2

// Node is a serialized record.
type Node map[string]any

// Graph resolves relationships for the serializer. Every store.Store
// satisfies it.
type Graph interface {
	GetHero(ctx context.Context, id int64) (*models.Hero, error)
	GetPower(ctx context.Context, id int64) (*models.Power, error)
	HeroPowersOf(ctx context.Context, heroID int64) ([]models.HeroPower, error)
	HeroPowersFor(ctx context.Context, powerID int64) ([]models.HeroPower, error)
}

// Rules is a set of dotted relationship paths to leave out, relative to the
// root record. "hero_powers.hero" drops the hero key of every element of
// the root's hero_powers.
type Rules map[string]struct{}

// NewRules builds a rule set from paths.
func NewRules(paths ...string) Rules {
	r := make(Rules, len(paths))
	for _, p := range paths {
		r[p] = struct{}{}
	}
	return r
}

// Excludes reports whether path is left out.
func (r Rules) Excludes(path string) bool {
	_, ok := r[path]
	return ok
}

// Default rules per root model.
var (
	HeroRules      = NewRules("hero_powers.hero")
	PowerRules     = NewRules("hero_powers.power")
	HeroPowerRules = NewRules("hero.hero_powers", "power.hero_powers")
)

type walker struct {
	ctx   context.Context
	graph Graph
	rules Rules
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// follow reports whether the relationship key under path is rendered.
func (w *walker) follow(path, key string, depth int) bool {
	return depth < MaxDepth && !w.rules.Excludes(join(path, key))
}

// Hero serializes h and its hero_powers.
func Hero(ctx context.Context, graph Graph, h *models.Hero, rules Rules) (Node, error) {
	w := &walker{ctx: ctx, graph: graph, rules: rules}
	return w.hero(h, "", 0)
}

// Power serializes p and its hero_powers.
func Power(ctx context.Context, graph Graph, p *models.Power, rules Rules) (Node, error) {
	w := &walker{ctx: ctx, graph: graph, rules: rules}
	return w.power(p, "", 0)
}

// HeroPower serializes hp with its hero and power.
func HeroPower(ctx context.Context, graph Graph, hp *models.HeroPower, rules Rules) (Node, error) {
	w := &walker{ctx: ctx, graph: graph, rules: rules}
	return w.heroPower(hp, "", 0)
}

// HeroSummary returns the columns of h.
func HeroSummary(h *models.Hero) Node {
	return Node{
		"id":         h.ID,
		"name":       nullable(h.Name),
		"super_name": nullable(h.SuperName),
	}
}

// PowerSummary returns the columns of p.
func PowerSummary(p *models.Power) Node {
	return Node{
		"id":          p.ID,
		"name":        nullable(p.Name),
		"description": p.Description,
	}
}

// HeroPowerSummary returns the columns of hp.
func HeroPowerSummary(hp *models.HeroPower) Node {
	return Node{
		"id":       hp.ID,
		"strength": hp.Strength,
		"hero_id":  hp.HeroID,
		"power_id": hp.PowerID,
	}
}

func (w *walker) hero(h *models.Hero, path string, depth int) (Node, error) {
	node := HeroSummary(h)
	if !w.follow(path, "hero_powers", depth) {
		return node, nil
	}
	owned := h.HeroPowers
	if owned == nil {
		var err error
		if owned, err = w.graph.HeroPowersOf(w.ctx, h.ID); err != nil {
			return nil, err
		}
	}
	list, err := w.heroPowers(owned, join(path, "hero_powers"), depth+1)
	if err != nil {
		return nil, err
	}
	node["hero_powers"] = list
	return node, nil
}

func (w *walker) power(p *models.Power, path string, depth int) (Node, error) {
	node := PowerSummary(p)
	if !w.follow(path, "hero_powers", depth) {
		return node, nil
	}
	owned := p.HeroPowers
	if owned == nil {
		var err error
		if owned, err = w.graph.HeroPowersFor(w.ctx, p.ID); err != nil {
			return nil, err
		}
	}
	list, err := w.heroPowers(owned, join(path, "hero_powers"), depth+1)
	if err != nil {
		return nil, err
	}
	node["hero_powers"] = list
	return node, nil
}

func (w *walker) heroPowers(rows []models.HeroPower, path string, depth int) ([]Node, error) {
	list := make([]Node, 0, len(rows))
	for i := range rows {
		n, err := w.heroPower(&rows[i], path, depth)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func (w *walker) heroPower(hp *models.HeroPower, path string, depth int) (Node, error) {
	node := HeroPowerSummary(hp)

	if w.follow(path, "hero", depth) {
		h := hp.Hero
		if h == nil {
			var err error
			if h, err = w.graph.GetHero(w.ctx, hp.HeroID); err != nil {
				return nil, err
			}
		}
		n, err := w.hero(h, join(path, "hero"), depth+1)
		if err != nil {
			return nil, err
		}
		node["hero"] = n
	}

	if w.follow(path, "power", depth) {
		p := hp.Power
		if p == nil {
			var err error
			if p, err = w.graph.GetPower(w.ctx, hp.PowerID); err != nil {
				return nil, err
			}
		}
		n, err := w.power(p, join(path, "power"), depth+1)
		if err != nil {
			return nil, err
		}
		node["power"] = n
	}
	return node, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
