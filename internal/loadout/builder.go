// Package loadout builds the linear program for one gear optimization and
// decodes solver assignments back into verified loadout solutions.
package loadout

import (
	"fmt"
	"math"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/milp"
)

// primaryFloorTol is the slack backed off the frozen primary optimum in the
// second lexicographic phase, protecting primary-optimal assignments from
// floating-point noise in the reported objective.
const primaryFloorTol = 1e-6

// BuildInput collects everything one formulation needs. The pool is already
// filtered for job, item-level window, and exclusions; the profile is
// resolved against the catalog.
type BuildInput struct {
	Pool      *catalog.Pool
	Profile   config.JobProfile
	RelicCaps config.RelicCapTable
	BaseStats map[catalog.Stat]int
}

type itemRef struct {
	v    int
	slot int // index into Pool.Slots
	item catalog.Item
}

type meldRef struct {
	v       int
	itemID  int
	materia catalog.Materia
	index   int // meld slot index on the item
}

type foodRef struct {
	v    int
	food catalog.Food
}

type relicRef struct {
	v      int
	itemID int
	stat   catalog.Stat
}

// Model couples the linear program with the mapping from every variable back
// to its domain referent. Extract needs the mapping to decode assignments;
// callers only touch Program.
type Model struct {
	Program *milp.Program

	in     BuildInput
	items  []itemRef
	melds  []meldRef
	foods  []foodRef
	relics []relicRef
	preVar map[catalog.Stat]int
	totVar map[catalog.Stat]int
}

// Build formulates the primary optimization: maximize the weighted sum of
// final stats over every legal loadout. The builder performs no feasibility
// pre-check; an unsatisfiable requirement surfaces as an Infeasible outcome
// from the backend, never as a build error.
func Build(in BuildInput) (*Model, error) {
	m, err := formulate(in)
	if err != nil {
		return nil, err
	}
	m.Program.SetObjective(m.primaryTerms())
	return m, nil
}

// BuildSecondary formulates the second phase of a lexicographic solve: the
// primary weighted sum is frozen at its reported optimum as a floor row, and
// the stats absent from the weight map are maximized instead.
func BuildSecondary(in BuildInput, primaryOptimum float64) (*Model, error) {
	m, err := formulate(in)
	if err != nil {
		return nil, err
	}

	secondary := SecondaryStats(in.Pool, in.Profile)
	if len(secondary) == 0 {
		return nil, fmt.Errorf("every stat is weighted; no secondary objective to maximize")
	}

	// Snap the reported optimum onto the decimal grid before backing off
	// the tolerance; backends report float noise around exact values.
	floor := math.Round(primaryOptimum*1e6)/1e6 - primaryFloorTol
	m.Program.AddConstraint("primary_floor", m.primaryTerms(), milp.GreaterEq, floor)

	terms := make([]milp.Term, 0, len(secondary))
	for _, s := range secondary {
		terms = append(terms, milp.Term{Var: m.totVar[s], Coeff: 1})
	}
	m.Program.SetObjective(terms)
	return m, nil
}

// SecondaryStats lists the catalog stats absent from the profile's weight
// map, in catalog order. They form the secondary objective.
func SecondaryStats(pool *catalog.Pool, profile config.JobProfile) []catalog.Stat {
	var stats []catalog.Stat
	for _, s := range pool.Stats {
		if _, weighted := profile.Weights[s]; !weighted {
			stats = append(stats, s)
		}
	}
	return stats
}

// formulate lays down the variables and constraint rows shared by both
// phases. Enumeration order is fixed (slots, then pool order) so repeated
// builds of the same input produce identical programs.
func formulate(in BuildInput) (*Model, error) {
	if in.Pool == nil {
		return nil, fmt.Errorf("loadout: nil candidate pool")
	}

	m := &Model{
		Program: milp.New(fmt.Sprintf("bis_%s", in.Pool.Job)),
		in:      in,
		preVar:  make(map[catalog.Stat]int, len(in.Pool.Stats)),
		totVar:  make(map[catalog.Stat]int, len(in.Pool.Stats)),
	}
	prog := m.Program

	// Item count per (slot, candidate). The ring pair is a multiset: one
	// variable per distinct candidate, counting copies up to the occupancy.
	for si, slot := range in.Pool.Slots {
		for _, it := range in.Pool.ItemsBySlot[slot.Name] {
			v := prog.AddVar(fmt.Sprintf("it_%s_%d", slot.Name, it.ID), milp.Integer, 0, float64(slot.Occupancy))
			m.items = append(m.items, itemRef{v: v, slot: si, item: it})
		}
	}

	// Meld count per (item, materia, meld index), counting across chosen
	// copies. Overmeld indices only exist for materia at or below the tier
	// threshold; ineligible combinations are never instantiated.
	for _, ref := range m.items {
		it := ref.item
		occupancy := in.Pool.Slots[ref.slot].Occupancy
		for _, mt := range in.Pool.Materia {
			for k := 0; k < it.MeldCapacity(); k++ {
				if k >= it.MateriaSlots && !in.Pool.OvermeldEligible(mt) {
					continue
				}
				v := prog.AddVar(fmt.Sprintf("md_%d_%d_%d", it.ID, mt.ID, k), milp.Integer, 0, float64(occupancy))
				m.melds = append(m.melds, meldRef{v: v, itemID: it.ID, materia: mt, index: k})
			}
		}
	}

	// Food choice, at most one.
	for _, f := range in.Pool.Food {
		v := prog.AddVar(fmt.Sprintf("fd_%d", f.ID), milp.Binary, 0, 1)
		m.foods = append(m.foods, foodRef{v: v, food: f})
	}

	// Discretionary relic points per (relic item, stat). The per-item
	// budget row carries the real limit; the variable bound only has to
	// cover the doubled budget of a twice-worn relic.
	for _, ref := range m.items {
		it := ref.item
		if !it.Relic {
			continue
		}
		budget := in.RelicCaps.CapFor(it.ItemLevel)
		if budget <= 0 {
			continue
		}
		occupancy := in.Pool.Slots[ref.slot].Occupancy
		for _, s := range in.Pool.Stats {
			v := prog.AddVar(fmt.Sprintf("rl_%d_%s", it.ID, s), milp.Continuous, 0, float64(budget*occupancy))
			m.relics = append(m.relics, relicRef{v: v, itemID: it.ID, stat: s})
		}
	}

	// Food bonus per (food, affected stat), linked below; and the pre-food
	// and final aggregates with their defining rows. Explicit aggregate
	// variables keep every row a plain linear constraint over variables.
	foodBonus := make(map[int]map[catalog.Stat]int, len(in.Pool.Food))
	for _, fr := range m.foods {
		foodBonus[fr.food.ID] = make(map[catalog.Stat]int)
		for _, s := range in.Pool.Stats {
			eff, ok := fr.food.Effects[s]
			if !ok {
				continue
			}
			v := prog.AddVar(fmt.Sprintf("fb_%d_%s", fr.food.ID, s), milp.Continuous, 0, float64(eff.Max))
			foodBonus[fr.food.ID][s] = v
		}
	}
	for _, s := range in.Pool.Stats {
		preUB := m.preUpper(s)
		m.preVar[s] = prog.AddVar(fmt.Sprintf("pre_%s", s), milp.Continuous, 0, preUB)
		m.totVar[s] = prog.AddVar(fmt.Sprintf("tot_%s", s), milp.Continuous, 0, preUB+float64(maxFoodBonus(in.Pool, s)))
	}

	// Occupancy: every slot filled exactly. A slot with no candidates
	// yields a termless row, which backends report as infeasible.
	for si, slot := range in.Pool.Slots {
		var terms []milp.Term
		for _, ref := range m.items {
			if ref.slot == si {
				terms = append(terms, milp.Term{Var: ref.v, Coeff: 1})
			}
		}
		prog.AddConstraint(fmt.Sprintf("occ_%s", slot.Name), terms, milp.Equal, float64(slot.Occupancy))
	}

	// Meld capacity and per-index exclusivity, both forcing zero on
	// unchosen items.
	for _, ref := range m.items {
		it := ref.item
		var all []milp.Term
		perIndex := make(map[int][]milp.Term)
		for _, md := range m.melds {
			if md.itemID != it.ID {
				continue
			}
			all = append(all, milp.Term{Var: md.v, Coeff: 1})
			perIndex[md.index] = append(perIndex[md.index], milp.Term{Var: md.v, Coeff: 1})
		}
		if len(all) == 0 {
			continue
		}
		capTerms := append(all, milp.Term{Var: ref.v, Coeff: -float64(it.MeldCapacity())})
		prog.AddConstraint(fmt.Sprintf("mcap_%d", it.ID), capTerms, milp.LessEq, 0)
		for k := 0; k < it.MeldCapacity(); k++ {
			terms, ok := perIndex[k]
			if !ok {
				continue
			}
			terms = append(terms, milp.Term{Var: ref.v, Coeff: -1})
			prog.AddConstraint(fmt.Sprintf("mslot_%d_%d", it.ID, k), terms, milp.LessEq, 0)
		}
	}

	// Relic budget per item, forced to zero unless the item is chosen.
	for _, ref := range m.items {
		it := ref.item
		if !it.Relic {
			continue
		}
		budget := in.RelicCaps.CapFor(it.ItemLevel)
		if budget <= 0 {
			continue
		}
		terms := make([]milp.Term, 0, len(in.Pool.Stats)+1)
		for _, rl := range m.relics {
			if rl.itemID == it.ID {
				terms = append(terms, milp.Term{Var: rl.v, Coeff: 1})
			}
		}
		terms = append(terms, milp.Term{Var: ref.v, Coeff: -float64(budget)})
		prog.AddConstraint(fmt.Sprintf("rcap_%d", it.ID), terms, milp.LessEq, 0)
	}

	// Defining rows: pre(s) equals base plus every gear contribution.
	for _, s := range in.Pool.Stats {
		terms := []milp.Term{{Var: m.preVar[s], Coeff: 1}}
		for _, ref := range m.items {
			if b := ref.item.Bonuses[s]; b != 0 {
				terms = append(terms, milp.Term{Var: ref.v, Coeff: -float64(b)})
			}
		}
		for _, md := range m.melds {
			if md.materia.Stat == s {
				terms = append(terms, milp.Term{Var: md.v, Coeff: -float64(md.materia.Bonus)})
			}
		}
		for _, rl := range m.relics {
			if rl.stat == s {
				terms = append(terms, milp.Term{Var: rl.v, Coeff: -1})
			}
		}
		prog.AddConstraint(fmt.Sprintf("def_pre_%s", s), terms, milp.Equal, float64(in.BaseStats[s]))
	}

	// Food linkage: the bonus is capped by the food's flat maximum when the
	// food is chosen (zero otherwise) and by its percentage of the pre-food
	// aggregate. Both are upper bounds, so no big-M row is needed: the
	// bonus enters the objective non-negatively and rises to the binding
	// cap on its own.
	for _, fr := range m.foods {
		for _, s := range in.Pool.Stats {
			bv, ok := foodBonus[fr.food.ID][s]
			if !ok {
				continue
			}
			eff := fr.food.Effects[s]
			prog.AddConstraint(fmt.Sprintf("fmax_%d_%s", fr.food.ID, s),
				[]milp.Term{{Var: bv, Coeff: 1}, {Var: fr.v, Coeff: -float64(eff.Max)}}, milp.LessEq, 0)
			prog.AddConstraint(fmt.Sprintf("fpct_%d_%s", fr.food.ID, s),
				[]milp.Term{{Var: bv, Coeff: 1}, {Var: m.preVar[s], Coeff: -eff.Percent}}, milp.LessEq, 0)
		}
	}

	// Defining rows: tot(s) equals pre(s) plus the chosen food's bonuses.
	for _, s := range in.Pool.Stats {
		terms := []milp.Term{{Var: m.totVar[s], Coeff: 1}, {Var: m.preVar[s], Coeff: -1}}
		for _, fr := range m.foods {
			if bv, ok := foodBonus[fr.food.ID][s]; ok {
				terms = append(terms, milp.Term{Var: bv, Coeff: -1})
			}
		}
		prog.AddConstraint(fmt.Sprintf("def_tot_%s", s), terms, milp.Equal, 0)
	}

	// Minimums bind the final aggregate, food included.
	for _, s := range in.Pool.Stats {
		minimum, ok := in.Profile.Minimums[s]
		if !ok {
			continue
		}
		prog.AddConstraint(fmt.Sprintf("min_%s", s),
			[]milp.Term{{Var: m.totVar[s], Coeff: 1}}, milp.GreaterEq, float64(minimum))
	}

	// At most one food.
	if len(m.foods) > 0 {
		terms := make([]milp.Term, 0, len(m.foods))
		for _, fr := range m.foods {
			terms = append(terms, milp.Term{Var: fr.v, Coeff: 1})
		}
		prog.AddConstraint("food_choice", terms, milp.LessEq, 1)
	}

	return m, nil
}

// primaryTerms is the weighted objective over final aggregates, shared by
// the phase-one objective and the phase-two floor row.
func (m *Model) primaryTerms() []milp.Term {
	terms := make([]milp.Term, 0, len(m.in.Profile.Weights))
	for _, s := range m.in.Pool.Stats {
		if w, ok := m.in.Profile.Weights[s]; ok && w != 0 {
			terms = append(terms, milp.Term{Var: m.totVar[s], Coeff: w})
		}
	}
	return terms
}

// preUpper bounds the pre-food aggregate of one stat from above: base plus,
// per slot, the occupancy times the best any single candidate could carry
// with full melds and full relic budget. Finite bounds keep every backend's
// domain construction happy.
func (m *Model) preUpper(s catalog.Stat) float64 {
	in := m.in
	ub := in.BaseStats[s]
	bestMateria := 0
	for _, mt := range in.Pool.Materia {
		if mt.Stat == s && mt.Bonus > bestMateria {
			bestMateria = mt.Bonus
		}
	}
	for _, slot := range in.Pool.Slots {
		best := 0
		for _, it := range in.Pool.ItemsBySlot[slot.Name] {
			v := it.Bonuses[s] + it.MeldCapacity()*bestMateria
			if it.Relic {
				v += in.RelicCaps.CapFor(it.ItemLevel)
			}
			if v > best {
				best = v
			}
		}
		ub += slot.Occupancy * best
	}
	return float64(ub)
}

// maxFoodBonus is the largest flat bonus any single food grants the stat.
func maxFoodBonus(pool *catalog.Pool, s catalog.Stat) int {
	best := 0
	for _, f := range pool.Food {
		if eff, ok := f.Effects[s]; ok && eff.Max > best {
			best = eff.Max
		}
	}
	return best
}
