// Package loadout builds the linear program for one gear optimization and
// decodes solver assignments back into verified loadout solutions.
package loadout

import (
	"fmt"
	"math"
	"sort"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/solver"
)

// integralityTol is how far a nominally-integer value may sit from a whole
// number before the assignment is rejected as inconsistent.
const integralityTol = 1e-6

// Extract decodes an optimal assignment into a Solution. Integer and binary
// variables outside tolerance of a whole number raise a ConsistencyError,
// never a silent coercion. Aggregates are recomputed from the decoded
// choices with integer arithmetic; the solver's own totals are only kept as
// the reported objective.
func Extract(model *Model, outcome *solver.Outcome) (*Solution, error) {
	if outcome == nil || outcome.Status != solver.Optimal {
		return nil, fmt.Errorf("loadout: extract requires an optimal outcome")
	}
	if len(outcome.Values) != model.Program.NumVars() {
		return nil, &ConsistencyError{Message: fmt.Sprintf("assignment has %d values for %d variables", len(outcome.Values), model.Program.NumVars())}
	}

	intValue := func(v int) (int, error) {
		raw := outcome.Values[v]
		rounded := math.Round(raw)
		if math.Abs(raw-rounded) > integralityTol {
			return 0, &ConsistencyError{Variable: model.Program.Vars[v].Name, Message: fmt.Sprintf("value %g is not integral", raw)}
		}
		return int(rounded), nil
	}

	// Step 1: decode item counts. Choices are assembled as standalone
	// values first and placed into their slots once melds and relic points
	// are attached; ring duplicates come out as one entry with Count 2.
	chosen := make(map[int]*ChosenItem)
	chosenOrder := make(map[int][]int) // slot index -> chosen item ids
	for _, ref := range model.items {
		count, err := intValue(ref.v)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		chosen[ref.item.ID] = &ChosenItem{Item: ref.item, Count: count}
		chosenOrder[ref.slot] = append(chosenOrder[ref.slot], ref.item.ID)
	}

	// Step 2: aggregate meld counts per (item, materia) across meld
	// indices; only non-zero tuples survive.
	meldTotals := make(map[int]map[int]int)
	for _, md := range model.melds {
		count, err := intValue(md.v)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		ci := chosen[md.itemID]
		if ci == nil {
			return nil, &ConsistencyError{Variable: model.Program.Vars[md.v].Name, Message: "meld assigned to an unchosen item"}
		}
		if meldTotals[md.itemID] == nil {
			meldTotals[md.itemID] = make(map[int]int)
		}
		if meldTotals[md.itemID][md.materia.ID] == 0 {
			ci.Melds = append(ci.Melds, Meld{Materia: md.materia})
		}
		meldTotals[md.itemID][md.materia.ID] += count
	}
	for itemID, ci := range chosen {
		for i := range ci.Melds {
			ci.Melds[i].Count = meldTotals[itemID][ci.Melds[i].Materia.ID]
		}
	}

	// Step 3: integerize relic allocations per item. The solver treats the
	// points as continuous; largest-remainder rounding against the floored
	// total keeps the per-item budget intact.
	relicRaw := make(map[int]map[catalog.Stat]float64)
	relicOrder := make(map[int][]catalog.Stat)
	for _, rl := range model.relics {
		raw := outcome.Values[rl.v]
		if raw < 0 {
			raw = 0
		}
		if relicRaw[rl.itemID] == nil {
			relicRaw[rl.itemID] = make(map[catalog.Stat]float64)
		}
		relicRaw[rl.itemID][rl.stat] = raw
		relicOrder[rl.itemID] = append(relicOrder[rl.itemID], rl.stat)
	}
	for itemID, byStat := range relicRaw {
		ci := chosen[itemID]
		points := integerizePoints(byStat, relicOrder[itemID])
		for _, s := range relicOrder[itemID] {
			if points[s] == 0 {
				continue
			}
			if ci == nil {
				return nil, &ConsistencyError{Message: fmt.Sprintf("relic points assigned to unchosen item %d", itemID)}
			}
			ci.Relic = append(ci.Relic, RelicAllocation{Stat: s, Points: points[s]})
		}
	}

	// Step 4: the chosen food, if any.
	var food *catalog.Food
	for _, fr := range model.foods {
		v, err := intValue(fr.v)
		if err != nil {
			return nil, err
		}
		if v == 0 {
			continue
		}
		if food != nil {
			return nil, &ConsistencyError{Variable: model.Program.Vars[fr.v].Name, Message: "more than one food chosen"}
		}
		f := fr.food
		food = &f
	}

	// Step 5: place the finished choices into their slots and verify the
	// occupancy counts decode exactly.
	slots := make([]SlotAssignment, len(model.in.Pool.Slots))
	for i, slot := range model.in.Pool.Slots {
		slots[i].Slot = slot
		total := 0
		for _, id := range chosenOrder[i] {
			ci := chosen[id]
			slots[i].Items = append(slots[i].Items, *ci)
			total += ci.Count
		}
		if total != slot.Occupancy {
			return nil, &ConsistencyError{Message: fmt.Sprintf("slot %s carries %d items for occupancy %d", slot.Name, total, slot.Occupancy)}
		}
	}

	// Step 6: recompute the aggregates from the decoded choices.
	allocatable := make(map[catalog.Stat]int, len(model.in.Pool.Stats))
	final := make(map[catalog.Stat]int, len(model.in.Pool.Stats))
	for _, s := range model.in.Pool.Stats {
		pre := model.in.BaseStats[s]
		for _, sa := range slots {
			for _, ci := range sa.Items {
				pre += ci.Count * ci.Item.Bonuses[s]
				for _, meld := range ci.Melds {
					if meld.Materia.Stat == s {
						pre += meld.Count * meld.Materia.Bonus
					}
				}
				for _, rl := range ci.Relic {
					if rl.Stat == s {
						pre += rl.Points
					}
				}
			}
		}
		allocatable[s] = pre
		final[s] = pre
		if food != nil {
			if eff, ok := food.Effects[s]; ok {
				bonus := int(math.Floor(eff.Percent * float64(pre)))
				if bonus > eff.Max {
					bonus = eff.Max
				}
				final[s] = pre + bonus
			}
		}
	}

	weighted := 0.0
	for s, w := range model.in.Profile.Weights {
		weighted += w * float64(final[s])
	}

	return &Solution{
		Job:         model.in.Pool.Job,
		Slots:       slots,
		Food:        food,
		Stats:       model.in.Pool.Stats,
		Allocatable: allocatable,
		Final:       final,
		Objective:   outcome.Objective,
		WeightedSum: weighted,
	}, nil
}

// integerizePoints rounds a continuous point allocation to integers without
// growing the total: each stat keeps its floor, and the leftover units go to
// the largest fractional remainders. The result never exceeds the original
// budget.
func integerizePoints(byStat map[catalog.Stat]float64, order []catalog.Stat) map[catalog.Stat]int {
	total := 0.0
	for _, s := range order {
		total += byStat[s]
	}
	target := int(math.Floor(total + integralityTol))

	points := make(map[catalog.Stat]int, len(byStat))
	type remainder struct {
		stat catalog.Stat
		frac float64
	}
	remainders := make([]remainder, 0, len(byStat))
	assigned := 0
	for _, s := range order {
		v := byStat[s]
		fl := math.Floor(v + integralityTol)
		points[s] = int(fl)
		assigned += int(fl)
		remainders = append(remainders, remainder{stat: s, frac: v - fl})
	}

	sort.SliceStable(remainders, func(i, j int) bool {
		return remainders[i].frac > remainders[j].frac
	})
	for i := 0; assigned < target && i < len(remainders); i++ {
		points[remainders[i].stat]++
		assigned++
	}
	return points
}
