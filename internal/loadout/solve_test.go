package loadout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/solver"
)

// End-to-end: formulate, solve through the in-process backend, decode, and
// check the decoded loadout against hand-computed optima.

func TestSolve_PicksBestWeapon(t *testing.T) {
	pool := weaponPool(
		critItem(111, 50),
		critItem(112, 80),
		critItem(113, 100),
		catalog.Item{ID: 114, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{}, Relic: true},
	)

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile(), RelicCaps: config.RelicCapTable{100: 20}})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	require.Len(t, sol.Slots, 1)
	require.Len(t, sol.Slots[0].Items, 1)
	assert.Equal(t, 113, sol.Slots[0].Items[0].Item.ID)
	assert.Equal(t, 1, sol.Slots[0].Items[0].Count)
	assert.InDelta(t, 100, sol.Objective, 1e-6)
	assert.InDelta(t, 100, sol.WeightedSum, 1e-9)
	assert.Equal(t, 100, sol.Allocatable["CRIT"])
	assert.Equal(t, 100, sol.Final["CRIT"])
	assert.Nil(t, sol.Food)
}

func TestSolve_RingPairIsAMultiset(t *testing.T) {
	pool := newPool(
		[]catalog.Slot{{Name: "ring", Occupancy: 2}},
		map[string][]catalog.Item{
			"ring": {
				{ID: 201, Slot: "ring", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 30}},
				{ID: 202, Slot: "ring", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 10}},
			},
		},
	)

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	require.Len(t, sol.Slots[0].Items, 1, "the better ring is worn twice, not listed twice")
	assert.Equal(t, 201, sol.Slots[0].Items[0].Item.ID)
	assert.Equal(t, 2, sol.Slots[0].Items[0].Count)
	assert.InDelta(t, 60, sol.Objective, 1e-6)
	assert.Equal(t, 60, sol.Final["CRIT"])
}

func TestSolve_FillsMeldSlots(t *testing.T) {
	item := catalog.Item{
		ID: 121, Slot: "weapon", ItemLevel: 100,
		Bonuses:      map[catalog.Stat]int{"CRIT": 10},
		MateriaSlots: 2,
	}
	pool := weaponPool(item)
	pool.Materia = []catalog.Materia{{ID: 901, Stat: "CRIT", Tier: 10, Bonus: 33}}

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	assert.InDelta(t, 76, sol.Objective, 1e-6)
	ci := sol.ItemFor(121)
	require.NotNil(t, ci)
	require.Len(t, ci.Melds, 1)
	assert.Equal(t, 901, ci.Melds[0].Materia.ID)
	assert.Equal(t, 2, ci.Melds[0].Count)
	assert.Equal(t, 2, sol.TotalMelds())
	assert.Equal(t, 76, sol.Final["CRIT"])
}

func TestSolve_OvermeldTierGate(t *testing.T) {
	item := catalog.Item{
		ID: 131, Slot: "weapon", ItemLevel: 100,
		Bonuses:      map[catalog.Stat]int{"CRIT": 10},
		MateriaSlots: 1,
		Overmeld:     true,
	}
	pool := weaponPool(item)
	pool.Materia = []catalog.Materia{
		{ID: 901, Stat: "CRIT", Tier: 10, Bonus: 33},
		{ID: 902, Stat: "CRIT", Tier: 9, Bonus: 12},
	}
	pool.MaxOvermeldTier = 9

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)
	assert.NotContains(t, varNames(m), "md_131_901_1", "the top tier stays out of overmeld slots")

	sol := solveAndExtract(t, m)

	// Best base slot takes the big materia; the four overmeld slots take
	// the lower tier: 10 + 33 + 4*12.
	assert.InDelta(t, 91, sol.Objective, 1e-6)
	ci := sol.ItemFor(131)
	require.NotNil(t, ci)
	require.Len(t, ci.Melds, 2)
	assert.Equal(t, 901, ci.Melds[0].Materia.ID)
	assert.Equal(t, 1, ci.Melds[0].Count)
	assert.Equal(t, 902, ci.Melds[1].Materia.ID)
	assert.Equal(t, 4, ci.Melds[1].Count)
	assert.Equal(t, 5, sol.TotalMelds())
}

func TestSolve_RelicBudgetBeatsPlainItem(t *testing.T) {
	pool := weaponPool(
		critItem(141, 100),
		catalog.Item{ID: 142, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 90}, Relic: true},
	)

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile(), RelicCaps: config.RelicCapTable{100: 20}})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	assert.InDelta(t, 110, sol.Objective, 1e-6)
	ci := sol.ItemFor(142)
	require.NotNil(t, ci, "ninety plus twenty discretionary beats a flat hundred")
	require.Len(t, ci.Relic, 1)
	assert.Equal(t, catalog.Stat("CRIT"), ci.Relic[0].Stat)
	assert.Equal(t, 20, ci.Relic[0].Points)
	assert.Equal(t, 110, sol.Allocatable["CRIT"])
	assert.Nil(t, sol.ItemFor(141))
}

func TestSolve_FoodBonusIsCapped(t *testing.T) {
	pool := weaponPool(critItem(151, 600))
	pool.Food = []catalog.Food{{
		ID: 801, Name: "stew",
		Effects: map[catalog.Stat]catalog.FoodEffect{"CRIT": {Percent: 0.10, Max: 50}},
	}}

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	// Ten percent of 600 overshoots the flat cap, so the bonus stops at 50.
	require.NotNil(t, sol.Food)
	assert.Equal(t, 801, sol.Food.ID)
	assert.Equal(t, 600, sol.Allocatable["CRIT"])
	assert.Equal(t, 650, sol.Final["CRIT"])
	assert.InDelta(t, 650, sol.Objective, 1e-6)
	assert.InDelta(t, 650, sol.WeightedSum, 1e-9)
}

func TestSolve_MinimumForcesTradeoff(t *testing.T) {
	pool := weaponPool(
		critItem(171, 100),
		catalog.Item{ID: 172, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 80, "SPS": 30}},
	)
	profile := critProfile()
	profile.Minimums = map[catalog.Stat]int{"SPS": 30}

	m, err := Build(BuildInput{Pool: pool, Profile: profile})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	require.NotNil(t, sol.ItemFor(172), "the weaker weapon is the only one meeting the floor")
	assert.InDelta(t, 80, sol.Objective, 1e-6)
	assert.Equal(t, 30, sol.Final["SPS"])
}

func TestSolve_UnreachableMinimumIsInfeasible(t *testing.T) {
	pool := weaponPool(critItem(101, 50))
	profile := critProfile()
	profile.Minimums = map[catalog.Stat]int{"SPS": 1000}

	m, err := Build(BuildInput{Pool: pool, Profile: profile})
	require.NoError(t, err)

	out := solveWith(t, m)
	assert.Equal(t, solver.Infeasible, out.Status)

	_, err = Extract(m, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "optimal")
}

func TestSolve_EmptySlotIsInfeasible(t *testing.T) {
	pool := newPool(
		[]catalog.Slot{{Name: "weapon", Occupancy: 1}, {Name: "head", Occupancy: 1}},
		map[string][]catalog.Item{"weapon": {critItem(101, 50)}},
	)

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)

	out := solveWith(t, m)
	assert.Equal(t, solver.Infeasible, out.Status)
}

func TestSolve_SecondaryPhaseBreaksTies(t *testing.T) {
	pool := weaponPool(
		critItem(181, 100),
		catalog.Item{ID: 182, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 100, "PIE": 25}},
	)
	in := BuildInput{Pool: pool, Profile: critProfile()}

	first, err := Build(in)
	require.NoError(t, err)
	firstOut := solveWith(t, first)
	require.Equal(t, solver.Optimal, firstOut.Status)
	assert.InDelta(t, 100, firstOut.Objective, 1e-6)

	second, err := BuildSecondary(in, firstOut.Objective)
	require.NoError(t, err)
	sol := solveAndExtract(t, second)

	require.NotNil(t, sol.ItemFor(182), "equal primary, better leftovers")
	assert.Equal(t, 100, sol.Final["CRIT"])
	assert.Equal(t, 25, sol.Final["PIE"])
	assert.InDelta(t, 25, sol.Objective, 1e-6, "phase two reports the secondary objective")
	assert.InDelta(t, 100, sol.WeightedSum, 1e-9, "the recomputed weighted sum still reflects the primary")
}

func TestSolve_FullKit(t *testing.T) {
	pool := newPool(
		[]catalog.Slot{{Name: "weapon", Occupancy: 1}, {Name: "ring", Occupancy: 2}},
		map[string][]catalog.Item{
			"weapon": {
				{ID: 501, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 95, "DET": 40}, MateriaSlots: 1},
				{ID: 502, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 105}},
			},
			"ring": {
				{ID: 601, Slot: "ring", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 40}},
				{ID: 602, Slot: "ring", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 35, "SPS": 20}},
			},
		},
	)
	pool.Materia = []catalog.Materia{{ID: 901, Stat: "CRIT", Tier: 10, Bonus: 33}}
	pool.Food = []catalog.Food{{
		ID: 801, Name: "stew",
		Effects: map[catalog.Stat]catalog.FoodEffect{"CRIT": {Percent: 0.10, Max: 30}},
	}}
	profile := config.JobProfile{
		Job:      "WHM",
		Weights:  map[catalog.Stat]float64{"CRIT": 1, "DET": 0.5},
		Minimums: map[catalog.Stat]int{"SPS": 20},
	}

	m, err := Build(BuildInput{Pool: pool, Profile: profile})
	require.NoError(t, err)

	sol := solveAndExtract(t, m)

	// Melded 501 carries 128 crit and 40 det, beating the flat 105; the
	// floor keeps exactly one 602 on a finger; food adds 10% of 203.
	require.NotNil(t, sol.ItemFor(501))
	require.NotNil(t, sol.ItemFor(601))
	require.NotNil(t, sol.ItemFor(602))
	assert.Nil(t, sol.ItemFor(502))
	assert.Equal(t, 203, sol.Allocatable["CRIT"])
	assert.Equal(t, 223, sol.Final["CRIT"])
	assert.Equal(t, 40, sol.Final["DET"])
	assert.Equal(t, 20, sol.Final["SPS"])
	require.NotNil(t, sol.Food)

	// The program treats the percentage bonus as continuous, so the
	// reported objective carries the 0.3 the decoded total floors away.
	assert.InDelta(t, 243.3, sol.Objective, 1e-6)
	assert.InDelta(t, 243.0, sol.WeightedSum, 1e-9)
}

func TestSolve_FiniteDomainAgrees(t *testing.T) {
	item := catalog.Item{
		ID: 121, Slot: "weapon", ItemLevel: 100,
		Bonuses:      map[catalog.Stat]int{"CRIT": 10},
		MateriaSlots: 2,
	}
	pool := weaponPool(item)
	pool.Materia = []catalog.Materia{{ID: 901, Stat: "CRIT", Tier: 10, Bonus: 33}}

	m, err := Build(BuildInput{Pool: pool, Profile: critProfile()})
	require.NoError(t, err)

	out, err := solver.NewFiniteDomain().Solve(context.Background(), m.Program)
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, out.Status)
	assert.InDelta(t, 76, out.Objective, 1e-6)

	sol, err := Extract(m, out)
	require.NoError(t, err)
	assert.Equal(t, 76, sol.Final["CRIT"])
}
