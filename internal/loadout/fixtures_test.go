package loadout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/solver"
)

// Fixtures build pools by hand rather than through catalog.Load so each test
// states exactly the candidates it reasons about.

func testStats() []catalog.Stat {
	return []catalog.Stat{"CRIT", "DET", "SPS", "PIE"}
}

func newPool(slots []catalog.Slot, items map[string][]catalog.Item) *catalog.Pool {
	return &catalog.Pool{
		Job:         "WHM",
		Stats:       testStats(),
		Slots:       slots,
		ItemsBySlot: items,
	}
}

func weaponPool(items ...catalog.Item) *catalog.Pool {
	return newPool(
		[]catalog.Slot{{Name: "weapon", Occupancy: 1}},
		map[string][]catalog.Item{"weapon": items},
	)
}

func critProfile() config.JobProfile {
	return config.JobProfile{
		Job:      "WHM",
		Weights:  map[catalog.Stat]float64{"CRIT": 1},
		Minimums: map[catalog.Stat]int{},
	}
}

func critItem(id, crit int) catalog.Item {
	return catalog.Item{
		ID:        id,
		Name:      "item",
		Slot:      "weapon",
		ItemLevel: 100,
		Bonuses:   map[catalog.Stat]int{"CRIT": crit},
	}
}

func solveWith(t *testing.T, m *Model) *solver.Outcome {
	t.Helper()
	out, err := solver.NewBranchAndBound().Solve(context.Background(), m.Program)
	require.NoError(t, err)
	return out
}

func solveAndExtract(t *testing.T, m *Model) *Solution {
	t.Helper()
	out := solveWith(t, m)
	require.Equal(t, solver.Optimal, out.Status)
	sol, err := Extract(m, out)
	require.NoError(t, err)
	return sol
}

func varNames(m *Model) []string {
	names := make([]string, 0, len(m.Program.Vars))
	for _, v := range m.Program.Vars {
		names = append(names, v.Name)
	}
	return names
}

func constraintByName(m *Model, name string) (int, bool) {
	for i, c := range m.Program.Constraints {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}
