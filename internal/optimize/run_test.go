package optimize

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/solver"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Stats: []catalog.Stat{"CRIT", "DET", "SPS", "PIE"},
		Slots: []catalog.Slot{{Name: "weapon", Occupancy: 1}},
		Jobs:  []catalog.Job{"WHM"},
		Items: []catalog.Item{
			{ID: 1, Name: "old staff", Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 50}},
			{ID: 2, Name: "new staff", Slot: "weapon", ItemLevel: 110, Bonuses: map[catalog.Stat]int{"CRIT": 80}},
		},
	}
}

func critProfile() config.JobProfile {
	return config.JobProfile{
		Job:     "WHM",
		Weights: map[catalog.Stat]float64{"CRIT": 1},
	}
}

func fullPool(t *testing.T) *catalog.Pool {
	t.Helper()
	pool, err := testCatalog().BuildPool(catalog.PoolOptions{Job: "WHM"})
	require.NoError(t, err)
	return pool
}

func TestRun_SolvesAndExtracts(t *testing.T) {
	res, err := Run(context.Background(), RunOptions{
		Pool:    fullPool(t),
		Profile: critProfile(),
		Backend: solver.NewBranchAndBound(),
		Quiet:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, solver.Optimal, res.Status)
	assert.Equal(t, 1, res.Phases)
	assert.Equal(t, uuid.Nil, res.RunID)
	require.NotNil(t, res.Solution)
	require.NotNil(t, res.Solution.ItemFor(2))
	assert.InDelta(t, 80, res.Solution.Objective, 1e-6)
	assert.Equal(t, 80, res.Solution.Final["CRIT"])
}

func TestRun_RequiresBackend(t *testing.T) {
	_, err := Run(context.Background(), RunOptions{
		Pool:    fullPool(t),
		Profile: critProfile(),
		Quiet:   true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend")
}

func TestRun_DumpModel(t *testing.T) {
	var buf bytes.Buffer
	_, err := Run(context.Background(), RunOptions{
		Pool:      fullPool(t),
		Profile:   critProfile(),
		Backend:   solver.NewBranchAndBound(),
		DumpModel: &buf,
		Quiet:     true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(buf.String(), "\\ Problem: bis_WHM"))
	assert.Contains(t, buf.String(), "Maximize")
	assert.Contains(t, buf.String(), "it_weapon_1")
}

func TestRun_InfeasibleIsNotAnError(t *testing.T) {
	profile := critProfile()
	profile.Minimums = map[catalog.Stat]int{"SPS": 1000}

	res, err := Run(context.Background(), RunOptions{
		Pool:    fullPool(t),
		Profile: profile,
		Backend: solver.NewBranchAndBound(),
		Quiet:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, solver.Infeasible, res.Status)
	assert.Nil(t, res.Solution)
	assert.Equal(t, 1, res.Phases)
}

func TestRun_SecondaryPhaseBreaksTies(t *testing.T) {
	pool := &catalog.Pool{
		Job:   "WHM",
		Stats: []catalog.Stat{"CRIT", "DET", "SPS", "PIE"},
		Slots: []catalog.Slot{{Name: "weapon", Occupancy: 1}},
		ItemsBySlot: map[string][]catalog.Item{
			"weapon": {
				{ID: 181, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 100}},
				{ID: 182, Slot: "weapon", ItemLevel: 100, Bonuses: map[catalog.Stat]int{"CRIT": 100, "PIE": 25}},
			},
		},
	}

	res, err := Run(context.Background(), RunOptions{
		Pool:      pool,
		Profile:   critProfile(),
		Backend:   solver.NewBranchAndBound(),
		Secondary: true,
		Quiet:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Phases)
	require.NotNil(t, res.Solution)
	require.NotNil(t, res.Solution.ItemFor(182))
	assert.Equal(t, 25, res.Solution.Final["PIE"])
	assert.InDelta(t, 100, res.Solution.Objective, 1e-6, "the reported objective is the primary optimum")
	assert.InDelta(t, 100, res.Solution.WeightedSum, 1e-9)
}

func TestRun_SecondarySkipsWhenEveryStatIsWeighted(t *testing.T) {
	profile := config.JobProfile{
		Job:     "WHM",
		Weights: map[catalog.Stat]float64{"CRIT": 1, "DET": 0.7, "SPS": 0.5, "PIE": 0.3},
	}

	res, err := Run(context.Background(), RunOptions{
		Pool:      fullPool(t),
		Profile:   profile,
		Backend:   solver.NewBranchAndBound(),
		Secondary: true,
		Quiet:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Phases, "nothing unweighted, nothing to re-solve")
	require.NotNil(t, res.Solution)
}
