package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/loadout"
	"github.com/jonathan/bis-solver/internal/optimize"
	"github.com/jonathan/bis-solver/internal/solver"
)

func TestPrintSweep_OneLinePerWindow(t *testing.T) {
	results := []optimize.WindowResult{
		{MaxItemLevel: 80, Status: solver.Infeasible},
		{MaxItemLevel: 90, Status: solver.Optimal, Solution: &loadout.Solution{
			Objective: 812.4,
			Food:      &catalog.Food{Name: "Smoked Chicken"},
		}},
		{MaxItemLevel: 100, Status: solver.Optimal, Solution: &loadout.Solution{Objective: 903.1}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintSweep(results)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4, "header plus one line per window")

	assert.Contains(t, lines[0], "max ilvl")
	assert.Contains(t, lines[1], "80")
	assert.Contains(t, lines[1], "infeasible")
	assert.NotContains(t, lines[1], "812")
	assert.Contains(t, lines[2], "812.400000")
	assert.Contains(t, lines[2], "Smoked Chicken")
	assert.Contains(t, lines[3], "903.100000")
	assert.Contains(t, lines[3], "(none)")
}
