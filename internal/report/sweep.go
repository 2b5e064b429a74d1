package report

import (
	"fmt"

	"github.com/jonathan/bis-solver/internal/optimize"
	"github.com/jonathan/bis-solver/internal/solver"
)

// PrintSweep outputs one line per swept item-level ceiling: the solve status,
// the objective reached, and the food the window settled on.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSweep(results []optimize.WindowResult) {
	fmt.Fprintf(p.out, "%-10s %-12s %14s   %s\n", "max ilvl", "status", "objective", "food")
	for _, r := range results {
		objective := fmt.Sprintf("%14s", "-")
		food := "-"
		if r.Status == solver.Optimal && r.Solution != nil {
			objective = fmt.Sprintf("%14.6f", r.Solution.Objective)
			food = "(none)"
			if r.Solution.Food != nil {
				food = r.Solution.Food.Name
			}
		}
		fmt.Fprintf(p.out, "%-10d %-12s %s   %s\n", r.MaxItemLevel, r.Status, objective, food)
	}
}
