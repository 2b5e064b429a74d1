// Package report renders solved loadouts as structured text.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/loadout"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
)

// Printer renders reports to a single writer. It holds no other state, so a
// Printer is safe to reuse across solves as long as writes are serialized.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSolution outputs the full loadout report: per slot the chosen items
// with their melds and relic points, the chosen food, and the stat totals
// before and after food.
func (p *Printer) PrintSolution(sol *loadout.Solution, profile config.JobProfile) {
	if sol == nil {
		return
	}

	var sb strings.Builder
	for _, sa := range sol.Slots {
		for i, ci := range sa.Items {
			label := ""
			if i == 0 {
				label = sa.Slot.Name
			}
			sb.WriteString(fmt.Sprintf("%-9s %s\n", label, itemLine(ci)))
			for _, meld := range ci.Melds {
				sb.WriteString(fmt.Sprintf("%9s + %dx %s\n", "", meld.Count, meld.Materia.Name))
			}
			if len(ci.Relic) > 0 {
				sb.WriteString(fmt.Sprintf("%9s + %s\n", "", relicLine(ci.Relic)))
			}
		}
	}
	sb.WriteString("\n")
	if sol.Food != nil {
		sb.WriteString(fmt.Sprintf("%-9s %s\n", "food", sol.Food.Name))
	} else {
		sb.WriteString(fmt.Sprintf("%-9s (none)\n", "food"))
	}
	p.printBox(fmt.Sprintf("OPTIMAL LOADOUT: %s", sol.Job), strings.TrimSuffix(sb.String(), "\n"))

	p.printTotals(sol, profile)
}

// printTotals outputs the aggregate stat vector with the per-stat weights and
// minimums that shaped it, plus the objective values.
func (p *Printer) printTotals(sol *loadout.Solution, profile config.JobProfile) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-8s %12s %8s\n", "stat", "allocatable", "total"))
	for _, s := range sol.Stats {
		line := fmt.Sprintf("%-8s %12d %8d", s, sol.Allocatable[s], sol.Final[s])
		if note := statNote(s, profile); note != "" {
			line += "   " + note
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("objective (solver)    %14.6f\n", sol.Objective))
	sb.WriteString(fmt.Sprintf("weighted sum (decoded)%14.6f", sol.WeightedSum))
	p.printBox("STAT TOTALS", sb.String())
}

// PrintPool outputs a candidate pool summary, used in verbose mode before
// the solve starts.
func (p *Printer) PrintPool(pool *catalog.Pool) {
	if pool == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Candidates per slot:\n")
	for _, slot := range pool.Slots {
		sb.WriteString(fmt.Sprintf("  %-9s %d\n", slot.Name, len(pool.ItemsBySlot[slot.Name])))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Materia types: %d\n", len(pool.Materia)))
	sb.WriteString(fmt.Sprintf("Food choices:  %d", len(pool.Food)))
	if pool.MaxOvermeldTier > 0 {
		sb.WriteString(fmt.Sprintf("\nOvermeld tier: up to %d", pool.MaxOvermeldTier))
	}
	p.printBox(fmt.Sprintf("CANDIDATE POOL: %s", pool.Job), sb.String())
}

// itemLine renders one chosen item with its copy count and item level.
func itemLine(ci loadout.ChosenItem) string {
	if ci.Count > 1 {
		return fmt.Sprintf("%dx %s (i%d)", ci.Count, ci.Item.Name, ci.Item.ItemLevel)
	}
	return fmt.Sprintf("%s (i%d)", ci.Item.Name, ci.Item.ItemLevel)
}

// relicLine renders discretionary point allocations like "12 CRIT, 6 DET".
func relicLine(allocs []loadout.RelicAllocation) string {
	parts := make([]string, 0, len(allocs))
	for _, a := range allocs {
		parts = append(parts, fmt.Sprintf("%d %s", a.Points, a.Stat))
	}
	return strings.Join(parts, ", ") + " (discretionary)"
}

// statNote annotates a stat line with its objective weight and configured
// minimum, when present.
func statNote(s catalog.Stat, profile config.JobProfile) string {
	var parts []string
	if w, ok := profile.Weights[s]; ok {
		parts = append(parts, fmt.Sprintf("weight %.2f", w))
	}
	if m, ok := profile.Minimums[s]; ok {
		parts = append(parts, fmt.Sprintf("min %d", m))
	}
	return strings.Join(parts, ", ")
}
