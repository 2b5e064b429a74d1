// Package optimize provides the high-level orchestration for a best-in-slot
// solve: formulate the program, dispatch it to a backend, optionally
// re-solve for the secondary objective, and decode the winning assignment.
package optimize

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/loadout"
	"github.com/jonathan/bis-solver/internal/solver"
)

// defaultSweepParallelism bounds concurrent window solves.
const defaultSweepParallelism = 4

// SweepOptions holds configuration for a sweep over item-level ceilings.
type SweepOptions struct {
	Catalog   *catalog.Catalog
	Job       catalog.Job
	Profile   config.JobProfile
	RelicCaps config.RelicCapTable
	BaseStats map[catalog.Stat]int

	// MinItemLevel is the fixed lower bound shared by every window. The
	// swept ceiling runs From..To inclusive in increments of Step.
	MinItemLevel int
	From, To     int
	Step         int

	ExcludeIDs      []int
	MaxOvermeldTier int

	Backend     solver.Backend
	Secondary   bool
	Timeout     time.Duration // per window
	Parallelism int
	DatabaseURL string
}

// WindowResult pairs one swept ceiling with its solve outcome. An
// infeasible window is a normal result, not an error.
type WindowResult struct {
	MaxItemLevel int
	Status       solver.Status
	Solution     *loadout.Solution
}

// Sweep solves one window per item-level ceiling, in parallel with bounded
// concurrency. Results come back in ceiling order regardless of completion
// order; the first hard error cancels the remaining windows.
func Sweep(ctx context.Context, opts SweepOptions) ([]WindowResult, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("optimize: no catalog configured")
	}
	if opts.Step <= 0 {
		return nil, fmt.Errorf("optimize: sweep step must be positive, got %d", opts.Step)
	}
	if opts.From > opts.To {
		return nil, fmt.Errorf("optimize: sweep range %d-%d is empty", opts.From, opts.To)
	}

	var ceilings []int
	for x := opts.From; x <= opts.To; x += opts.Step {
		ceilings = append(ceilings, x)
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = defaultSweepParallelism
	}

	results := make([]WindowResult, len(ceilings))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, ceiling := range ceilings {
		i, ceiling := i, ceiling
		g.Go(func() error {
			pool, err := opts.Catalog.BuildPool(catalog.PoolOptions{
				Job:             opts.Job,
				MinItemLevel:    opts.MinItemLevel,
				MaxItemLevel:    ceiling,
				ExcludeIDs:      opts.ExcludeIDs,
				MaxOvermeldTier: opts.MaxOvermeldTier,
			})
			if err != nil {
				return fmt.Errorf("window %d: %w", ceiling, err)
			}
			res, err := Run(gCtx, RunOptions{
				Pool:         pool,
				Profile:      opts.Profile,
				RelicCaps:    opts.RelicCaps,
				BaseStats:    opts.BaseStats,
				Backend:      opts.Backend,
				Secondary:    opts.Secondary,
				Timeout:      opts.Timeout,
				Quiet:        true,
				DatabaseURL:  opts.DatabaseURL,
				MinItemLevel: opts.MinItemLevel,
				MaxItemLevel: ceiling,
			})
			if err != nil {
				return fmt.Errorf("window %d: %w", ceiling, err)
			}
			results[i] = WindowResult{MaxItemLevel: ceiling, Status: res.Status, Solution: res.Solution}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
