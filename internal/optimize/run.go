// Package optimize provides the high-level orchestration for a best-in-slot
// solve: formulate the program, dispatch it to a backend, optionally
// re-solve for the secondary objective, and decode the winning assignment.
package optimize

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/bis-solver/internal/archive"
	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/loadout"
	"github.com/jonathan/bis-solver/internal/solver"
)

// RunOptions holds configuration for running one solve.
type RunOptions struct {
	Pool      *catalog.Pool
	Profile   config.JobProfile
	RelicCaps config.RelicCapTable
	BaseStats map[catalog.Stat]int

	Backend solver.Backend

	// Secondary enables the lexicographic second phase: among loadouts
	// with the optimal weighted sum, maximize the unweighted stats.
	Secondary bool

	// Timeout bounds the backend solving, both phases together. Zero
	// means no limit.
	Timeout time.Duration

	// DumpModel receives the phase-one program as LP text when set.
	DumpModel io.Writer

	Verbose bool
	// Quiet suppresses step prints; sweep workers and the server set it.
	Quiet bool

	// DatabaseURL activates archive persistence. A connection failure
	// degrades to a warning, never fails the solve.
	DatabaseURL string

	// MinItemLevel and MaxItemLevel describe the window the pool was
	// filtered with; they only feed the archive record.
	MinItemLevel int
	MaxItemLevel int
}

// Result is the outcome of one orchestrated solve.
type Result struct {
	Status solver.Status
	// Solution is set only when Status is Optimal.
	Solution *loadout.Solution
	// Phases counts the backend invocations behind the solution: 1, or 2
	// when the secondary phase ran and improved the tie-break.
	Phases int
	// RunID is the archive record id, uuid.Nil when nothing was persisted.
	RunID uuid.UUID
}

// Run orchestrates the full solve. Infeasible and unbounded programs are
// reported through Result.Status, not as errors; errors mean the solve
// itself could not be carried out.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("optimize: no backend configured")
	}

	logf := func(format string, args ...any) {
		if !opts.Quiet {
			fmt.Printf(format, args...)
		}
	}

	// Connect the archive if configured
	var store *archive.Store
	if opts.DatabaseURL != "" {
		var err error
		store, err = archive.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without archive persistence...\n")
			store = nil
		} else {
			defer store.Close()
			if opts.Verbose && !opts.Quiet {
				fmt.Printf("[VERBOSE] Connected to archive database\n")
			}
		}
	}

	in := loadout.BuildInput{
		Pool:      opts.Pool,
		Profile:   opts.Profile,
		RelicCaps: opts.RelicCaps,
		BaseStats: opts.BaseStats,
	}

	logf("Step 1/3: Building model for %s...\n", opts.Pool.Job)
	model, err := loadout.Build(in)
	if err != nil {
		return nil, fmt.Errorf("building model failed: %w", err)
	}
	if opts.Verbose && !opts.Quiet {
		fmt.Printf("[VERBOSE] %d candidates, %d variables, %d constraints\n",
			opts.Pool.CandidateCount(), model.Program.NumVars(), model.Program.NumConstraints())
	}

	if opts.DumpModel != nil {
		if err := model.Program.WriteLP(opts.DumpModel); err != nil {
			return nil, fmt.Errorf("dumping model failed: %w", err)
		}
	}

	var runID uuid.UUID
	if store != nil {
		runID, err = store.CreateRun(ctx, string(opts.Pool.Job), opts.Backend.Name(),
			opts.MinItemLevel, opts.MaxItemLevel, opts.Secondary)
		if err != nil {
			fmt.Printf("Warning: Failed to create archive run: %v\n", err)
			runID = uuid.Nil
		} else if opts.Verbose && !opts.Quiet {
			fmt.Printf("[VERBOSE] Created archive run: %s\n", runID)
		}
	}

	solveCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logf("Step 2/3: Solving with backend %s...\n", opts.Backend.Name())
	outcome, err := opts.Backend.Solve(solveCtx, model.Program)
	if err != nil {
		if store != nil && runID != uuid.Nil {
			_ = store.CompleteRun(ctx, runID, "error", nil)
		}
		return nil, fmt.Errorf("solving failed: %w", err)
	}

	if outcome.Status != solver.Optimal {
		logf("Backend reports the program is %s.\n", outcome.Status)
		if store != nil && runID != uuid.Nil {
			_ = store.CompleteRun(ctx, runID, outcome.Status.String(), nil)
		}
		return &Result{Status: outcome.Status, Phases: 1, RunID: runID}, nil
	}

	primary := outcome
	finalModel, finalOutcome := model, outcome
	phases := 1

	if opts.Secondary {
		if stats := loadout.SecondaryStats(opts.Pool, opts.Profile); len(stats) > 0 {
			logf("Step 2a/3: Re-solving with the primary objective frozen (%d secondary stats)...\n", len(stats))
			second, err := loadout.BuildSecondary(in, primary.Objective)
			if err != nil {
				return nil, fmt.Errorf("building secondary model failed: %w", err)
			}
			secondOut, err := opts.Backend.Solve(solveCtx, second.Program)
			if err != nil {
				if store != nil && runID != uuid.Nil {
					_ = store.CompleteRun(ctx, runID, "error", nil)
				}
				return nil, fmt.Errorf("secondary solve failed: %w", err)
			}
			if secondOut.Status == solver.Optimal {
				finalModel, finalOutcome = second, secondOut
				phases = 2
			} else {
				fmt.Printf("Warning: secondary phase came back %s; keeping the primary solution\n", secondOut.Status)
			}
		} else if opts.Verbose && !opts.Quiet {
			fmt.Printf("[VERBOSE] Every stat is weighted; skipping the secondary phase\n")
		}
	}

	logf("Step 3/3: Decoding solution...\n")
	sol, err := loadout.Extract(finalModel, finalOutcome)
	if err != nil {
		if store != nil && runID != uuid.Nil {
			_ = store.CompleteRun(ctx, runID, "error", nil)
		}
		return nil, err
	}
	// Whichever phase produced the assignment, the reported objective is
	// the primary optimum.
	sol.Objective = primary.Objective

	if store != nil && runID != uuid.Nil {
		objective := sol.Objective
		if err := store.CompleteRun(ctx, runID, solver.Optimal.String(), &objective); err != nil {
			fmt.Printf("Warning: Failed to complete archive run: %v\n", err)
		}
		if err := store.SaveSolution(ctx, runID, sol); err != nil {
			fmt.Printf("Warning: Failed to archive solution: %v\n", err)
		}
	}

	return &Result{Status: solver.Optimal, Solution: sol, Phases: phases, RunID: runID}, nil
}
