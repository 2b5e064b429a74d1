package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
	"github.com/jonathan/bis-solver/internal/optimize"
	"github.com/jonathan/bis-solver/internal/report"
	"github.com/jonathan/bis-solver/internal/solver"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep JOB",
	Short: "Solve across a range of item-level ceilings",
	Long: `Runs one solve per item-level ceiling between --from and --to and prints
a comparison table, showing how the optimal loadout improves as higher
gear becomes available. Windows solve in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runSweep,
}

var (
	sweepDataPath        string
	sweepConfigPath      string
	sweepFrom            int
	sweepTo              int
	sweepStep            int
	sweepMinItemLevel    int
	sweepExcludeIDs      []int
	sweepMaxOvermeldTier int
	sweepNoSecondary     bool
	sweepBackendName     string
	sweepTimeout         time.Duration
	sweepParallelism     int
	sweepDatabaseURL     string
)

func init() {
	sweepCmd.Flags().StringVarP(&sweepDataPath, "data", "d", "", "Path to game data JSON file (required)")
	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "c", config.DefaultPath, "Path to profile config file")
	sweepCmd.Flags().IntVar(&sweepFrom, "from", 0, "First item-level ceiling (required)")
	sweepCmd.Flags().IntVar(&sweepTo, "to", 0, "Last item-level ceiling (required)")
	sweepCmd.Flags().IntVar(&sweepStep, "step", 10, "Ceiling increment between windows")
	sweepCmd.Flags().IntVar(&sweepMinItemLevel, "min-ilvl", 0, "Lowest item level shared by every window (0 = no bound)")
	sweepCmd.Flags().IntSliceVar(&sweepExcludeIDs, "exclude", nil, "Item id to exclude from every slot (repeatable)")
	sweepCmd.Flags().IntVar(&sweepMaxOvermeldTier, "max-overmeld-tier", 0, "Highest materia tier allowed in overmeld slots (0 = unrestricted)")
	sweepCmd.Flags().BoolVar(&sweepNoSecondary, "no-secondary", false, "Skip maximizing unweighted stats among optimal loadouts")
	sweepCmd.Flags().StringVar(&sweepBackendName, "solver", solver.DefaultName, "Solver backend (bnb, fd, cplex)")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 0, "Per-window solve limit, e.g. 30s (0 = no limit)")
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallel", 0, "Concurrent window solves (0 = default)")
	sweepCmd.Flags().StringVar(&sweepDatabaseURL, "db-url", "", "PostgreSQL URL for archiving results (optional, defaults to DATABASE_URL env var)")

	if err := sweepCmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Sprintf("failed to mark data flag as required: %v", err))
	}
	if err := sweepCmd.MarkFlagRequired("from"); err != nil {
		panic(fmt.Sprintf("failed to mark from flag as required: %v", err))
	}
	if err := sweepCmd.MarkFlagRequired("to"); err != nil {
		panic(fmt.Sprintf("failed to mark to flag as required: %v", err))
	}

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(_ *cobra.Command, args []string) error {
	job := catalog.Job(args[0])
	ctx := context.Background()

	cat, resolved, err := loadInputs(sweepDataPath, sweepConfigPath)
	if err != nil {
		return err
	}
	profile, err := jobProfileFor(resolved, job, sweepConfigPath)
	if err != nil {
		return err
	}

	backend, err := solver.New(sweepBackendName)
	if err != nil {
		return err
	}

	fmt.Printf("Sweeping %s from ilvl %d to %d (step %d, backend %s)...\n",
		job, sweepFrom, sweepTo, sweepStep, backend.Name())

	results, err := optimize.Sweep(ctx, optimize.SweepOptions{
		Catalog:         cat,
		Job:             job,
		Profile:         profile,
		RelicCaps:       resolved.RelicCaps,
		BaseStats:       resolved.BaseStats,
		MinItemLevel:    sweepMinItemLevel,
		From:            sweepFrom,
		To:              sweepTo,
		Step:            sweepStep,
		ExcludeIDs:      sweepExcludeIDs,
		MaxOvermeldTier: sweepMaxOvermeldTier,
		Backend:         backend,
		Secondary:       !sweepNoSecondary,
		Timeout:         sweepTimeout,
		Parallelism:     sweepParallelism,
		DatabaseURL:     databaseURL(sweepDatabaseURL),
	})
	if err != nil {
		return err
	}

	report.NewPrinter(os.Stdout).PrintSweep(results)
	return nil
}
