package main

import (
	"context"
	"errors"
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

// errNoFeasibleLoadout distinguishes a proven-infeasible solve from real
// failures; main maps it to exit code 2.
var errNoFeasibleLoadout = errors.New("no feasible loadout under current constraints")

var solveCmd = &cobra.Command{
	Use:   "solve JOB",
	Short: "Find the optimal loadout for a job",
	Long: `Selects one item per equipment slot (two rings), meld assignments, relic
point allocations, and a food so that the job's weighted stat total is
maximal while every configured stat minimum is met.

Exits 2 when no loadout can satisfy the constraints.`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

var (
	solveDataPath        string
	solveConfigPath      string
	solveExcludeIDs      []int
	solveMinItemLevel    int
	solveMaxItemLevel    int
	solveMaxOvermeldTier int
	solveNoSecondary     bool
	solveBackendName     string
	solveDumpModelPath   string
	solveTimeout         time.Duration
	solveDatabaseURL     string
	solveVerbose         bool
)

func init() {
	solveCmd.Flags().StringVarP(&solveDataPath, "data", "d", "", "Path to game data JSON file (required)")
	solveCmd.Flags().StringVarP(&solveConfigPath, "config", "c", config.DefaultPath, "Path to profile config file")
	solveCmd.Flags().IntSliceVar(&solveExcludeIDs, "exclude", nil, "Item id to exclude from every slot (repeatable)")
	solveCmd.Flags().IntVar(&solveMinItemLevel, "min-ilvl", 0, "Lowest item level considered (0 = no bound)")
	solveCmd.Flags().IntVar(&solveMaxItemLevel, "max-ilvl", 0, "Highest item level considered (0 = no bound)")
	solveCmd.Flags().IntVar(&solveMaxOvermeldTier, "max-overmeld-tier", 0, "Highest materia tier allowed in overmeld slots (0 = unrestricted)")
	solveCmd.Flags().BoolVar(&solveNoSecondary, "no-secondary", false, "Skip maximizing unweighted stats among optimal loadouts")
	solveCmd.Flags().StringVar(&solveBackendName, "solver", solver.DefaultName, "Solver backend (bnb, fd, cplex)")
	solveCmd.Flags().StringVar(&solveDumpModelPath, "dump-model", "", "Write the model in LP format to this file before solving")
	solveCmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "Abort solving after this duration, e.g. 30s (0 = no limit)")
	solveCmd.Flags().StringVar(&solveDatabaseURL, "db-url", "", "PostgreSQL URL for archiving results (optional, defaults to DATABASE_URL env var)")
	solveCmd.Flags().BoolVarP(&solveVerbose, "verbose", "v", false, "Print detailed solve information")

	if err := solveCmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Sprintf("failed to mark data flag as required: %v", err))
	}

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	job := catalog.Job(args[0])
	ctx := context.Background()

	cat, resolved, err := loadInputs(solveDataPath, solveConfigPath)
	if err != nil {
		return err
	}
	profile, err := jobProfileFor(resolved, job, solveConfigPath)
	if err != nil {
		return err
	}

	pool, err := cat.BuildPool(catalog.PoolOptions{
		Job:             job,
		MinItemLevel:    solveMinItemLevel,
		MaxItemLevel:    solveMaxItemLevel,
		ExcludeIDs:      solveExcludeIDs,
		MaxOvermeldTier: solveMaxOvermeldTier,
	})
	if err != nil {
		return err
	}
	for _, warning := range pool.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	backend, err := solver.New(solveBackendName)
	if err != nil {
		return err
	}

	opts := optimize.RunOptions{
		Pool:         pool,
		Profile:      profile,
		RelicCaps:    resolved.RelicCaps,
		BaseStats:    resolved.BaseStats,
		Backend:      backend,
		Secondary:    !solveNoSecondary,
		Timeout:      solveTimeout,
		Verbose:      solveVerbose,
		DatabaseURL:  databaseURL(solveDatabaseURL),
		MinItemLevel: solveMinItemLevel,
		MaxItemLevel: solveMaxItemLevel,
	}

	if solveDumpModelPath != "" {
		f, err := os.Create(solveDumpModelPath)
		if err != nil {
			return fmt.Errorf("failed to create model dump file: %w", err)
		}
		defer f.Close()
		opts.DumpModel = f
	}

	printer := report.NewPrinter(os.Stdout)
	if solveVerbose {
		printer.PrintPool(pool)
	}

	res, err := optimize.Run(ctx, opts)
	if err != nil {
		return err
	}

	if res.Status != solver.Optimal {
		if res.Status == solver.Infeasible {
			fmt.Println("No feasible loadout under current constraints.")
		} else {
			fmt.Printf("The solver reports the model is %s.\n", res.Status)
		}
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errNoFeasibleLoadout
	}

	printer.PrintSolution(res.Solution, profile)
	return nil
}

// databaseURL applies the DATABASE_URL fallback shared by solve and sweep.
func databaseURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("DATABASE_URL")
}
