package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs in a game data file",
	Long:  `Lists every job the catalog knows, marking the ones the profile config carries optimization targets for.`,
	RunE:  runJobs,
}

var (
	jobsDataPath   string
	jobsConfigPath string
)

func init() {
	jobsCmd.Flags().StringVarP(&jobsDataPath, "data", "d", "", "Path to game data JSON file (required)")
	jobsCmd.Flags().StringVarP(&jobsConfigPath, "config", "c", config.DefaultPath, "Path to profile config file")

	if err := jobsCmd.MarkFlagRequired("data"); err != nil {
		panic(fmt.Sprintf("failed to mark data flag as required: %v", err))
	}

	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, _ []string) error {
	cat, err := catalog.Load(jobsDataPath)
	if err != nil {
		return fmt.Errorf("failed to load game data: %w", err)
	}

	// The profile annotation is best effort with the default config path;
	// an explicitly given file must load.
	var resolved *config.Resolved
	if profile, err := config.Load(jobsConfigPath); err == nil {
		resolved, err = config.Resolve(profile, cat)
		if err != nil {
			return err
		}
	} else if cmd.Flags().Changed("config") {
		return fmt.Errorf("failed to load profile config: %w", err)
	}

	jobs := make([]string, 0, len(cat.Jobs))
	for _, j := range cat.Jobs {
		jobs = append(jobs, string(j))
	}
	sort.Strings(jobs)

	for _, name := range jobs {
		line := name
		if resolved != nil {
			if jp, ok := resolved.JobFor(catalog.Job(name)); ok {
				line = fmt.Sprintf("%s   (%d weights, %d minimums)", name, len(jp.Weights), len(jp.Minimums))
			}
		}
		_, _ = fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
