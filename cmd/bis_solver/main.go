// Package main provides the bis_solver command line interface.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bis_solver",
	Short: "Best-in-slot equipment optimizer",
	Long:  "bis_solver finds the gear, materia, and food combination maximizing a job's weighted stats. The loadout is formulated as a mixed-integer linear program and handed to an exact solver backend.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errNoFeasibleLoadout) {
			// The solve ran to completion and proved the constraints cannot
			// be met; distinct from usage and backend failures.
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
