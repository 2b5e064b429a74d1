package main

import (
	"fmt"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/config"
)

// loadInputs reads the game data and profile documents and resolves the
// profile's job and stat names against the catalog. Shared by every
// subcommand that runs solves.
func loadInputs(dataPath, configPath string) (*catalog.Catalog, *config.Resolved, error) {
	cat, err := catalog.Load(dataPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load game data: %w", err)
	}

	profile, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load profile config: %w", err)
	}

	resolved, err := config.Resolve(profile, cat)
	if err != nil {
		return nil, nil, err
	}

	return cat, resolved, nil
}

// jobProfileFor looks up the resolved optimization targets for a job,
// wrapping the miss in a message that names the config file.
func jobProfileFor(resolved *config.Resolved, job catalog.Job, configPath string) (config.JobProfile, error) {
	profile, ok := resolved.JobFor(job)
	if !ok {
		return config.JobProfile{}, fmt.Errorf("no profile configured for job %q in %s", job, configPath)
	}
	return profile, nil
}
