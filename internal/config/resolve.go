// Package config loads the optimization profile document and resolves it
// against the game data catalog.
package config

import (
	"sort"

	"github.com/jonathan/bis-solver/internal/catalog"
)

// JobProfile carries the per-job optimization targets with every stat name
// resolved against the catalog.
type JobProfile struct {
	Job      catalog.Job
	Weights  map[catalog.Stat]float64
	Minimums map[catalog.Stat]int
}

// RelicCapTable maps item level to the discretionary point budget of relic
// items at that level. Levels without an entry have no budget.
type RelicCapTable map[int]int

// CapFor returns the discretionary point budget for an item level.
func (t RelicCapTable) CapFor(itemLevel int) int {
	return t[itemLevel]
}

// Resolved is a profile whose names have all been checked against a catalog.
type Resolved struct {
	Jobs      map[catalog.Job]JobProfile
	RelicCaps RelicCapTable
	BaseStats map[catalog.Stat]int
}

// JobFor returns the resolved targets for one job.
func (r *Resolved) JobFor(job catalog.Job) (JobProfile, bool) {
	jp, ok := r.Jobs[job]
	return jp, ok
}

// Resolve checks every job and stat name in the profile against the catalog.
// Every unresolved name is collected into a single ResolveError.
func Resolve(p *Profile, cat *catalog.Catalog) (*Resolved, error) {
	unknownJobs := make(map[string]bool)
	unknownStats := make(map[string]bool)

	noteStat := func(name string) bool {
		if cat.HasStat(catalog.Stat(name)) {
			return true
		}
		unknownStats[name] = true
		return false
	}

	resolved := &Resolved{
		Jobs:      make(map[catalog.Job]JobProfile, len(p.Jobs)),
		RelicCaps: RelicCapTable(p.RelicCaps),
		BaseStats: make(map[catalog.Stat]int, len(p.BaseStats)),
	}

	for jobName, settings := range p.Jobs {
		if !cat.HasJob(catalog.Job(jobName)) {
			unknownJobs[jobName] = true
		}

		jp := JobProfile{
			Job:      catalog.Job(jobName),
			Weights:  make(map[catalog.Stat]float64, len(settings.Weights)),
			Minimums: make(map[catalog.Stat]int, len(settings.Minimums)),
		}
		for statName, weight := range settings.Weights {
			if noteStat(statName) {
				jp.Weights[catalog.Stat(statName)] = weight
			}
		}
		for statName, minimum := range settings.Minimums {
			if noteStat(statName) {
				jp.Minimums[catalog.Stat(statName)] = minimum
			}
		}
		resolved.Jobs[catalog.Job(jobName)] = jp
	}

	for statName, base := range p.BaseStats {
		if noteStat(statName) {
			resolved.BaseStats[catalog.Stat(statName)] = base
		}
	}

	if len(unknownJobs) > 0 || len(unknownStats) > 0 {
		return nil, &ResolveError{
			UnknownJobs:  sortedKeys(unknownJobs),
			UnknownStats: sortedKeys(unknownStats),
		}
	}

	return resolved, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
