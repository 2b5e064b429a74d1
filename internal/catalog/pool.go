// Package catalog loads the game data document and derives the filtered
// candidate pools the optimizer runs on.
package catalog

import "fmt"

// PoolOptions narrows the catalog to the candidates considered for one solve.
type PoolOptions struct {
	Job          Job
	MinItemLevel int // 0 means no lower bound
	MaxItemLevel int // 0 means no upper bound
	ExcludeIDs   []int

	// MaxOvermeldTier is the highest materia tier allowed in meld slots
	// beyond an item's base count. 0 means unrestricted.
	MaxOvermeldTier int
}

// Pool is the candidate set for one solve: the slots to fill and, per slot,
// the usable items, plus the materia and food under consideration. Stats
// carries the catalog's full stat vocabulary so downstream consumers need no
// second handle on the catalog.
type Pool struct {
	Job             Job
	Stats           []Stat
	Slots           []Slot
	ItemsBySlot     map[string][]Item
	Materia         []Materia
	Food            []Food
	MaxOvermeldTier int

	// Warnings collects non-fatal findings, e.g. excluded ids that do not
	// exist in the catalog.
	Warnings []string
}

// BuildPool filters the catalog down to the candidates usable by the given
// job inside the item-level window. Unknown exclusion ids produce a warning
// and are otherwise ignored.
func (c *Catalog) BuildPool(opts PoolOptions) (*Pool, error) {
	if !c.HasJob(opts.Job) {
		return nil, &Error{Message: fmt.Sprintf("unknown job %q", opts.Job)}
	}
	if opts.MinItemLevel > 0 && opts.MaxItemLevel > 0 && opts.MinItemLevel > opts.MaxItemLevel {
		return nil, &Error{Message: fmt.Sprintf("item level window %d-%d is empty", opts.MinItemLevel, opts.MaxItemLevel)}
	}

	excluded := make(map[int]bool, len(opts.ExcludeIDs))
	for _, id := range opts.ExcludeIDs {
		excluded[id] = true
	}

	pool := &Pool{
		Job:             opts.Job,
		Stats:           c.Stats,
		Slots:           c.Slots,
		ItemsBySlot:     make(map[string][]Item, len(c.Slots)),
		Materia:         c.Materia,
		Food:            c.Food,
		MaxOvermeldTier: opts.MaxOvermeldTier,
	}

	known := make(map[int]bool, len(c.Items))
	for _, it := range c.Items {
		known[it.ID] = true
		if excluded[it.ID] {
			continue
		}
		if !it.UsableBy(opts.Job) {
			continue
		}
		if opts.MinItemLevel > 0 && it.ItemLevel < opts.MinItemLevel {
			continue
		}
		if opts.MaxItemLevel > 0 && it.ItemLevel > opts.MaxItemLevel {
			continue
		}
		pool.ItemsBySlot[it.Slot] = append(pool.ItemsBySlot[it.Slot], it)
	}

	for _, id := range opts.ExcludeIDs {
		if !known[id] {
			pool.Warnings = append(pool.Warnings, fmt.Sprintf("excluded item id %d not present in catalog", id))
		}
	}

	return pool, nil
}

// OvermeldEligible reports whether the materia may occupy meld slots beyond
// an item's base count.
func (p *Pool) OvermeldEligible(m Materia) bool {
	return p.MaxOvermeldTier == 0 || m.Tier <= p.MaxOvermeldTier
}

// CandidateCount returns the total number of items across all slots.
func (p *Pool) CandidateCount() int {
	total := 0
	for _, items := range p.ItemsBySlot {
		total += len(items)
	}
	return total
}
