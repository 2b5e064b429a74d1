// Package loadout builds the linear program for one gear optimization and
// decodes solver assignments back into verified loadout solutions.
package loadout

import (
	"github.com/jonathan/bis-solver/internal/catalog"
)

// Meld is one materia assignment on an item. Count aggregates across every
// chosen copy of the item, so a twice-worn ring holds up to twice its
// per-copy capacity.
type Meld struct {
	Materia catalog.Materia `json:"materia"`
	Count   int             `json:"count"`
}

// RelicAllocation is a discretionary stat assignment on one relic item.
type RelicAllocation struct {
	Stat   catalog.Stat `json:"stat"`
	Points int          `json:"points"`
}

// ChosenItem is one distinct item in the loadout with its copy count and
// per-item assignments.
type ChosenItem struct {
	Item  catalog.Item      `json:"item"`
	Count int               `json:"count"`
	Melds []Meld            `json:"melds,omitempty"`
	Relic []RelicAllocation `json:"relic,omitempty"`
}

// SlotAssignment groups the chosen items of one slot. Copy counts add up to
// the slot's occupancy; the ring pair is a multiset, so one id may appear
// with Count 2.
type SlotAssignment struct {
	Slot  catalog.Slot `json:"slot"`
	Items []ChosenItem `json:"items"`
}

// Solution is the decoded result of one optimal solve. It is produced once
// by Extract and never mutated afterwards. Aggregates are recomputed from
// the decoded choices with integer arithmetic rather than copied from the
// solver, so Objective (solver-reported) and WeightedSum (recomputed) sit
// side by side for cross-validation.
type Solution struct {
	Job   catalog.Job      `json:"job"`
	Slots []SlotAssignment `json:"slots"`

	// Food is the chosen consumable, nil when no food improves the result.
	Food *catalog.Food `json:"food,omitempty"`

	// Stats preserves the catalog's display order for the aggregates.
	Stats []catalog.Stat `json:"stats"`
	// Allocatable holds the pre-food totals including base stats.
	Allocatable map[catalog.Stat]int `json:"allocatable"`
	// Final holds the totals after the chosen food's capped bonuses.
	Final map[catalog.Stat]int `json:"final"`

	Objective   float64 `json:"objective"`
	WeightedSum float64 `json:"weighted_sum"`
}

// ItemFor returns the chosen entry for an item id, or nil when the item is
// not part of the loadout.
func (s *Solution) ItemFor(id int) *ChosenItem {
	for i := range s.Slots {
		for j := range s.Slots[i].Items {
			if s.Slots[i].Items[j].Item.ID == id {
				return &s.Slots[i].Items[j]
			}
		}
	}
	return nil
}

// TotalMelds returns the number of melds across the whole loadout.
func (s *Solution) TotalMelds() int {
	total := 0
	for _, slot := range s.Slots {
		for _, item := range slot.Items {
			for _, meld := range item.Melds {
				total += meld.Count
			}
		}
	}
	return total
}
