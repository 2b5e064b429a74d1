// Package catalog loads the game data document and derives the filtered
// candidate pools the optimizer runs on.
package catalog

// maxMeldCapacity is the total materia capacity of an overmeld-capable item.
const maxMeldCapacity = 5

// Stat identifies a character attribute, e.g. "CRIT" or "DET".
// The catalog document defines the full vocabulary.
type Stat string

// Job identifies a playable job by its abbreviation, e.g. "WHM".
type Job string

// Slot is an equipment category. Occupancy is the number of items worn in
// the slot at once; rings have occupancy 2, everything else 1.
type Slot struct {
	Name      string `json:"name"`
	Occupancy int    `json:"occupancy"`
}

// Item is one piece of equipment.
type Item struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Slot         string       `json:"slot"`
	ItemLevel    int          `json:"item_level"`
	Jobs         []Job        `json:"jobs,omitempty"`    // empty means usable by every job
	Bonuses      map[Stat]int `json:"bonuses,omitempty"` // fixed stat bonuses
	MateriaSlots int          `json:"materia_slots"`     // base meld slots
	Overmeld     bool         `json:"overmeld,omitempty"` // accepts melds beyond the base slots
	Relic        bool         `json:"relic,omitempty"`    // carries a discretionary stat budget
}

// MeldCapacity returns the total number of materia the item accepts.
// Overmeld-capable items always accept the full five melds.
func (it *Item) MeldCapacity() int {
	if it.Overmeld {
		return maxMeldCapacity
	}
	return it.MateriaSlots
}

// UsableBy reports whether the item is equippable by the given job.
func (it *Item) UsableBy(job Job) bool {
	if len(it.Jobs) == 0 {
		return true
	}
	for _, j := range it.Jobs {
		if j == job {
			return true
		}
	}
	return false
}

// Materia is a meldable stat boost of a given tier.
type Materia struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Stat  Stat   `json:"stat"`
	Tier  int    `json:"tier"`
	Bonus int    `json:"bonus"`
}

// FoodEffect is one stat line of a food item: a relative bonus with a cap.
type FoodEffect struct {
	Percent float64 `json:"percent"`
	Max     int     `json:"max"`
}

// Food is a consumable buff. Each effect applies as
// min(floor(Percent * preFoodTotal), Max) on top of the gear totals.
type Food struct {
	ID        int                 `json:"id"`
	Name      string              `json:"name"`
	ItemLevel int                 `json:"item_level"`
	Effects   map[Stat]FoodEffect `json:"effects"`
}

// Catalog is the parsed game data document. It is loaded once per run and
// treated as read-only afterwards.
type Catalog struct {
	Stats   []Stat
	Slots   []Slot
	Jobs    []Job
	Items   []Item
	Materia []Materia
	Food    []Food
}

// HasStat reports whether s belongs to the catalog's stat vocabulary.
func (c *Catalog) HasStat(s Stat) bool {
	for _, known := range c.Stats {
		if known == s {
			return true
		}
	}
	return false
}

// HasJob reports whether j belongs to the catalog's job list.
func (c *Catalog) HasJob(j Job) bool {
	for _, known := range c.Jobs {
		if known == j {
			return true
		}
	}
	return false
}

// SlotByName returns the slot definition for name.
func (c *Catalog) SlotByName(name string) (Slot, bool) {
	for _, s := range c.Slots {
		if s.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}
