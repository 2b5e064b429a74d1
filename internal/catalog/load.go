// Package catalog loads the game data document and derives the filtered
// candidate pools the optimizer runs on.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jonathan/bis-solver/internal/schemas"
)

// Load reads and parses a catalog document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Message: "failed to read catalog file", Cause: err}
	}
	return Parse(data)
}

// Parse validates a catalog document against the embedded schema and decodes
// it. The document must additionally be internally consistent: unique ids and
// no references to stats, slots, or jobs outside the declared vocabularies.
func Parse(data []byte) (*Catalog, error) {
	if err := schemas.ValidateCatalogDocument(string(data)); err != nil {
		return nil, &Error{Message: "catalog document failed schema validation", Cause: err}
	}

	doc := gjson.ParseBytes(data)
	cat := &Catalog{}

	doc.Get("stats").ForEach(func(_, value gjson.Result) bool {
		cat.Stats = append(cat.Stats, Stat(value.String()))
		return true
	})

	doc.Get("slots").ForEach(func(_, value gjson.Result) bool {
		cat.Slots = append(cat.Slots, Slot{
			Name:      value.Get("name").String(),
			Occupancy: int(value.Get("occupancy").Int()),
		})
		return true
	})

	doc.Get("jobs").ForEach(func(_, value gjson.Result) bool {
		cat.Jobs = append(cat.Jobs, Job(value.String()))
		return true
	})

	doc.Get("items").ForEach(func(_, value gjson.Result) bool {
		item := Item{
			ID:           int(value.Get("id").Int()),
			Name:         value.Get("name").String(),
			Slot:         value.Get("slot").String(),
			ItemLevel:    int(value.Get("item_level").Int()),
			MateriaSlots: int(value.Get("materia_slots").Int()),
			Overmeld:     value.Get("overmeld").Bool(),
			Relic:        value.Get("relic").Bool(),
		}
		value.Get("jobs").ForEach(func(_, job gjson.Result) bool {
			item.Jobs = append(item.Jobs, Job(job.String()))
			return true
		})
		if bonuses := value.Get("bonuses"); bonuses.Exists() {
			item.Bonuses = make(map[Stat]int)
			bonuses.ForEach(func(stat, amount gjson.Result) bool {
				item.Bonuses[Stat(stat.String())] = int(amount.Int())
				return true
			})
		}
		cat.Items = append(cat.Items, item)
		return true
	})

	doc.Get("materia").ForEach(func(_, value gjson.Result) bool {
		cat.Materia = append(cat.Materia, Materia{
			ID:    int(value.Get("id").Int()),
			Name:  value.Get("name").String(),
			Stat:  Stat(value.Get("stat").String()),
			Tier:  int(value.Get("tier").Int()),
			Bonus: int(value.Get("bonus").Int()),
		})
		return true
	})

	doc.Get("food").ForEach(func(_, value gjson.Result) bool {
		food := Food{
			ID:        int(value.Get("id").Int()),
			Name:      value.Get("name").String(),
			ItemLevel: int(value.Get("item_level").Int()),
			Effects:   make(map[Stat]FoodEffect),
		}
		value.Get("effects").ForEach(func(stat, effect gjson.Result) bool {
			food.Effects[Stat(stat.String())] = FoodEffect{
				Percent: effect.Get("percent").Float(),
				Max:     int(effect.Get("max").Int()),
			}
			return true
		})
		cat.Food = append(cat.Food, food)
		return true
	})

	if problems := cat.check(); len(problems) > 0 {
		return nil, &Error{Message: "inconsistent catalog: " + strings.Join(problems, "; ")}
	}

	return cat, nil
}

// check enforces the cross-references the schema cannot express.
func (c *Catalog) check() []string {
	var problems []string

	seenStats := make(map[Stat]bool, len(c.Stats))
	for _, s := range c.Stats {
		if seenStats[s] {
			problems = append(problems, fmt.Sprintf("duplicate stat %q", s))
		}
		seenStats[s] = true
	}

	seenSlots := make(map[string]bool, len(c.Slots))
	for _, s := range c.Slots {
		if seenSlots[s.Name] {
			problems = append(problems, fmt.Sprintf("duplicate slot %q", s.Name))
		}
		seenSlots[s.Name] = true
	}

	seenJobs := make(map[Job]bool, len(c.Jobs))
	for _, j := range c.Jobs {
		if seenJobs[j] {
			problems = append(problems, fmt.Sprintf("duplicate job %q", j))
		}
		seenJobs[j] = true
	}

	seenItems := make(map[int]bool, len(c.Items))
	for _, it := range c.Items {
		if seenItems[it.ID] {
			problems = append(problems, fmt.Sprintf("duplicate item id %d", it.ID))
		}
		seenItems[it.ID] = true
		if !seenSlots[it.Slot] {
			problems = append(problems, fmt.Sprintf("item %d references unknown slot %q", it.ID, it.Slot))
		}
		for _, j := range it.Jobs {
			if !seenJobs[j] {
				problems = append(problems, fmt.Sprintf("item %d references unknown job %q", it.ID, j))
			}
		}
		for stat := range it.Bonuses {
			if !seenStats[stat] {
				problems = append(problems, fmt.Sprintf("item %d references unknown stat %q", it.ID, stat))
			}
		}
	}

	seenMateria := make(map[int]bool, len(c.Materia))
	for _, m := range c.Materia {
		if seenMateria[m.ID] {
			problems = append(problems, fmt.Sprintf("duplicate materia id %d", m.ID))
		}
		seenMateria[m.ID] = true
		if !seenStats[m.Stat] {
			problems = append(problems, fmt.Sprintf("materia %d references unknown stat %q", m.ID, m.Stat))
		}
	}

	seenFood := make(map[int]bool, len(c.Food))
	for _, f := range c.Food {
		if seenFood[f.ID] {
			problems = append(problems, fmt.Sprintf("duplicate food id %d", f.ID))
		}
		seenFood[f.ID] = true
		for stat := range f.Effects {
			if !seenStats[stat] {
				problems = append(problems, fmt.Sprintf("food %d references unknown stat %q", f.ID, stat))
			}
		}
	}

	return problems
}
