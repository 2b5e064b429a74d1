package catalog

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/schemas"
)

func TestLoad_ValidDocument(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "game.json"))
	require.NoError(t, err)
	require.NotNil(t, cat)

	assert.Len(t, cat.Stats, 6)
	assert.Len(t, cat.Slots, 3)
	assert.Len(t, cat.Jobs, 3)
	assert.Len(t, cat.Items, 10)
	assert.Len(t, cat.Materia, 4)
	assert.Len(t, cat.Food, 2)
}

func TestLoad_ItemFields(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "game.json"))
	require.NoError(t, err)

	var cane *Item
	for i := range cat.Items {
		if cat.Items[i].ID == 1003 {
			cane = &cat.Items[i]
			break
		}
	}
	require.NotNil(t, cane, "item 1003 should be present")

	assert.Equal(t, "Exarchic Cane", cane.Name)
	assert.Equal(t, "weapon", cane.Slot)
	assert.Equal(t, 100, cane.ItemLevel)
	assert.Equal(t, []Job{"WHM"}, cane.Jobs)
	assert.Equal(t, 41, cane.Bonuses["CRIT"])
	assert.Equal(t, 2, cane.MateriaSlots)
	assert.True(t, cane.Overmeld)
	assert.False(t, cane.Relic)
}

func TestLoad_FoodEffects(t *testing.T) {
	cat, err := Load(filepath.Join("testdata", "game.json"))
	require.NoError(t, err)

	var potage *Food
	for i := range cat.Food {
		if cat.Food[i].ID == 8001 {
			potage = &cat.Food[i]
			break
		}
	}
	require.NotNil(t, potage)

	effect, ok := potage.Effects["CRIT"]
	require.True(t, ok)
	assert.InDelta(t, 0.10, effect.Percent, 1e-9)
	assert.Equal(t, 88, effect.Max)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope.json"))
	require.Error(t, err)

	var catErr *Error
	require.True(t, errors.As(err, &catErr))
	assert.Contains(t, catErr.Message, "read catalog file")
}

func TestParse_SchemaViolation(t *testing.T) {
	doc := `{
		"stats": ["CRIT"],
		"slots": [{"name": "weapon", "occupancy": 1}],
		"jobs": ["WHM"],
		"items": [],
		"materia": []
	}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var validationErr *schemas.ValidationError
	assert.True(t, errors.As(err, &validationErr), "schema failures should carry field errors")
}

func TestParse_UnknownSlotReference(t *testing.T) {
	doc := `{
		"stats": ["CRIT"],
		"slots": [{"name": "weapon", "occupancy": 1}],
		"jobs": ["WHM"],
		"items": [
			{"id": 1, "name": "Oddity", "slot": "tail", "item_level": 10}
		],
		"materia": [],
		"food": []
	}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown slot "tail"`)
}

func TestParse_UnknownStatReference(t *testing.T) {
	doc := `{
		"stats": ["CRIT"],
		"slots": [{"name": "weapon", "occupancy": 1}],
		"jobs": ["WHM"],
		"items": [],
		"materia": [
			{"id": 5, "name": "Strange Materia", "stat": "LUCK", "tier": 1, "bonus": 1}
		],
		"food": []
	}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown stat "LUCK"`)
}

func TestParse_DuplicateItemID(t *testing.T) {
	doc := `{
		"stats": ["CRIT"],
		"slots": [{"name": "weapon", "occupancy": 1}],
		"jobs": ["WHM"],
		"items": [
			{"id": 7, "name": "First", "slot": "weapon", "item_level": 10},
			{"id": 7, "name": "Second", "slot": "weapon", "item_level": 20}
		],
		"materia": [],
		"food": []
	}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate item id 7")
}

func TestItem_MeldCapacity(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want int
	}{
		{"no overmeld uses base slots", Item{MateriaSlots: 2, Overmeld: false}, 2},
		{"overmeld always allows five", Item{MateriaSlots: 2, Overmeld: true}, 5},
		{"zero slots", Item{MateriaSlots: 0, Overmeld: false}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.MeldCapacity())
		})
	}
}

func TestItem_UsableBy(t *testing.T) {
	restricted := Item{Jobs: []Job{"WHM", "SGE"}}
	assert.True(t, restricted.UsableBy("WHM"))
	assert.False(t, restricted.UsableBy("DRG"))

	universal := Item{}
	assert.True(t, universal.UsableBy("DRG"))
}
