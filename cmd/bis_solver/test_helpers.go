package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the bis_solver binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "bis_solver"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'make build'", binaryPath)
	}

	return binaryPath
}

// writeTestInputs drops a small catalog and matching profile config into dir
// and returns their paths. The catalog covers two slots (one with occupancy
// two), a materia type, and a food, which is enough to exercise every part
// of a solve quickly.
func writeTestInputs(t *testing.T, dir string) (dataPath, configPath string) {
	t.Helper()

	gameJSON := `{
  "stats": ["MND", "CRIT", "DET", "PIE"],
  "slots": [
    {"name": "weapon", "occupancy": 1},
    {"name": "ring", "occupancy": 2}
  ],
  "jobs": ["WHM", "SGE", "DRG"],
  "items": [
    {"id": 1, "name": "Exarchic Cane", "slot": "weapon", "item_level": 100, "jobs": ["WHM"], "bonuses": {"MND": 52, "CRIT": 41}, "materia_slots": 1, "overmeld": false, "relic": false},
    {"id": 2, "name": "Trainee's Cane", "slot": "weapon", "item_level": 50, "jobs": ["WHM"], "bonuses": {"MND": 20, "CRIT": 15}, "materia_slots": 0, "overmeld": false, "relic": false},
    {"id": 4, "name": "Exarchic Ring", "slot": "ring", "item_level": 100, "jobs": ["WHM", "SGE"], "bonuses": {"MND": 21, "CRIT": 17}, "materia_slots": 1, "overmeld": false, "relic": false},
    {"id": 5, "name": "Band of Mending", "slot": "ring", "item_level": 60, "jobs": ["WHM", "SGE"], "bonuses": {"MND": 14, "PIE": 12}, "materia_slots": 0, "overmeld": false, "relic": false}
  ],
  "materia": [
    {"id": 901, "name": "Savage Aim Materia X", "stat": "CRIT", "tier": 10, "bonus": 33}
  ],
  "food": [
    {"id": 801, "name": "Smoked Chicken", "item_level": 100, "effects": {"CRIT": {"percent": 0.10, "max": 88}, "DET": {"percent": 0.10, "max": 99}}}
  ]
}`

	bisYAML := `jobs:
  WHM:
    weights:
      MND: 1.0
      CRIT: 0.35

base_stats:
  MND: 400
  CRIT: 380
  DET: 340
  PIE: 300
`

	dataPath = filepath.Join(dir, "game.json")
	configPath = filepath.Join(dir, "bis.yaml")
	if err := os.WriteFile(dataPath, []byte(gameJSON), 0644); err != nil {
		t.Fatalf("failed to write game data: %v", err)
	}
	if err := os.WriteFile(configPath, []byte(bisYAML), 0644); err != nil {
		t.Fatalf("failed to write profile config: %v", err)
	}
	return dataPath, configPath
}
