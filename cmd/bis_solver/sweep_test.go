package main

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCommand_MissingRangeFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	dataPath, configPath := writeTestInputs(t, t.TempDir())

	cmd := exec.Command(binaryPath, "sweep", "WHM",
		"--data", dataPath,
		"--config", configPath)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail without --from/--to")
	assert.Contains(t, string(output), "required")
	assert.Contains(t, string(output), "from")
}

func TestSweepCommand_InvertedRange(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	dataPath, configPath := writeTestInputs(t, t.TempDir())

	cmd := exec.Command(binaryPath, "sweep", "WHM",
		"--data", dataPath,
		"--config", configPath,
		"--from", "100",
		"--to", "50")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should fail when from exceeds to")
	assert.Contains(t, string(output), "sweep range 100-50 is empty")
}

func TestSweepCommand_BadStep(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	dataPath, configPath := writeTestInputs(t, t.TempDir())

	cmd := exec.Command(binaryPath, "sweep", "WHM",
		"--data", dataPath,
		"--config", configPath,
		"--from", "50",
		"--to", "100",
		"--step", "0")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err, "command should reject a non-positive step")
	assert.Contains(t, string(output), "sweep step must be positive")
}

func TestSweepCommand_Table(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	dataPath, configPath := writeTestInputs(t, t.TempDir())

	cmd := exec.Command(binaryPath, "sweep", "WHM",
		"--data", dataPath,
		"--config", configPath,
		"--from", "50",
		"--to", "100",
		"--step", "25")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "command should succeed: %s", string(output))
	out := string(output)

	assert.Contains(t, out, "Sweeping WHM from ilvl 50 to 100 (step 25, backend bnb)")
	assert.Contains(t, out, "max ilvl")
	assert.Contains(t, out, "objective")

	// The ilvl-50 window has no usable ring, so only the two higher
	// ceilings solve. Both of those gain from the food.
	assert.Contains(t, out, "infeasible")
	assert.Equal(t, 2, strings.Count(out, "optimal"))
	assert.Equal(t, 2, strings.Count(out, "Smoked Chicken"))
}
