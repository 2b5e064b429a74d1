package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_KnownBackends(t *testing.T) {
	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			backend, err := New(name)
			require.NoError(t, err)
			assert.Equal(t, name, backend.Name())
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New("gurobi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown solver backend "gurobi"`)
}

func TestDefaultName_IsAvailable(t *testing.T) {
	assert.Contains(t, Available(), DefaultName)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "optimal", Optimal.String())
	assert.Equal(t, "infeasible", Infeasible.String())
	assert.Equal(t, "unbounded", Unbounded.String())
}

func TestBackendError_Message(t *testing.T) {
	err := &BackendError{Backend: "cplex", Message: "license check failed"}
	assert.Equal(t, "solver backend cplex: license check failed", err.Error())

	wrapped := &BackendError{Backend: "bnb", Message: "simplex failed", Cause: assert.AnError}
	assert.Contains(t, wrapped.Error(), "simplex failed")
	assert.ErrorIs(t, wrapped, assert.AnError)
}
