package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/bis-solver/internal/milp"
)

func TestFiniteDomain_Knapsack(t *testing.T) {
	out, err := NewFiniteDomain().Solve(context.Background(), knapsackProgram())
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 220, out.Objective, 1e-6)
	assert.InDelta(t, 0, out.Values[0], 1e-6)
	assert.InDelta(t, 1, out.Values[1], 1e-6)
	assert.InDelta(t, 1, out.Values[2], 1e-6)
}

func TestFiniteDomain_MatchesBranchAndBound(t *testing.T) {
	p := milp.New("parity")
	x := p.AddVar("x", milp.Integer, 0, 6)
	y := p.AddVar("y", milp.Integer, 0, 6)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 3}, {Var: y, Coeff: 5}})
	p.AddConstraint("cap", []milp.Term{{Var: x, Coeff: 2}, {Var: y, Coeff: 3}}, milp.LessEq, 12)

	exact, err := NewBranchAndBound().Solve(context.Background(), p)
	require.NoError(t, err)
	got, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, exact.Status)
	require.Equal(t, Optimal, got.Status)
	assert.InDelta(t, exact.Objective, got.Objective, 1e-6)
}

func TestFiniteDomain_EqualityRow(t *testing.T) {
	p := milp.New("eq")
	x := p.AddVar("x", milp.Integer, 0, 5)
	y := p.AddVar("y", milp.Integer, 0, 5)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 2}, {Var: y, Coeff: 1}})
	p.AddConstraint("pair", []milp.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, milp.Equal, 4)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 8, out.Objective, 1e-6)
	assert.InDelta(t, 4, out.Values[x], 1e-6)
	assert.InDelta(t, 0, out.Values[y], 1e-6)
}

func TestFiniteDomain_InfeasibleEquality(t *testing.T) {
	p := milp.New("nofit")
	x := p.AddVar("x", milp.Integer, 0, 2)
	y := p.AddVar("y", milp.Integer, 0, 2)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 1}})
	p.AddConstraint("sum", []milp.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}}, milp.Equal, 10)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err, "infeasibility is an outcome, not an error")
	assert.Equal(t, Infeasible, out.Status)
	assert.Nil(t, out.Values)
}

func TestFiniteDomain_ScalesFractionalCoefficients(t *testing.T) {
	p := milp.New("scaled")
	x := p.AddVar("x", milp.Integer, 0, 10)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 1}})
	p.AddConstraint("half", []milp.Term{{Var: x, Coeff: 0.5}}, milp.LessEq, 1.25)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 2, out.Values[x], 1e-6)
	assert.InDelta(t, 2, out.Objective, 1e-6)
}

func TestFiniteDomain_ScalesFractionalObjective(t *testing.T) {
	p := milp.New("weighted")
	x := p.AddVar("x", milp.Integer, 0, 3)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 0.74}})

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 3, out.Values[x], 1e-6)
	assert.InDelta(t, 2.22, out.Objective, 1e-6)
}

func TestFiniteDomain_ShiftedLowerBounds(t *testing.T) {
	p := milp.New("shifted")
	x := p.AddVar("x", milp.Integer, 2, 7)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 1}})
	p.AddConstraint("roof", []milp.Term{{Var: x, Coeff: 1}}, milp.LessEq, 5)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 5, out.Values[x], 1e-6)
	assert.InDelta(t, 5, out.Objective, 1e-6)
}

func TestFiniteDomain_NegativeCoefficients(t *testing.T) {
	p := milp.New("signed")
	x := p.AddVar("x", milp.Integer, 0, 5)
	y := p.AddVar("y", milp.Integer, 0, 5)
	p.SetObjective([]milp.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: 1}})
	p.AddConstraint("gap", []milp.Term{{Var: x, Coeff: 1}, {Var: y, Coeff: -1}}, milp.LessEq, 1)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, Optimal, out.Status)
	assert.InDelta(t, 10, out.Objective, 1e-6, "x=5 y=5 keeps the gap at zero")
}

func TestFiniteDomain_RejectsUnboundedVariables(t *testing.T) {
	p := milp.New("open")
	x := p.AddVar("x", milp.Integer, 0, inf())
	p.SetObjective([]milp.Term{{Var: x, Coeff: 1}})

	_, err := NewFiniteDomain().Solve(context.Background(), p)
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "fd", backendErr.Backend)
	assert.Contains(t, backendErr.Message, "finite")
}

func TestFiniteDomain_TermlessViolatedRow(t *testing.T) {
	p := milp.New("emptyslot")
	p.AddVar("x", milp.Integer, 0, 1)
	p.SetObjective([]milp.Term{{Var: 0, Coeff: 1}})
	p.AddConstraint("occ_ring", nil, milp.Equal, 2)

	out, err := NewFiniteDomain().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, Infeasible, out.Status)
}

func TestFiniteDomain_DefaultLimits(t *testing.T) {
	backend := NewFiniteDomain()
	assert.Equal(t, time.Duration(0), backend.TimeLimit, "zero means the default ceiling applies at solve time")

	out, err := backend.Solve(context.Background(), knapsackProgram())
	require.NoError(t, err)
	assert.Equal(t, Optimal, out.Status)
}
