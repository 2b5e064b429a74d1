// Package solver provides the uniform solve contract and the interchangeable
// backends that optimize a milp.Program.
package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/bis-solver/internal/milp"
)

// intTol is how far a value may sit from a whole number and still count as
// integral. The same tolerance guards constant-row feasibility checks.
const intTol = 1e-6

// Status classifies the outcome of a solve.
type Status int

const (
	// Optimal means a provably optimal assignment was found.
	Optimal Status = iota
	// Infeasible means no assignment satisfies the constraints.
	Infeasible
	// Unbounded means the objective can grow without limit.
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one solve call. Values holds one entry per
// program variable when Status is Optimal and is nil otherwise.
type Outcome struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Backend is one interchangeable optimization engine. Solve blocks until the
// program is solved, the engine fails, or ctx is done. Engines never mutate
// the program.
type Backend interface {
	Name() string
	Solve(ctx context.Context, prog *milp.Program) (*Outcome, error)
}

// BackendError represents a failure inside an engine: a missing binary, a
// license problem, a crash, or an exhausted search budget.
type BackendError struct {
	Backend string
	Message string
	Cause   error
}

func (e *BackendError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("solver backend %s: %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("solver backend %s: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Cause
}

// DefaultName is the backend used when none is selected.
const DefaultName = "bnb"

// Available lists the selectable backend names.
func Available() []string {
	return []string{"bnb", "fd", "cplex"}
}

// New returns the backend registered under name.
func New(name string) (Backend, error) {
	switch name {
	case "bnb":
		return NewBranchAndBound(), nil
	case "fd":
		return NewFiniteDomain(), nil
	case "cplex":
		return NewCPLEX(), nil
	default:
		return nil, fmt.Errorf("unknown solver backend %q (available: bnb, fd, cplex)", name)
	}
}

// violatedConstantRow reports a termless row whose constant comparison fails,
// e.g. an occupancy row over an empty candidate set.
func violatedConstantRow(prog *milp.Program) (string, bool) {
	for _, c := range prog.Constraints {
		if len(c.Terms) == 0 && !senseHolds(0, c.Sense, c.RHS) {
			return c.Name, true
		}
	}
	return "", false
}

func senseHolds(lhs float64, sense milp.Sense, rhs float64) bool {
	switch sense {
	case milp.LessEq:
		return lhs <= rhs+intTol
	case milp.GreaterEq:
		return lhs >= rhs-intTol
	default:
		return math.Abs(lhs-rhs) <= intTol
	}
}
