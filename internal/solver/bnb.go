// Package solver provides the uniform solve contract and the interchangeable
// backends that optimize a milp.Program.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/jonathan/bis-solver/internal/milp"
)

const (
	// defaultNodeLimit bounds the branch and bound tree.
	defaultNodeLimit = 200000
	// pruneTol guards incumbent comparisons against float noise.
	pruneTol = 1e-9
)

var (
	errNodeInfeasible = errors.New("node relaxation infeasible")
	errNodeUnbounded  = errors.New("node relaxation unbounded")
)

// BranchAndBound is the default in-process exact backend. It solves linear
// relaxations with gonum's simplex and branches on fractional values of
// integral variables, depth first with incumbent pruning.
type BranchAndBound struct {
	// NodeLimit caps explored nodes; exceeding it aborts with BackendError.
	NodeLimit int
}

// NewBranchAndBound returns the backend with its default node limit.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{NodeLimit: defaultNodeLimit}
}

func (b *BranchAndBound) Name() string { return "bnb" }

type bnbNode struct {
	lower []float64
	upper []float64
}

func (b *BranchAndBound) Solve(ctx context.Context, prog *milp.Program) (*Outcome, error) {
	if err := prog.Check(); err != nil {
		return nil, &BackendError{Backend: b.Name(), Message: "invalid program", Cause: err}
	}
	if _, bad := violatedConstantRow(prog); bad {
		return &Outcome{Status: Infeasible}, nil
	}

	n := prog.NumVars()
	root := bnbNode{lower: make([]float64, n), upper: make([]float64, n)}
	for i, v := range prog.Vars {
		root.lower[i] = v.Lower
		root.upper[i] = v.Upper
	}

	incumbent := math.Inf(-1)
	var incumbentX []float64

	stack := []bnbNode{root}
	nodes := 0
	atRoot := true

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &BackendError{Backend: b.Name(), Message: "solve canceled", Cause: err}
		}
		nodes++
		if nodes > b.NodeLimit {
			return nil, &BackendError{Backend: b.Name(), Message: fmt.Sprintf("node limit %d exceeded", b.NodeLimit)}
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rootNode := atRoot
		atRoot = false

		obj, x, err := solveRelaxation(prog, node.lower, node.upper)
		switch {
		case errors.Is(err, errNodeInfeasible):
			continue
		case errors.Is(err, errNodeUnbounded):
			if rootNode {
				return &Outcome{Status: Unbounded}, nil
			}
			return nil, &BackendError{Backend: b.Name(), Message: "relaxation unbounded below the root"}
		case err != nil:
			return nil, &BackendError{Backend: b.Name(), Message: "simplex failed", Cause: err}
		}

		// The relaxation bounds every descendant from above.
		if obj <= incumbent+pruneTol {
			continue
		}

		branchVar := pickFractional(prog, x)
		if branchVar < 0 {
			incumbent = obj
			incumbentX = x
			continue
		}

		floorChild := bnbNode{lower: append([]float64(nil), node.lower...), upper: append([]float64(nil), node.upper...)}
		ceilChild := bnbNode{lower: append([]float64(nil), node.lower...), upper: append([]float64(nil), node.upper...)}
		floorChild.upper[branchVar] = math.Floor(x[branchVar])
		ceilChild.lower[branchVar] = math.Ceil(x[branchVar])

		// Pop order explores the round-up child first; stat bonuses are
		// non-negative, so larger counts tend to carry the objective.
		stack = append(stack, floorChild, ceilChild)
	}

	if incumbentX == nil {
		return &Outcome{Status: Infeasible}, nil
	}
	return &Outcome{Status: Optimal, Objective: incumbent, Values: incumbentX}, nil
}

// pickFractional returns the integral variable farthest from a whole number,
// or -1 when the assignment is integral. Lowest index wins ties so branching
// stays deterministic.
func pickFractional(prog *milp.Program, x []float64) int {
	best := -1
	bestDist := 0.0
	for i, v := range prog.Vars {
		if v.Kind == milp.Continuous {
			continue
		}
		frac := x[i] - math.Floor(x[i])
		dist := math.Min(frac, 1-frac)
		if dist <= intTol {
			continue
		}
		if dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// solveRelaxation optimizes the linear relaxation under per-node bounds.
// Variables are shifted to zero lower bounds, inequality rows and finite
// upper bounds gain slack columns, and the resulting standard-form program
// goes to gonum's simplex.
func solveRelaxation(prog *milp.Program, lower, upper []float64) (float64, []float64, error) {
	n := prog.NumVars()
	for i := range lower {
		if lower[i] > upper[i]+intTol {
			return 0, nil, errNodeInfeasible
		}
	}

	type row struct {
		coeffs []float64
		rhs    float64
	}

	shiftRow := func(c milp.Constraint) (row, bool) {
		coeffs := make([]float64, n)
		rhs := c.RHS
		for _, t := range c.Terms {
			coeffs[t.Var] += t.Coeff
			rhs -= t.Coeff * lower[t.Var]
		}
		for _, v := range coeffs {
			if v != 0 {
				return row{coeffs, rhs}, true
			}
		}
		return row{coeffs, rhs}, false
	}

	var ineq, eq []row
	for _, c := range prog.Constraints {
		r, hasTerms := shiftRow(c)
		if !hasTerms {
			if !senseHolds(0, c.Sense, r.rhs) {
				return 0, nil, errNodeInfeasible
			}
			continue
		}
		switch c.Sense {
		case milp.LessEq:
			ineq = append(ineq, r)
		case milp.GreaterEq:
			neg := make([]float64, n)
			for i, v := range r.coeffs {
				neg[i] = -v
			}
			ineq = append(ineq, row{neg, -r.rhs})
		case milp.Equal:
			eq = append(eq, r)
		}
	}

	type ubRow struct {
		v     int
		width float64
	}
	var ubs []ubRow
	for i := range prog.Vars {
		width := upper[i] - lower[i]
		if !math.IsInf(width, 1) {
			ubs = append(ubs, ubRow{i, width})
		}
	}

	cols := n + len(ineq) + len(ubs)
	rows := len(eq) + len(ineq) + len(ubs)
	if rows == 0 {
		// Nothing constrains the variables; any in-bounds point is optimal.
		// The builders never produce this, but keep the behavior defined.
		return 0, nil, errNodeUnbounded
	}

	data := make([]float64, rows*cols)
	bvec := make([]float64, rows)
	r := 0
	for _, e := range eq {
		copy(data[r*cols:r*cols+n], e.coeffs)
		bvec[r] = e.rhs
		r++
	}
	for k, iq := range ineq {
		copy(data[r*cols:r*cols+n], iq.coeffs)
		data[r*cols+n+k] = 1
		bvec[r] = iq.rhs
		r++
	}
	for k, ub := range ubs {
		data[r*cols+ub.v] = 1
		data[r*cols+n+len(ineq)+k] = 1
		bvec[r] = ub.width
		r++
	}

	// Standard-form rows are equalities, so rows with a negative right-hand
	// side can be negated wholesale.
	for rr := 0; rr < rows; rr++ {
		if bvec[rr] < 0 {
			bvec[rr] = -bvec[rr]
			for j := 0; j < cols; j++ {
				data[rr*cols+j] = -data[rr*cols+j]
			}
		}
	}

	c := make([]float64, cols)
	shiftObj := 0.0
	for _, t := range prog.Objective {
		c[t.Var] -= t.Coeff // minimize the negation to maximize
		shiftObj += t.Coeff * lower[t.Var]
	}

	a := mat.NewDense(rows, cols, data)
	optF, optX, err := lp.Simplex(c, a, bvec, 0, nil)
	if err != nil {
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return 0, nil, errNodeInfeasible
		case errors.Is(err, lp.ErrUnbounded):
			return 0, nil, errNodeUnbounded
		default:
			return 0, nil, err
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = optX[i] + lower[i]
	}
	return -optF + shiftObj, x, nil
}
