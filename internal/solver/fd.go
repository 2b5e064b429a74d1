// Package solver provides the uniform solve contract and the interchangeable
// backends that optimize a milp.Program.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"

	"github.com/jonathan/bis-solver/internal/milp"
)

const (
	// defaultFDTimeLimit caps the constraint search; proving optimality can
	// otherwise run without bound on adversarial models.
	defaultFDTimeLimit = 5 * time.Minute
	// maxRowScale is the largest decimal scaling applied to integerize a
	// row; coefficients needing more precision are rejected.
	maxRowScale = 1e9
)

// FiniteDomain is the constraint-programming backend built on the gokando
// finite-domain engine. Every variable is solved at integer granularity;
// rows are scaled to integer coefficients first. Domains in the engine are
// one-based, so each program variable is represented shifted up by one.
type FiniteDomain struct {
	// TimeLimit bounds the search; zero applies the default ceiling.
	TimeLimit time.Duration
	// Workers sets parallel search workers; sequential search by default
	// keeps variable assignments reproducible.
	Workers int
}

// NewFiniteDomain returns the backend with its default limits.
func NewFiniteDomain() *FiniteDomain {
	return &FiniteDomain{}
}

func (f *FiniteDomain) Name() string { return "fd" }

func (f *FiniteDomain) Solve(ctx context.Context, prog *milp.Program) (*Outcome, error) {
	if err := prog.Check(); err != nil {
		return nil, &BackendError{Backend: f.Name(), Message: "invalid program", Cause: err}
	}
	if _, bad := violatedConstantRow(prog); bad {
		return &Outcome{Status: Infeasible}, nil
	}

	model := mk.NewModel()

	n := prog.NumVars()
	vars := make([]*mk.FDVariable, n)
	lo := make([]int, n)
	hi := make([]int, n)
	for i, v := range prog.Vars {
		if math.IsInf(v.Upper, 1) {
			return nil, &BackendError{Backend: f.Name(), Message: fmt.Sprintf("variable %s has no upper bound; finite domains required", v.Name)}
		}
		lo[i] = int(math.Ceil(v.Lower - intTol))
		hi[i] = int(math.Floor(v.Upper + intTol))
		if hi[i] < lo[i] {
			return &Outcome{Status: Infeasible}, nil
		}
		vars[i] = model.IntVar(lo[i]+1, hi[i]+1, v.Name)
	}
	one := model.IntVarValues([]int{1}, "const_one")

	addRow := func(name string, terms []milp.Term, sense milp.Sense, rhs float64) error {
		coeffs, irhs, err := scaleRow(terms, rhs)
		if err != nil {
			return &BackendError{Backend: f.Name(), Message: fmt.Sprintf("row %s: %v", name, err)}
		}

		// Bounds of the unshifted sum and the shift carried by the +1 on
		// every engine variable.
		sumLo, sumHi, shift := 0, 0, 0
		for j, t := range terms {
			c := coeffs[j]
			shift += c
			if c > 0 {
				sumLo += c * lo[t.Var]
				sumHi += c * hi[t.Var]
			} else {
				sumLo += c * hi[t.Var]
				sumHi += c * lo[t.Var]
			}
		}

		// Offset the total variable into the engine's one-based domains.
		offset := 0
		if sumLo+shift < 1 {
			offset = 1 - (sumLo + shift)
		}

		totalLo, totalHi := sumLo+shift+offset, sumHi+shift+offset
		target := irhs + shift + offset
		switch sense {
		case milp.LessEq:
			if target < totalLo {
				return errRowInfeasible
			}
			totalHi = min(totalHi, target)
		case milp.GreaterEq:
			if target > totalHi {
				return errRowInfeasible
			}
			totalLo = max(totalLo, target)
		case milp.Equal:
			if target < totalLo || target > totalHi {
				return errRowInfeasible
			}
			totalLo, totalHi = target, target
		}

		total := model.IntVar(totalLo, totalHi, "t_"+name)
		sumVars := make([]*mk.FDVariable, 0, len(terms)+1)
		sumCoeffs := make([]int, 0, len(terms)+1)
		for j, t := range terms {
			sumVars = append(sumVars, vars[t.Var])
			sumCoeffs = append(sumCoeffs, coeffs[j])
		}
		if offset != 0 {
			sumVars = append(sumVars, one)
			sumCoeffs = append(sumCoeffs, offset)
		}
		ls, err := mk.NewLinearSum(sumVars, sumCoeffs, total)
		if err != nil {
			return &BackendError{Backend: f.Name(), Message: fmt.Sprintf("row %s rejected by engine", name), Cause: err}
		}
		model.AddConstraint(ls)
		return nil
	}

	for _, c := range prog.Constraints {
		if len(c.Terms) == 0 {
			continue // verified consistent above
		}
		if err := addRow(c.Name, c.Terms, c.Sense, c.RHS); err != nil {
			if errors.Is(err, errRowInfeasible) {
				return &Outcome{Status: Infeasible}, nil
			}
			return nil, err
		}
	}

	// The objective becomes one more sum variable spanning its full range;
	// the engine maximizes it directly.
	objCoeffs, _, err := scaleRow(prog.Objective, 0)
	if err != nil {
		return nil, &BackendError{Backend: f.Name(), Message: fmt.Sprintf("objective: %v", err)}
	}
	objScale := objectiveScale(prog.Objective, objCoeffs)
	objLo, objHi, objShift := 0, 0, 0
	for j, t := range prog.Objective {
		c := objCoeffs[j]
		objShift += c
		if c > 0 {
			objLo += c * lo[t.Var]
			objHi += c * hi[t.Var]
		} else {
			objLo += c * hi[t.Var]
			objHi += c * lo[t.Var]
		}
	}
	objOffset := 0
	if objLo+objShift < 1 {
		objOffset = 1 - (objLo + objShift)
	}
	objVar := model.IntVar(objLo+objShift+objOffset, objHi+objShift+objOffset, "t_objective")
	objVars := make([]*mk.FDVariable, 0, len(prog.Objective)+1)
	sumCoeffs := make([]int, 0, len(prog.Objective)+1)
	for j, t := range prog.Objective {
		objVars = append(objVars, vars[t.Var])
		sumCoeffs = append(sumCoeffs, objCoeffs[j])
	}
	if objOffset != 0 {
		objVars = append(objVars, one)
		sumCoeffs = append(sumCoeffs, objOffset)
	}
	ls, err := mk.NewLinearSum(objVars, sumCoeffs, objVar)
	if err != nil {
		return nil, &BackendError{Backend: f.Name(), Message: "objective rejected by engine", Cause: err}
	}
	model.AddConstraint(ls)

	limit := f.TimeLimit
	if limit <= 0 {
		limit = defaultFDTimeLimit
	}
	workers := f.Workers
	if workers <= 0 {
		workers = 1
	}

	engine := mk.NewSolver(model)
	sol, rawObj, err := engine.SolveOptimalWithOptions(ctx, objVar, false,
		mk.WithTimeLimit(limit), mk.WithParallelWorkers(workers))
	if err != nil {
		switch {
		case errors.Is(err, mk.ErrSearchLimitReached):
			return nil, &BackendError{Backend: f.Name(), Message: "search limit reached before proving optimality", Cause: err}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, &BackendError{Backend: f.Name(), Message: "solve canceled", Cause: err}
		default:
			// The engine reports an unsatisfiable model as a search failure.
			return &Outcome{Status: Infeasible}, nil
		}
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = float64(int(sol[vars[i].ID()]) - 1)
	}
	objective := (float64(rawObj) - float64(objShift) - float64(objOffset)) / objScale

	return &Outcome{Status: Optimal, Objective: objective, Values: values}, nil
}

var errRowInfeasible = errors.New("row cannot be satisfied within variable bounds")

// scaleRow multiplies a row by the smallest power of ten that makes every
// coefficient and the right-hand side integral.
func scaleRow(terms []milp.Term, rhs float64) ([]int, int, error) {
	scale := 1.0
	for {
		ok := isNearInt(rhs * scale)
		for _, t := range terms {
			if !isNearInt(t.Coeff * scale) {
				ok = false
				break
			}
		}
		if ok {
			break
		}
		scale *= 10
		if scale > maxRowScale {
			return nil, 0, fmt.Errorf("coefficients are not decimal within %g", maxRowScale)
		}
	}

	coeffs := make([]int, len(terms))
	for i, t := range terms {
		coeffs[i] = int(math.Round(t.Coeff * scale))
	}
	return coeffs, int(math.Round(rhs * scale)), nil
}

// objectiveScale recovers the factor scaleRow applied to the objective.
func objectiveScale(terms []milp.Term, coeffs []int) float64 {
	for i, t := range terms {
		if t.Coeff != 0 {
			return float64(coeffs[i]) / t.Coeff
		}
	}
	return 1
}

// isNearInt tolerates the float error accumulated by the scaling multiply,
// which grows with magnitude.
func isNearInt(f float64) bool {
	_, frac := math.Modf(math.Abs(f))
	tol := 1e-7 + math.Abs(f)*1e-12
	return frac < tol || frac > 1-tol
}
