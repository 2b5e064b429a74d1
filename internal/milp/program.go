// Package milp defines a backend-neutral mixed-integer linear program
// representation and its LP text serialization.
package milp

import "fmt"

// VarKind partitions variables by integrality.
type VarKind int

const (
	// Continuous variables may take any value inside their bounds.
	Continuous VarKind = iota
	// Integer variables must land on whole numbers.
	Integer
	// Binary variables are integers bounded to {0, 1}.
	Binary
)

// Var is one decision variable. Bounds are inclusive.
type Var struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Term is a coefficient applied to a variable, referenced by index into the
// program's variable list.
type Term struct {
	Var   int
	Coeff float64
}

// Sense distinguishes constraint directions.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "="
	}
}

// Constraint is a single linear row: sum of Terms related to RHS by Sense.
// A row with no terms is legal and encodes the constant comparison 0 ◇ RHS;
// builders produce such rows when a candidate set is empty.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Program is a set of linear rows over bounded variables with a linear
// objective. The objective is always maximized.
type Program struct {
	Name        string
	Vars        []Var
	Constraints []Constraint
	Objective   []Term
}

// New creates an empty program.
func New(name string) *Program {
	return &Program{Name: name}
}

// AddVar appends a variable and returns its index.
func (p *Program) AddVar(name string, kind VarKind, lower, upper float64) int {
	if kind == Binary {
		lower, upper = 0, 1
	}
	p.Vars = append(p.Vars, Var{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return len(p.Vars) - 1
}

// AddConstraint appends a row.
func (p *Program) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// SetObjective replaces the objective terms. The program maximizes.
func (p *Program) SetObjective(terms []Term) {
	p.Objective = terms
}

// NumVars returns the variable count.
func (p *Program) NumVars() int {
	return len(p.Vars)
}

// NumConstraints returns the row count.
func (p *Program) NumConstraints() int {
	return len(p.Constraints)
}

// Check verifies internal consistency: at least one variable, term indices
// in range, and lower bounds not above upper bounds.
func (p *Program) Check() error {
	if len(p.Vars) == 0 {
		return fmt.Errorf("program %q has no variables", p.Name)
	}
	for i, v := range p.Vars {
		if v.Lower > v.Upper {
			return fmt.Errorf("variable %s has empty bounds [%g, %g]", v.Name, v.Lower, v.Upper)
		}
		if v.Name == "" {
			return fmt.Errorf("variable %d has no name", i)
		}
	}
	checkTerms := func(where string, terms []Term) error {
		for _, t := range terms {
			if t.Var < 0 || t.Var >= len(p.Vars) {
				return fmt.Errorf("%s references variable index %d out of range", where, t.Var)
			}
		}
		return nil
	}
	if err := checkTerms("objective", p.Objective); err != nil {
		return err
	}
	for _, c := range p.Constraints {
		if err := checkTerms("constraint "+c.Name, c.Terms); err != nil {
			return err
		}
	}
	return nil
}
