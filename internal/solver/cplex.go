// Package solver provides the uniform solve contract and the interchangeable
// backends that optimize a milp.Program.
package solver

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jonathan/bis-solver/internal/milp"
)

// CPLEX bridges to a locally installed IBM CPLEX interactive optimizer. The
// program is handed over as an LP file and the solution read back from the
// XML solution file the optimizer writes.
type CPLEX struct {
	// Path is the cplex executable. NewCPLEX takes it from CPLEX_BINARY,
	// falling back to "cplex" on PATH.
	Path string
}

// NewCPLEX returns the backend configured from the environment.
func NewCPLEX() *CPLEX {
	path := os.Getenv("CPLEX_BINARY")
	if path == "" {
		path = "cplex"
	}
	return &CPLEX{Path: path}
}

func (c *CPLEX) Name() string { return "cplex" }

func (c *CPLEX) Solve(ctx context.Context, prog *milp.Program) (*Outcome, error) {
	if err := prog.Check(); err != nil {
		return nil, &BackendError{Backend: c.Name(), Message: "invalid program", Cause: err}
	}
	if _, violated := violatedConstantRow(prog); violated {
		return &Outcome{Status: Infeasible}, nil
	}

	dir, err := os.MkdirTemp("", "bis-cplex-")
	if err != nil {
		return nil, &BackendError{Backend: c.Name(), Message: "failed to create scratch directory", Cause: err}
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	lpFile, err := os.Create(lpPath)
	if err != nil {
		return nil, &BackendError{Backend: c.Name(), Message: "failed to write model file", Cause: err}
	}
	if err := prog.WriteLP(lpFile); err != nil {
		lpFile.Close()
		return nil, &BackendError{Backend: c.Name(), Message: "failed to serialize model", Cause: err}
	}
	if err := lpFile.Close(); err != nil {
		return nil, &BackendError{Backend: c.Name(), Message: "failed to write model file", Cause: err}
	}

	cmd := exec.CommandContext(ctx, c.Path,
		"-c",
		"read "+lpPath,
		"optimize",
		"write "+solPath,
	)
	output, runErr := cmd.CombinedOutput()
	log := string(output)

	if runErr != nil {
		if ctx.Err() != nil {
			return nil, &BackendError{Backend: c.Name(), Message: "solve canceled", Cause: ctx.Err()}
		}
		if strings.Contains(strings.ToLower(log), "license") {
			return nil, &BackendError{Backend: c.Name(), Message: "license check failed", Cause: runErr}
		}
		return nil, &BackendError{Backend: c.Name(), Message: fmt.Sprintf("optimizer failed: %s", tail(log, 400)), Cause: runErr}
	}

	// The optimizer only writes a solution file when it has a solution;
	// infeasible and unbounded runs are classified from the log.
	solData, readErr := os.ReadFile(solPath)
	if readErr != nil {
		if status, ok := statusFromLog(log); ok {
			return &Outcome{Status: status}, nil
		}
		return nil, &BackendError{Backend: c.Name(), Message: fmt.Sprintf("no solution produced: %s", tail(log, 400))}
	}

	return parseCPLEXSolution(solData, prog, c.Name())
}

// statusFromLog classifies a run that produced no solution file.
func statusFromLog(log string) (Status, bool) {
	lower := strings.ToLower(log)
	switch {
	case strings.Contains(lower, "infeasible"):
		return Infeasible, true
	case strings.Contains(lower, "unbounded"):
		return Unbounded, true
	default:
		return Optimal, false
	}
}

type cplexSolutionFile struct {
	XMLName xml.Name `xml:"CPLEXSolution"`
	Header  struct {
		ObjectiveValue       float64 `xml:"objectiveValue,attr"`
		SolutionStatusString string  `xml:"solutionStatusString,attr"`
	} `xml:"header"`
	Variables []struct {
		Name  string  `xml:"name,attr"`
		Value float64 `xml:"value,attr"`
	} `xml:"variables>variable"`
}

// parseCPLEXSolution decodes the XML solution file back onto the program's
// variables. Variables absent from the file stay zero.
func parseCPLEXSolution(data []byte, prog *milp.Program, backend string) (*Outcome, error) {
	var file cplexSolutionFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, &BackendError{Backend: backend, Message: "failed to parse solution file", Cause: err}
	}

	statusText := strings.ToLower(file.Header.SolutionStatusString)
	switch {
	case strings.Contains(statusText, "infeasible"):
		return &Outcome{Status: Infeasible}, nil
	case strings.Contains(statusText, "unbounded"):
		return &Outcome{Status: Unbounded}, nil
	case strings.Contains(statusText, "optimal"):
		// integer optimal and optimal both land here
	default:
		return nil, &BackendError{Backend: backend, Message: fmt.Sprintf("unexpected solution status %q", file.Header.SolutionStatusString)}
	}

	index := make(map[string]int, prog.NumVars())
	for i, v := range prog.Vars {
		index[v.Name] = i
	}

	values := make([]float64, prog.NumVars())
	for _, v := range file.Variables {
		i, ok := index[v.Name]
		if !ok {
			return nil, &BackendError{Backend: backend, Message: fmt.Sprintf("solution references unknown variable %q", v.Name)}
		}
		values[i] = v.Value
	}

	return &Outcome{Status: Optimal, Objective: file.Header.ObjectiveValue, Values: values}, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
