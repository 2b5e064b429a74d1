package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/bis-solver/internal/catalog"
	"github.com/jonathan/bis-solver/internal/loadout"
	"github.com/jonathan/bis-solver/internal/optimize"
	"github.com/jonathan/bis-solver/internal/solver"
)

// SolveRequest represents the request body for /api/v1/solve
type SolveRequest struct {
	Job             string `json:"job" validate:"required"`
	MinItemLevel    int    `json:"min_ilvl,omitempty" validate:"min=0"`
	MaxItemLevel    int    `json:"max_ilvl,omitempty" validate:"min=0"`
	ExcludeIDs      []int  `json:"exclude,omitempty" validate:"omitempty,dive,gt=0"`
	MaxOvermeldTier int    `json:"max_overmeld_tier,omitempty" validate:"min=0"`

	// Secondary toggles the lexicographic second phase; omitted means on.
	Secondary *bool `json:"secondary,omitempty"`

	// Backend selects the optimization engine, default bnb.
	Backend string `json:"backend,omitempty"`
}

// SolveResponse represents the response for /api/v1/solve. Status mirrors
// the solver outcome; infeasible and unbounded are domain results, not HTTP
// errors, so they come back 200 with Solution unset.
type SolveResponse struct {
	Status   string            `json:"status"`
	Phases   int               `json:"phases,omitempty"`
	RunID    string            `json:"run_id,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Solution *loadout.Solution `json:"solution,omitempty"`
}

// JobInfo describes one job known to the catalog and whether the profile
// config carries optimization targets for it.
type JobInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Weights    int    `json:"weights,omitempty"`
	Minimums   int    `json:"minimums,omitempty"`
}

// JobsResponse represents the response for /api/v1/jobs
type JobsResponse struct {
	Jobs []JobInfo `json:"jobs"`
}

// handleSolve runs one optimization pass for the requested job
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	job := catalog.Job(req.Job)
	profile, ok := s.resolved.JobFor(job)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "No profile configured for job "+req.Job+" in "+s.configPath)
		return
	}

	pool, err := s.catalog.BuildPool(catalog.PoolOptions{
		Job:             job,
		MinItemLevel:    req.MinItemLevel,
		MaxItemLevel:    req.MaxItemLevel,
		ExcludeIDs:      req.ExcludeIDs,
		MaxOvermeldTier: req.MaxOvermeldTier,
	})
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	backendName := req.Backend
	if backendName == "" {
		backendName = solver.DefaultName
	}
	backend, err := solver.New(backendName)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	secondary := req.Secondary == nil || *req.Secondary

	log.Printf("[solve] job=%s backend=%s window=%d-%d candidates=%d",
		job, backendName, req.MinItemLevel, req.MaxItemLevel, pool.CandidateCount())

	res, err := optimize.Run(r.Context(), optimize.RunOptions{
		Pool:         pool,
		Profile:      profile,
		RelicCaps:    s.resolved.RelicCaps,
		BaseStats:    s.resolved.BaseStats,
		Backend:      backend,
		Secondary:    secondary,
		Timeout:      solveTimeout,
		Quiet:        true,
		DatabaseURL:  s.databaseURL,
		MinItemLevel: req.MinItemLevel,
		MaxItemLevel: req.MaxItemLevel,
	})
	if err != nil {
		log.Printf("[solve] job=%s failed: %v", job, err)
		s.errorResponse(w, http.StatusInternalServerError, "Solve failed: "+err.Error())
		return
	}

	resp := SolveResponse{
		Status:   res.Status.String(),
		Phases:   res.Phases,
		Warnings: pool.Warnings,
		Solution: res.Solution,
	}
	if res.RunID != uuid.Nil {
		resp.RunID = res.RunID.String()
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleJobs lists the catalog's jobs and their profile coverage
func (s *Server) handleJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := make([]JobInfo, 0, len(s.catalog.Jobs))
	for _, job := range s.catalog.Jobs {
		info := JobInfo{Name: string(job)}
		if profile, ok := s.resolved.JobFor(job); ok {
			info.Configured = true
			info.Weights = len(profile.Weights)
			info.Minimums = len(profile.Minimums)
		}
		jobs = append(jobs, info)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	s.jsonResponse(w, http.StatusOK, JobsResponse{Jobs: jobs})
}
