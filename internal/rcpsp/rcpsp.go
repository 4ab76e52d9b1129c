// Package rcpsp solves the resource-constrained project scheduling
// problem: assign integer start times that respect both precedence edges
// and per-group resource capacity, minimizing the project makespan.
//
// The problem is NP-hard, so two strategies sit behind one interface: an
// exact depth-first branch-and-bound over the space of active schedules
// (serial schedule generation explores every activity ordering), and a
// priority-rule serial heuristic used as the incumbent and as the
// fallback when the exact search exhausts its time budget. The result is
// flagged Optimal only when the exact search finished inside the budget.
package rcpsp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// Group is a resource pool tasks draw from while running.
type Group struct {
	Name         string
	HoursPerWeek float64
	HeadcountCap int
}

// Options tunes a solver run.
type Options struct {
	TimeBudget time.Duration // exact search budget; zero means DefaultTimeBudget
	Horizon    int           // widens the scheduling horizon beyond the total-work default
}

// DefaultTimeBudget bounds the exact search before falling back to the
// heuristic schedule.
const DefaultTimeBudget = 10 * time.Second

// Assignment is one task's placement in the solved schedule.
type Assignment struct {
	Start  int
	Finish int
	Group  string
}

// Schedule is the solver output. Optimal reports whether the exact search
// proved the makespan minimal within the time budget.
type Schedule struct {
	Field    dsm.Field
	Tasks    map[string]*Assignment
	Makespan int
	Optimal  bool
}

// InfeasibleScheduleError reports a structural infeasibility: a task whose
// eligibility and demand no resource group can ever satisfy. Ordinary
// capacity pressure is never an error; it only stretches the schedule.
type InfeasibleScheduleError struct {
	TaskID string
	Demand int
}

func (e *InfeasibleScheduleError) Error() string {
	return fmt.Sprintf("no resource group can satisfy task %s (demand %d)", e.TaskID, e.Demand)
}

// Capacity resolves the group's concurrent-task capacity: the headcount
// cap when set, otherwise the weekly hour budget divided by the average
// task duration, floored and never below one.
func (g Group) Capacity(avgDuration float64) int {
	if g.HeadcountCap > 0 {
		return g.HeadcountCap
	}
	if avgDuration <= 0 {
		avgDuration = 1
	}
	cap := int(math.Floor(g.HoursPerWeek / avgDuration))
	if cap < 1 {
		cap = 1
	}
	return cap
}

// Solve schedules the acyclic graph's tasks under the given resource
// groups, minimizing makespan. Durations come from the chosen field,
// rounded up to whole time units. Cancelling ctx ends the exact search
// early, degrading to the best schedule found so far.
func Solve(ctx context.Context, g *dsm.Graph, field dsm.Field, groups []Group, opts Options) (*Schedule, error) {
	p, err := newProblem(g, field, groups, opts)
	if err != nil {
		return nil, err
	}

	budget := opts.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}

	heur := &serialHeuristic{}
	incumbent := heur.solve(p)

	exact := &branchAndBound{
		incumbent: incumbent,
		deadline:  time.Now().Add(budget),
		ctx:       ctx,
	}
	best := exact.solve(p)

	sched := &Schedule{
		Field:    field,
		Tasks:    best.assignments(p),
		Makespan: best.makespan,
		Optimal:  !exact.timedOut,
	}
	return sched, nil
}
