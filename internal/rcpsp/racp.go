package rcpsp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// CapacityPlan is the resource availability cost problem output: the
// smallest per-group headcounts found under which the project still
// finishes by the deadline, and the makespan achieved with them.
type CapacityPlan struct {
	Field      dsm.Field
	Capacities map[string]int
	Makespan   int
	Deadline   int
}

// RACPOptions tunes a capacity search.
type RACPOptions struct {
	Deadline    int           // completion deadline in whole time units
	SolveBudget time.Duration // per inner scheduling solve; zero means DefaultSolveBudget
	Horizon     int           // widens the scheduling horizon, as in Options
}

// DefaultSolveBudget bounds each inner scheduling solve during the
// capacity search. The search runs many of them, so it is much tighter
// than DefaultTimeBudget.
const DefaultSolveBudget = 2 * time.Second

// maxUniformRaises bounds the initial all-groups widening loop. A
// deadline the critical path alone already misses never becomes feasible,
// so the loop must give up rather than grow capacities forever.
const maxUniformRaises = 20

// UnreachableDeadlineError reports that no capacity assignment meets the
// deadline: the precedence structure alone forces a longer makespan.
type UnreachableDeadlineError struct {
	Deadline int
	Makespan int
}

func (e *UnreachableDeadlineError) Error() string {
	return fmt.Sprintf("no capacity assignment finishes by %d (best makespan %d)", e.Deadline, e.Makespan)
}

// SolveRACP inverts Solve: instead of scheduling under fixed capacities,
// it searches for the minimal per-group headcounts that still allow a
// schedule meeting the deadline. Capacities are seeded from structural
// lower bounds (a task with one eligible group pins that group's
// headcount to its demand), widened uniformly until some schedule meets
// the deadline, then shrunk per group by binary search with a scheduling
// solve as the feasibility oracle. The groups argument supplies the pool
// names to size; when empty the names are taken from the tasks'
// eligibility lists.
func SolveRACP(ctx context.Context, g *dsm.Graph, field dsm.Field, groups []Group, opts RACPOptions) (*CapacityPlan, error) {
	if opts.Deadline < 1 {
		return nil, fmt.Errorf("deadline %d, want >= 1", opts.Deadline)
	}
	names := capacityGroupNames(g, groups)
	if len(names) == 0 {
		return nil, fmt.Errorf("no resource groups to size")
	}

	lower := make(map[string]int, len(names))
	for _, name := range names {
		lower[name] = 0
	}
	for _, id := range g.Order {
		task := g.Tasks[id]
		elig := eligibleAmong(task, names)
		if len(elig) == 0 {
			return nil, &InfeasibleScheduleError{TaskID: id, Demand: task.Demand()}
		}
		if len(elig) == 1 {
			if d := task.Demand(); d > lower[elig[0]] {
				lower[elig[0]] = d
			}
		}
	}

	// Every task must fit somewhere before any candidate can schedule; widen the
	// first eligible group when no group can hold the demand.
	capacity := make(map[string]int, len(lower))
	for name, v := range lower {
		capacity[name] = v
	}
	for _, id := range g.Order {
		task := g.Tasks[id]
		elig := eligibleAmong(task, names)
		d := task.Demand()
		fits := false
		for _, name := range elig {
			if capacity[name] >= d {
				fits = true
				break
			}
		}
		if !fits {
			capacity[elig[0]] = d
		}
	}

	makespan, err := solveWithCapacities(ctx, g, field, names, capacity, opts)
	if err != nil {
		return nil, err
	}
	for iter := 0; makespan > opts.Deadline && iter < maxUniformRaises; iter++ {
		for _, name := range names {
			capacity[name]++
		}
		makespan, err = solveWithCapacities(ctx, g, field, names, capacity, opts)
		if err != nil {
			return nil, err
		}
	}
	if makespan > opts.Deadline {
		return nil, &UnreachableDeadlineError{Deadline: opts.Deadline, Makespan: makespan}
	}

	// Shrink each group independently: binary search between its lower
	// bound and the known-feasible capacity, re-solving at every midpoint.
	for _, name := range names {
		lo, hi := lower[name], capacity[name]
		for lo < hi {
			mid := (lo + hi) / 2
			capacity[name] = mid
			m, err := solveWithCapacities(ctx, g, field, names, capacity, opts)
			if err != nil {
				return nil, err
			}
			if m <= opts.Deadline {
				hi = mid
			} else {
				lo = mid + 1
			}
			capacity[name] = hi
		}
	}

	makespan, err = solveWithCapacities(ctx, g, field, names, capacity, opts)
	if err != nil {
		return nil, err
	}
	return &CapacityPlan{
		Field:      field,
		Capacities: capacity,
		Makespan:   makespan,
		Deadline:   opts.Deadline,
	}, nil
}

// solveWithCapacities schedules under the candidate capacities and returns
// the makespan. A structurally infeasible candidate (some task fits no
// group) reads as missing the deadline rather than as a hard error.
func solveWithCapacities(ctx context.Context, g *dsm.Graph, field dsm.Field, names []string, caps map[string]int, opts RACPOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var candidate []Group
	for _, name := range names {
		if caps[name] > 0 {
			candidate = append(candidate, Group{Name: name, HeadcountCap: caps[name]})
		}
	}
	// An all-zero candidate would schedule as unconstrained; it holds
	// nothing, so it misses by definition.
	if len(candidate) == 0 {
		return opts.Deadline + 1, nil
	}

	budget := opts.SolveBudget
	if budget <= 0 {
		budget = DefaultSolveBudget
	}

	s, err := Solve(ctx, g, field, candidate, Options{TimeBudget: budget, Horizon: opts.Horizon})
	if err != nil {
		var infeasible *InfeasibleScheduleError
		if errors.As(err, &infeasible) {
			return opts.Deadline + 1, nil
		}
		return 0, err
	}
	return s.Makespan, nil
}

func capacityGroupNames(g *dsm.Graph, groups []Group) []string {
	set := make(map[string]bool)
	for _, grp := range groups {
		set[grp.Name] = true
	}
	if len(set) == 0 {
		for _, id := range g.Order {
			for _, name := range g.Tasks[id].EligibleGroups {
				set[name] = true
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// eligibleAmong resolves the task's eligibility against the groups being
// sized, sorted by name. An empty eligibility list means any group.
func eligibleAmong(task *dsm.Task, names []string) []string {
	if len(task.EligibleGroups) == 0 {
		return names
	}
	var out []string
	for _, name := range task.EligibleGroups {
		for _, known := range names {
			if name == known {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}
