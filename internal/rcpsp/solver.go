package rcpsp

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// problem is the immutable, pre-resolved solver input.
type problem struct {
	g        *dsm.Graph
	order    []string // topological order
	dur      map[string]int
	demand   map[string]int
	caps     map[string]int      // group -> concurrent capacity
	eligible map[string][]string // task -> capacity-feasible groups, sorted
	horizon  int
	es       map[string]int // CPM earliest start, a lower bound per task
	tail     map[string]int // longest path from task to a sink, own duration included
}

// implicitGroup backs scheduling without any declared resource groups: the
// schedule degenerates to the unconstrained earliest-start solution.
const implicitGroup = "default"

func newProblem(g *dsm.Graph, field dsm.Field, groups []Group, opts Options) (*problem, error) {
	durations, err := g.Durations(field)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	p := &problem{
		g:        g,
		order:    order,
		dur:      make(map[string]int, len(order)),
		demand:   make(map[string]int, len(order)),
		caps:     make(map[string]int),
		eligible: make(map[string][]string, len(order)),
		es:       make(map[string]int, len(order)),
		tail:     make(map[string]int, len(order)),
	}

	total := 0
	avg := 0.0
	for id, d := range durations {
		p.dur[id] = int(math.Ceil(d))
		p.demand[id] = g.Tasks[id].Demand()
		total += p.dur[id]
		avg += d
	}
	if len(durations) > 0 {
		avg /= float64(len(durations))
	}

	if len(groups) == 0 {
		p.caps[implicitGroup] = math.MaxInt32
	}
	for _, grp := range groups {
		p.caps[grp.Name] = grp.Capacity(avg)
	}
	var names []string
	for name := range p.caps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, id := range order {
		candidates := g.Tasks[id].EligibleGroups
		if len(candidates) == 0 {
			candidates = names
		}
		var feasible []string
		for _, name := range candidates {
			if cap, ok := p.caps[name]; ok && cap >= p.demand[id] {
				feasible = append(feasible, name)
			}
		}
		if len(feasible) == 0 {
			return nil, &InfeasibleScheduleError{TaskID: id, Demand: p.demand[id]}
		}
		sort.Strings(feasible)
		p.eligible[id] = feasible
	}

	// Any active schedule finishes within the total work; a caller may
	// widen the horizon but never shrink it below that.
	p.horizon = total
	if opts.Horizon > p.horizon {
		p.horizon = opts.Horizon
	}
	if p.horizon < 1 {
		p.horizon = 1
	}

	// Earliest starts ignoring resources, and longest tails to a sink;
	// both prune the exact search.
	for _, id := range order {
		es := 0
		for _, pred := range g.RevAdj[id] {
			if f := p.es[pred] + p.dur[pred]; f > es {
				es = f
			}
		}
		p.es[id] = es
	}
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		t := 0
		for _, succ := range g.Adj[id] {
			if p.tail[succ] > t {
				t = p.tail[succ]
			}
		}
		p.tail[id] = t + p.dur[id]
	}

	return p, nil
}

// solution is a mutable partial schedule shared by both strategies.
type solution struct {
	start    map[string]int
	finish   map[string]int
	group    map[string]string
	usage    map[string][]int // group -> per-time-unit demand
	makespan int
	count    int
}

func newSolution(p *problem) *solution {
	maxDur := 0
	for _, d := range p.dur {
		if d > maxDur {
			maxDur = d
		}
	}
	usage := make(map[string][]int, len(p.caps))
	for name := range p.caps {
		usage[name] = make([]int, p.horizon+maxDur+1)
	}
	return &solution{
		start:  make(map[string]int, len(p.order)),
		finish: make(map[string]int, len(p.order)),
		group:  make(map[string]string, len(p.order)),
		usage:  usage,
	}
}

// earliestStart finds the first start >= after at which the group can hold
// the demand for the whole duration. Returns -1 if it never fits before
// the horizon.
func (s *solution) earliestStart(p *problem, groupName string, after, dur, demand int) int {
	usage := s.usage[groupName]
	cap := p.caps[groupName]
	for t := after; t <= p.horizon; t++ {
		ok := true
		for u := t; u < t+dur; u++ {
			if usage[u]+demand > cap {
				ok = false
				break
			}
		}
		if ok {
			return t
		}
	}
	return -1
}

// minStart returns the precedence-driven earliest start: the max finish of
// the task's scheduled predecessors, never below its CPM earliest start.
func (s *solution) minStart(p *problem, id string) int {
	t := p.es[id]
	for _, pred := range p.g.RevAdj[id] {
		if f, ok := s.finish[pred]; ok && f > t {
			t = f
		}
	}
	return t
}

func (s *solution) place(p *problem, id, groupName string, start int) (prevMakespan int) {
	dur := p.dur[id]
	demand := p.demand[id]
	s.start[id] = start
	s.finish[id] = start + dur
	s.group[id] = groupName
	usage := s.usage[groupName]
	for u := start; u < start+dur; u++ {
		usage[u] += demand
	}
	prevMakespan = s.makespan
	if s.finish[id] > s.makespan {
		s.makespan = s.finish[id]
	}
	s.count++
	return prevMakespan
}

func (s *solution) unplace(p *problem, id string, prevMakespan int) {
	dur := p.dur[id]
	demand := p.demand[id]
	usage := s.usage[s.group[id]]
	for u := s.start[id]; u < s.start[id]+dur; u++ {
		usage[u] -= demand
	}
	delete(s.start, id)
	delete(s.finish, id)
	delete(s.group, id)
	s.makespan = prevMakespan
	s.count--
}

// ready lists unscheduled tasks whose predecessors are all scheduled,
// ascending by catalog id for deterministic branching.
func (s *solution) ready(p *problem) []string {
	var out []string
	for _, id := range p.order {
		if _, done := s.start[id]; done {
			continue
		}
		ok := true
		for _, pred := range p.g.RevAdj[id] {
			if _, done := s.finish[pred]; !done {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *solution) assignments(p *problem) map[string]*Assignment {
	out := make(map[string]*Assignment, len(s.start))
	for id, st := range s.start {
		out[id] = &Assignment{Start: st, Finish: s.finish[id], Group: s.group[id]}
	}
	return out
}

func (s *solution) snapshot(p *problem) *solution {
	cp := newSolution(p)
	for id, st := range s.start {
		cp.place(p, id, s.group[id], st)
	}
	return cp
}

// strategy is one way to produce a full schedule for a problem.
type strategy interface {
	solve(p *problem) *solution
}

var (
	_ strategy = serialHeuristic{}
	_ strategy = (*branchAndBound)(nil)
)

// serialHeuristic is the priority-rule fallback: serial schedule
// generation picking the ready task with the smallest earliest start, ties
// broken by ascending task id.
type serialHeuristic struct{}

func (serialHeuristic) solve(p *problem) *solution {
	s := newSolution(p)
	for s.count < len(p.order) {
		ready := s.ready(p)

		pick := ready[0]
		for _, id := range ready[1:] {
			if p.es[id] < p.es[pick] {
				pick = id
			}
		}

		groupName, start := bestPlacement(p, s, pick)
		s.place(p, pick, groupName, start)
	}
	return s
}

// bestPlacement chooses the eligible group allowing the earliest start,
// ties broken by group name order.
func bestPlacement(p *problem, s *solution, id string) (string, int) {
	after := s.minStart(p, id)
	bestGroup := ""
	bestStart := -1
	for _, name := range p.eligible[id] {
		t := s.earliestStart(p, name, after, p.dur[id], p.demand[id])
		if t < 0 {
			continue
		}
		if bestStart < 0 || t < bestStart {
			bestGroup, bestStart = name, t
		}
	}
	// The structural check guarantees some group fits before the horizon.
	return bestGroup, bestStart
}

// branchAndBound explores every serial generation order depth-first. The
// generated set is exactly the active schedules, which always contains an
// optimal one for makespan, so finishing the search proves optimality.
type branchAndBound struct {
	incumbent *solution
	deadline  time.Time
	ctx       context.Context
	timedOut  bool
}

func (b *branchAndBound) solve(p *problem) *solution {
	best := b.incumbent
	work := newSolution(p)

	var dfs func()
	dfs = func() {
		if b.timedOut {
			return
		}
		if b.ctx.Err() != nil || time.Now().After(b.deadline) {
			b.timedOut = true
			return
		}

		if work.count == len(p.order) {
			if work.makespan < best.makespan {
				best = work.snapshot(p)
			}
			return
		}

		// Lower bound: some unscheduled task still has its whole tail ahead.
		lb := work.makespan
		for _, id := range p.order {
			if _, done := work.start[id]; done {
				continue
			}
			if v := work.minStart(p, id) + p.tail[id]; v > lb {
				lb = v
			}
		}
		if lb >= best.makespan {
			return
		}

		for _, id := range work.ready(p) {
			after := work.minStart(p, id)
			for _, name := range p.eligible[id] {
				start := work.earliestStart(p, name, after, p.dur[id], p.demand[id])
				if start < 0 {
					continue
				}
				prev := work.place(p, id, name, start)
				dfs()
				work.unplace(p, id, prev)
				if b.timedOut {
					return
				}
			}
		}
	}

	dfs()
	return best
}
