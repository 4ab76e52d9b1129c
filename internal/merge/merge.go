// Package merge collapses cyclic task clusters into synthetic tasks.
//
// A DSM with circular dependencies cannot be scheduled directly; merge
// condenses each strongly connected component into one task whose duration
// is the sum of its members scaled by a risk-derived coefficient. The
// condensation of a graph is always a DAG, so the output is guaranteed
// acyclic.
package merge

import (
	"fmt"
	"math"
	"sort"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// Params controls the merge coefficient
//
//	k = Base + sqrt((ΣTRF / n) * TRFScale / TRFDivisor) + NCoef * (n - 1)
//
// applied to the summed durations of an n-member component.
type Params struct {
	Base       float64
	TRFScale   float64
	TRFDivisor float64
	NCoef      float64
}

// DefaultParams returns the standard coefficient parameters.
func DefaultParams() Params {
	return Params{Base: 1.0, TRFScale: 1.0, TRFDivisor: 10.0, NCoef: 0.1}
}

// Coefficient evaluates k for the given member risk factors.
func (p Params) Coefficient(trfs []float64) float64 {
	n := len(trfs)
	if n <= 1 {
		return p.Base
	}
	sum := 0.0
	for _, trf := range trfs {
		sum += trf
	}
	mean := sum / float64(n)
	return p.Base + math.Sqrt(mean*p.TRFScale/p.TRFDivisor) + p.NCoef*float64(n-1)
}

// Info describes one synthetic task produced by a merge pass.
type Info struct {
	ID      string   // generated M<yy>-NNN identifier
	Members []string // constituent task ids in pre-merge catalog order
	K       float64  // coefficient applied to the summed durations
}

// Merge replaces every multi-member SCC in g with a single synthetic task
// and returns the condensed graph plus an index of merged tasks keyed by
// generated id. Singleton SCCs pass through unchanged apart from dropping
// their self-loop edge. Edges incident to a member are rewritten to the
// synthetic task; edges that collapse to self-loops are dropped.
func Merge(g *dsm.Graph, sccs []dsm.SCC, params Params) (*dsm.Graph, map[string]*Info, error) {
	resolve := make(map[string]string) // member id -> merged id
	infos := make(map[string]*Info)
	mergedByID := make(map[string]*dsm.Task)

	seq := 0
	for _, scc := range sccs {
		if len(scc) <= 1 {
			continue // self-loop singleton: task unchanged, loop edge dropped below
		}
		seq++

		year, err := sharedYearToken(scc)
		if err != nil {
			return nil, nil, err
		}
		id := fmt.Sprintf("M%s-%03d", year, seq)

		members := make([]*dsm.Task, len(scc))
		trfs := make([]float64, len(scc))
		for i, mid := range scc {
			members[i] = g.Tasks[mid]
			trfs[i] = g.Tasks[mid].TRF
		}
		k := params.Coefficient(trfs)

		mergedByID[id] = synthesize(id, members, k)
		infos[id] = &Info{ID: id, Members: append([]string(nil), scc...), K: k}
		for _, mid := range scc {
			resolve[mid] = id
		}
	}

	// Rebuild the task list in catalog order; a merged task occupies the
	// slot of its first member.
	var tasks []*dsm.Task
	placed := make(map[string]bool)
	for _, id := range g.Order {
		mid, merged := resolve[id]
		if !merged {
			tasks = append(tasks, g.Tasks[id])
			continue
		}
		if !placed[mid] {
			placed[mid] = true
			tasks = append(tasks, mergedByID[mid])
		}
	}

	var edges []dsm.Edge
	for _, e := range g.Edges() {
		from, to := e.From, e.To
		if m, ok := resolve[from]; ok {
			from = m
		}
		if m, ok := resolve[to]; ok {
			to = m
		}
		if from == to {
			continue
		}
		edges = append(edges, dsm.Edge{From: from, To: to})
	}

	dag, err := dsm.Build(tasks, edges)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild condensed graph: %w", err)
	}
	return dag, infos, nil
}

// synthesize builds the merged task: every duration statistic under every
// role present on any member is the k-scaled sum of the member values.
func synthesize(id string, members []*dsm.Task, k float64) *dsm.Task {
	roles := make(map[string]bool)
	groups := make(map[string]bool)
	trfSum := 0.0
	demand := 0
	for _, m := range members {
		for role := range m.Estimates {
			roles[role] = true
		}
		for _, grp := range m.EligibleGroups {
			groups[grp] = true
		}
		trfSum += m.TRF
		if m.Demand() > demand {
			demand = m.Demand()
		}
	}

	estimates := make(map[string]dsm.Estimate, len(roles))
	for role := range roles {
		var sum dsm.Estimate
		for _, m := range members {
			est := m.Estimates[role] // zero value for members lacking the role
			sum.O += est.O
			sum.M += est.M
			sum.P += est.P
			sum.Te += est.Te
		}
		estimates[role] = dsm.Estimate{
			O:  k * sum.O,
			M:  k * sum.M,
			P:  k * sum.P,
			Te: k * sum.Te,
		}
	}

	trf := trfSum / float64(len(members))
	if trf > 1 {
		trf = 1
	}

	var eligible []string
	for grp := range groups {
		eligible = append(eligible, grp)
	}
	sort.Strings(eligible)

	return &dsm.Task{
		ID:             id,
		TRF:            trf,
		Estimates:      estimates,
		EligibleGroups: eligible,
		ResourceDemand: demand,
	}
}
