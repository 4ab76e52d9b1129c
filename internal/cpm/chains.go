package cpm

import (
	"math"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// criticalChains enumerates every maximal source-to-sink chain of critical
// tasks connected by driving precedence edges (EF of the predecessor equals
// ES of the successor within tolerance). Disjoint critical chains are all
// reported, not just one.
func criticalChains(g *dsm.Graph, result *Schedule, tol float64) [][]string {
	// Driving edges restricted to critical endpoints.
	next := make(map[string][]string)
	hasCriticalPred := make(map[string]bool)
	for _, id := range result.TopoOrder {
		ts := result.Tasks[id]
		if !ts.Critical {
			continue
		}
		for _, succ := range g.Adj[id] {
			st := result.Tasks[succ]
			if !st.Critical {
				continue
			}
			if math.Abs(ts.EF-st.ES) > tol {
				continue
			}
			next[id] = append(next[id], succ)
			hasCriticalPred[succ] = true
		}
	}

	var chains [][]string
	var walk func(id string, path []string)
	walk = func(id string, path []string) {
		path = append(path, id)
		if len(next[id]) == 0 {
			chains = append(chains, append([]string(nil), path...))
			return
		}
		for _, succ := range next[id] {
			walk(succ, path)
		}
	}

	for _, id := range result.CriticalPath {
		if !hasCriticalPred[id] {
			walk(id, nil)
		}
	}
	return chains
}
