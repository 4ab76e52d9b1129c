package dsm

import "sort"

// FindCycles identifies the graph's strongly connected components using
// Tarjan's algorithm. Only cyclic components are returned: SCCs with more
// than one member, plus singletons that carry a self-loop. Components are
// ordered by their first member's position in the original catalog order,
// and members within a component keep that order too.
func (g *Graph) FindCycles() []SCC {
	pos := g.orderIndex()

	index := 0
	indices := make(map[string]int, len(g.Tasks))
	lowlinks := make(map[string]int, len(g.Tasks))
	onStack := make(map[string]bool, len(g.Tasks))
	var stack []string
	var all []SCC

	var strongconnect func(node string)
	strongconnect = func(node string) {
		indices[node] = index
		lowlinks[node] = index
		index++
		stack = append(stack, node)
		onStack[node] = true

		for _, next := range g.Adj[node] {
			if _, seen := indices[next]; !seen {
				strongconnect(next)
				if lowlinks[next] < lowlinks[node] {
					lowlinks[node] = lowlinks[next]
				}
			} else if onStack[next] && indices[next] < lowlinks[node] {
				lowlinks[node] = indices[next]
			}
		}

		if lowlinks[node] == indices[node] {
			var scc SCC
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == node {
					break
				}
			}
			all = append(all, scc)
		}
	}

	for _, id := range g.Order {
		if _, seen := indices[id]; !seen {
			strongconnect(id)
		}
	}

	var cyclic []SCC
	for _, scc := range all {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		sort.Slice(scc, func(a, b int) bool { return pos[scc[a]] < pos[scc[b]] })
		cyclic = append(cyclic, scc)
	}
	sort.Slice(cyclic, func(a, b int) bool { return pos[cyclic[a][0]] < pos[cyclic[b][0]] })

	return cyclic
}

// HasCycle reports whether the graph contains any cycle.
func (g *Graph) HasCycle() bool {
	return len(g.FindCycles()) > 0
}

func (g *Graph) hasSelfLoop(id string) bool {
	for _, next := range g.Adj[id] {
		if next == id {
			return true
		}
	}
	return false
}
