package dsm

import (
	"fmt"
	"sort"
)

// Build constructs a Graph from a task catalog and an edge list.
// Duplicate parallel edges are deduplicated; an edge endpoint that is not
// in the catalog is a ValidationError. Self-loops are kept — they surface
// later as singleton SCCs.
func Build(tasks []*Task, edges []Edge) (*Graph, error) {
	g := &Graph{
		Tasks:  make(map[string]*Task, len(tasks)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}

	for _, t := range tasks {
		if t.ID == "" {
			return nil, &ValidationError{Reason: "task with empty id"}
		}
		if _, dup := g.Tasks[t.ID]; dup {
			return nil, &ValidationError{Reason: fmt.Sprintf("duplicate task id %s", t.ID)}
		}
		g.Tasks[t.ID] = t
		g.Order = append(g.Order, t.ID)
	}

	edgeSet := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if _, ok := g.Tasks[e.From]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge %s->%s references unknown task %s", e.From, e.To, e.From)}
		}
		if _, ok := g.Tasks[e.To]; !ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("edge %s->%s references unknown task %s", e.From, e.To, e.To)}
		}
		if edgeSet[e] {
			continue
		}
		edgeSet[e] = true
		g.Adj[e.From] = append(g.Adj[e.From], e.To)
		g.RevAdj[e.To] = append(g.RevAdj[e.To], e.From)
	}

	// Sort adjacency lists for deterministic traversal
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	return g, nil
}

// FromMatrix constructs a Graph from a DSM adjacency matrix.
// matrix[row][col] != 0 means the row task depends on (waits for) the
// column task, so the edge runs column -> row.
func FromMatrix(tasks []*Task, matrix [][]int) (*Graph, error) {
	if len(matrix) != len(tasks) {
		return nil, &ValidationError{Reason: fmt.Sprintf("DSM has %d rows for %d tasks", len(matrix), len(tasks))}
	}
	var edges []Edge
	for i, row := range matrix {
		if len(row) != len(tasks) {
			return nil, &ValidationError{Reason: fmt.Sprintf("DSM row %s has %d columns, want %d", tasks[i].ID, len(row), len(tasks))}
		}
		for j, v := range row {
			if v != 0 {
				edges = append(edges, Edge{From: tasks[j].ID, To: tasks[i].ID})
			}
		}
	}
	return Build(tasks, edges)
}

// Edges returns the graph's edge set in deterministic order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.Order {
		for _, to := range g.Adj[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.Tasks)
}

// Durations materializes a per-task duration map for the given field.
// Every task must carry an estimate for the field's role.
func (g *Graph) Durations(f Field) (map[string]float64, error) {
	out := make(map[string]float64, len(g.Tasks))
	for _, id := range g.Order {
		d, ok := g.Tasks[id].Duration(f)
		if !ok {
			return nil, fmt.Errorf("task %s has no %s estimate", id, f)
		}
		out[id] = d
	}
	return out, nil
}

// TopologicalOrder returns the tasks in topological order via Kahn's
// algorithm, ties broken by original catalog order. Fails with
// CyclicGraphError if the graph still contains a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	pos := g.orderIndex()
	inDegree := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var order []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Slice(newReady, func(a, b int) bool { return pos[newReady[a]] < pos[newReady[b]] })
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		var remaining []string
		seen := make(map[string]bool, len(order))
		for _, id := range order {
			seen[id] = true
		}
		for _, id := range g.Order {
			if !seen[id] {
				remaining = append(remaining, id)
			}
		}
		return nil, &CyclicGraphError{Remaining: remaining}
	}

	return order, nil
}

// orderIndex maps task id to its position in the original catalog order.
func (g *Graph) orderIndex() map[string]int {
	pos := make(map[string]int, len(g.Order))
	for i, id := range g.Order {
		pos[id] = i
	}
	return pos
}
