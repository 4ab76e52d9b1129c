package dsm

import (
	"errors"
	"reflect"
	"testing"
)

func task(id string) *Task {
	return &Task{
		ID:        id,
		Estimates: map[string]Estimate{"newbie": {O: 1, M: 1, P: 1, Te: 1}},
	}
}

func buildTestGraph(t *testing.T, ids []string, edges []Edge) *Graph {
	t.Helper()
	tasks := make([]*Task, len(ids))
	for i, id := range ids {
		tasks[i] = task(id)
	}
	g, err := Build(tasks, edges)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g := buildTestGraph(t, []string{"A", "B", "C", "D"}, []Edge{
		{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"},
	})

	if g.TaskCount() != 4 {
		t.Errorf("expected 4 tasks, got %d", g.TaskCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "A" {
		t.Errorf("expected roots=[A], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "D" {
		t.Errorf("expected leaves=[D], got %v", g.Leaves)
	}
	if adj := g.Adj["A"]; len(adj) != 2 {
		t.Errorf("expected A to precede 2 tasks, got %v", adj)
	}
	if rev := g.RevAdj["D"]; len(rev) != 2 {
		t.Errorf("expected D to wait on 2 tasks, got %v", rev)
	}
}

func TestBuild_DanglingEdge(t *testing.T) {
	_, err := Build([]*Task{task("A")}, []Edge{{"A", "Z"}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuild_DuplicateTaskID(t *testing.T) {
	_, err := Build([]*Task{task("A"), task("A")}, nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestBuild_DuplicateEdgesDeduplicated(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B"}, []Edge{
		{"A", "B"}, {"A", "B"}, {"A", "B"},
	})
	if len(g.Adj["A"]) != 1 {
		t.Errorf("expected parallel edges deduplicated, got %v", g.Adj["A"])
	}
	if got := g.Edges(); len(got) != 1 {
		t.Errorf("expected 1 edge, got %v", got)
	}
}

func TestFromMatrix(t *testing.T) {
	// Row B depends on column A: edge A -> B.
	tasks := []*Task{task("A"), task("B")}
	g, err := FromMatrix(tasks, [][]int{
		{0, 0},
		{1, 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(g.Adj["A"], []string{"B"}) {
		t.Errorf("expected edge A->B, got adj %v", g.Adj)
	}
}

func TestFromMatrix_NotSquare(t *testing.T) {
	tasks := []*Task{task("A"), task("B")}
	_, err := FromMatrix(tasks, [][]int{{0, 1, 0}, {0, 0, 1}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestTopologicalOrder_Deterministic(t *testing.T) {
	g := buildTestGraph(t, []string{"C", "A", "B"}, nil)
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No edges: ties broken by catalog order, not alphabetically.
	if !reflect.DeepEqual(order, []string{"C", "A", "B"}) {
		t.Errorf("expected catalog order [C A B], got %v", order)
	}
}

func TestTopologicalOrder_Cycle(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B", "C"}, []Edge{
		{"A", "B"}, {"B", "C"}, {"C", "A"},
	})
	_, err := g.TopologicalOrder()
	var cerr *CyclicGraphError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CyclicGraphError, got %v", err)
	}
	if len(cerr.Remaining) != 3 {
		t.Errorf("expected 3 unordered tasks, got %v", cerr.Remaining)
	}
}

func TestDurations_MissingRole(t *testing.T) {
	g := buildTestGraph(t, []string{"A"}, nil)
	if _, err := g.Durations(Field{Expected, "expert"}); err == nil {
		t.Fatal("expected error for missing role estimate")
	}
	durs, err := g.Durations(Field{Expected, "newbie"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if durs["A"] != 1 {
		t.Errorf("expected duration 1, got %v", durs["A"])
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField("Te_newbie")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Stat != Expected || f.Role != "newbie" {
		t.Errorf("expected Te/newbie, got %v", f)
	}
	if f.String() != "Te_newbie" {
		t.Errorf("round trip failed: %s", f)
	}

	for _, bad := range []string{"Te", "X_newbie", "Te_", ""} {
		if _, err := ParseField(bad); err == nil {
			t.Errorf("ParseField(%q): expected error", bad)
		}
	}
}
