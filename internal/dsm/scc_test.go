package dsm

import (
	"reflect"
	"testing"
)

func TestFindCycles_Acyclic(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B", "C"}, []Edge{
		{"A", "B"}, {"B", "C"},
	})
	if sccs := g.FindCycles(); len(sccs) != 0 {
		t.Errorf("expected no cyclic SCCs, got %v", sccs)
	}
	if g.HasCycle() {
		t.Error("expected HasCycle=false")
	}
}

func TestFindCycles_ThreeCycle(t *testing.T) {
	// A -> B -> C -> A
	g := buildTestGraph(t, []string{"A", "B", "C"}, []Edge{
		{"A", "B"}, {"B", "C"}, {"C", "A"},
	})
	sccs := g.FindCycles()
	if len(sccs) != 1 {
		t.Fatalf("expected 1 SCC, got %v", sccs)
	}
	if !reflect.DeepEqual([]string(sccs[0]), []string{"A", "B", "C"}) {
		t.Errorf("expected members [A B C] in catalog order, got %v", sccs[0])
	}
}

func TestFindCycles_SelfLoop(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B"}, []Edge{
		{"A", "A"}, {"A", "B"},
	})
	sccs := g.FindCycles()
	if len(sccs) != 1 || len(sccs[0]) != 1 || sccs[0][0] != "A" {
		t.Fatalf("expected one self-loop singleton SCC {A}, got %v", sccs)
	}
}

func TestFindCycles_OrderedByFirstMember(t *testing.T) {
	// Two disjoint cycles; Y,Z appear before B,C in the catalog.
	g := buildTestGraph(t, []string{"Y", "Z", "B", "C"}, []Edge{
		{"B", "C"}, {"C", "B"},
		{"Y", "Z"}, {"Z", "Y"},
	})
	sccs := g.FindCycles()
	if len(sccs) != 2 {
		t.Fatalf("expected 2 SCCs, got %v", sccs)
	}
	if sccs[0][0] != "Y" || sccs[1][0] != "B" {
		t.Errorf("expected SCCs ordered by first catalog appearance, got %v", sccs)
	}
}

func TestFindCycles_MixedCycleAndChain(t *testing.T) {
	// A -> B <-> C -> D
	g := buildTestGraph(t, []string{"A", "B", "C", "D"}, []Edge{
		{"A", "B"}, {"B", "C"}, {"C", "B"}, {"C", "D"},
	})
	sccs := g.FindCycles()
	if len(sccs) != 1 {
		t.Fatalf("expected 1 SCC, got %v", sccs)
	}
	if !reflect.DeepEqual([]string(sccs[0]), []string{"B", "C"}) {
		t.Errorf("expected SCC {B,C}, got %v", sccs[0])
	}
}

func TestTopologicalLayers(t *testing.T) {
	// A -> B -> D, A -> C -> D, plus direct A -> D.
	// Longest-path layering: D must land in layer 2 despite the direct edge.
	g := buildTestGraph(t, []string{"A", "B", "C", "D"}, []Edge{
		{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}, {"A", "D"},
	})
	layers, err := g.TopologicalLayers()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{{"A"}, {"B", "C"}, {"D"}}
	if !reflect.DeepEqual(layers, want) {
		t.Errorf("expected layers %v, got %v", want, layers)
	}
}

func TestTopologicalLayers_Cyclic(t *testing.T) {
	g := buildTestGraph(t, []string{"A", "B"}, []Edge{
		{"A", "B"}, {"B", "A"},
	})
	if _, err := g.TopologicalLayers(); err == nil {
		t.Fatal("expected CyclicGraphError")
	}
}
