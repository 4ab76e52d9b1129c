package cpm

import (
	"math"
	"reflect"
	"testing"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

func durTask(id string, d float64) *dsm.Task {
	return &dsm.Task{
		ID:        id,
		Estimates: map[string]dsm.Estimate{"newbie": {O: d, M: d, P: d, Te: d}},
	}
}

func buildTestGraph(t *testing.T, durations map[string]float64, order []string, edges []dsm.Edge) *dsm.Graph {
	t.Helper()
	tasks := make([]*dsm.Task, len(order))
	for i, id := range order {
		tasks[i] = durTask(id, durations[id])
	}
	g, err := dsm.Build(tasks, edges)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

var teField = dsm.Field{Stat: dsm.Expected, Role: "newbie"}

func TestAnalyze_DiamondWithDirectEdge(t *testing.T) {
	// A -> B -> C plus direct A -> C; durations A=2, B=3, C=1.
	// C waits on max(EF(B), EF(A)) = 5, so the direct edge contributes
	// only slack.
	g := buildTestGraph(t,
		map[string]float64{"A": 2, "B": 3, "C": 1},
		[]string{"A", "B", "C"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}, {From: "A", To: "C"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSchedule(t, result.Tasks["A"], 0, 2, 0, 2, true)
	assertSchedule(t, result.Tasks["B"], 2, 5, 2, 5, true)
	assertSchedule(t, result.Tasks["C"], 5, 6, 5, 6, true)

	if result.Horizon != 6 {
		t.Errorf("expected horizon 6, got %v", result.Horizon)
	}
	if !reflect.DeepEqual(result.CriticalPath, []string{"A", "B", "C"}) {
		t.Errorf("expected critical path [A B C], got %v", result.CriticalPath)
	}
	if len(result.CriticalChains) != 1 || !reflect.DeepEqual(result.CriticalChains[0], []string{"A", "B", "C"}) {
		t.Errorf("expected single chain A-B-C, got %v", result.CriticalChains)
	}
}

func TestAnalyze_SampleProject(t *testing.T) {
	// A(3) -> B(4) -> D(3)
	// A(3) -> C(2) -> D(3)
	g := buildTestGraph(t,
		map[string]float64{"A": 3, "B": 4, "C": 2, "D": 3},
		[]string{"A", "B", "C", "D"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "A", To: "C"}, {From: "B", To: "D"}, {From: "C", To: "D"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertSchedule(t, result.Tasks["A"], 0, 3, 0, 3, true)
	assertSchedule(t, result.Tasks["B"], 3, 7, 3, 7, true)
	if ts := result.Tasks["C"]; ts.ES != 3 || ts.EF != 5 || ts.Slack != 2 || ts.Critical {
		t.Errorf("expected C=(3,5) slack 2 non-critical, got %+v", ts)
	}
	if ts := result.Tasks["D"]; ts.LS != 7 || ts.LF != 10 {
		t.Errorf("expected D latest (7,10), got %+v", ts)
	}
	if !reflect.DeepEqual(result.CriticalPath, []string{"A", "B", "D"}) {
		t.Errorf("expected critical path [A B D], got %v", result.CriticalPath)
	}
}

func TestAnalyze_ForwardBackwardConsistency(t *testing.T) {
	g := buildTestGraph(t,
		map[string]float64{"A": 1.5, "B": 2.25, "C": 0.75, "D": 3, "E": 1},
		[]string{"A", "B", "C", "D", "E"},
		[]dsm.Edge{
			{From: "A", To: "B"}, {From: "A", To: "C"},
			{From: "B", To: "D"}, {From: "C", To: "D"}, {From: "C", To: "E"},
		},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	criticalCount := 0
	for id, ts := range result.Tasks {
		if ts.ES > ts.EF || ts.LS > ts.LF || ts.ES > ts.LS+DefaultTolerance {
			t.Errorf("task %s violates ES<=EF, LS<=LF, ES<=LS: %+v", id, ts)
		}
		if ts.Critical {
			criticalCount++
		}
	}
	if criticalCount == 0 {
		t.Error("expected at least one critical task")
	}

	// Backward-pass horizon equals forward-pass max EF.
	maxEF := 0.0
	for _, ts := range result.Tasks {
		if ts.EF > maxEF {
			maxEF = ts.EF
		}
	}
	if result.Horizon != maxEF {
		t.Errorf("horizon %v != max EF %v", result.Horizon, maxEF)
	}
}

func TestAnalyze_FractionalSlackTolerance(t *testing.T) {
	// 0.1+0.2 != 0.3 in float64; the tolerance must keep the chain critical.
	g := buildTestGraph(t,
		map[string]float64{"A": 0.1, "B": 0.2, "C": 0.3},
		[]string{"A", "B", "C"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for id, ts := range result.Tasks {
		if !ts.Critical {
			t.Errorf("task %s on the only chain misclassified as non-critical (slack %v)", id, ts.Slack)
		}
	}
}

func TestAnalyze_DisjointCriticalChains(t *testing.T) {
	// Two equal-length independent chains: A -> B and C -> D.
	g := buildTestGraph(t,
		map[string]float64{"A": 2, "B": 2, "C": 2, "D": 2},
		[]string{"A", "B", "C", "D"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "C", To: "D"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.CriticalChains) != 2 {
		t.Fatalf("expected 2 disjoint critical chains, got %v", result.CriticalChains)
	}
}

func TestAnalyze_SelectableField(t *testing.T) {
	g := buildTestGraph(t, map[string]float64{"A": 1}, []string{"A"}, nil)
	g.Tasks["A"].Estimates["newbie"] = dsm.Estimate{O: 1, M: 2, P: 6, Te: 2.5}

	optimistic, err := Analyze(g, dsm.Field{Stat: dsm.Optimistic, Role: "newbie"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pessimistic, err := Analyze(g, dsm.Field{Stat: dsm.Pessimistic, Role: "newbie"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if optimistic.Horizon != 1 || pessimistic.Horizon != 6 {
		t.Errorf("expected horizons 1 and 6, got %v and %v", optimistic.Horizon, pessimistic.Horizon)
	}

	if _, err := Analyze(g, dsm.Field{Stat: dsm.Expected, Role: "expert"}, Options{}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestAnalyze_CyclicGraph(t *testing.T) {
	g := buildTestGraph(t,
		map[string]float64{"A": 1, "B": 1},
		[]string{"A", "B"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "B", To: "A"}},
	)
	if _, err := Analyze(g, teField, Options{}); err == nil {
		t.Fatal("expected CyclicGraphError")
	}
}

func TestAnalyze_Waves(t *testing.T) {
	// A -> B, A -> C, {B,C} -> D: waves [A], [B C], [D].
	g := buildTestGraph(t,
		map[string]float64{"A": 1, "B": 1, "C": 1, "D": 1},
		[]string{"A", "B", "C", "D"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "A", To: "C"}, {From: "B", To: "D"}, {From: "C", To: "D"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}
	if len(result.Waves[1].TaskIDs) != 2 {
		t.Errorf("expected 2 tasks in wave 1, got %v", result.Waves[1].TaskIDs)
	}
}

func TestForwardPass_SampledDurations(t *testing.T) {
	g := buildTestGraph(t,
		map[string]float64{"A": 1, "B": 1},
		[]string{"A", "B"},
		[]dsm.Edge{{From: "A", To: "B"}},
	)
	order, err := g.TopologicalOrder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans, horizon := ForwardPass(g, order, map[string]float64{"A": 2.5, "B": 4})
	if spans["B"].ES != 2.5 || horizon != 6.5 {
		t.Errorf("expected B starts 2.5, horizon 6.5; got %+v horizon %v", spans["B"], horizon)
	}
}

func assertSchedule(t *testing.T, ts *TaskSchedule, es, ef, ls, lf float64, critical bool) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(ts.ES-es) > eps || math.Abs(ts.EF-ef) > eps {
		t.Errorf("task %s: expected ES/EF=(%v,%v), got (%v,%v)", ts.TaskID, es, ef, ts.ES, ts.EF)
	}
	if math.Abs(ts.LS-ls) > eps || math.Abs(ts.LF-lf) > eps {
		t.Errorf("task %s: expected LS/LF=(%v,%v), got (%v,%v)", ts.TaskID, ls, lf, ts.LS, ts.LF)
	}
	if ts.Critical != critical {
		t.Errorf("task %s: expected critical=%v, got %v", ts.TaskID, critical, ts.Critical)
	}
}

// Free slack can be tighter than total slack: an early task on a slack
// chain cannot slip at all without pushing its successor, even though the
// chain as a whole has room.
func TestAnalyze_FreeSlack(t *testing.T) {
	g := buildTestGraph(t,
		map[string]float64{"A": 1, "B": 1, "C": 1, "X": 5},
		[]string{"A", "B", "C", "X"},
		[]dsm.Edge{{From: "A", To: "B"}, {From: "B", To: "C"}},
	)

	result, err := Analyze(g, teField, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const eps = 1e-9
	checks := map[string]struct{ total, free float64 }{
		"A": {2, 0}, // any slip delays B immediately
		"B": {2, 0},
		"C": {2, 2}, // sink: free slack equals total slack
		"X": {0, 0},
	}
	for id, want := range checks {
		ts := result.Tasks[id]
		if math.Abs(ts.Slack-want.total) > eps {
			t.Errorf("task %s: expected total slack %v, got %v", id, want.total, ts.Slack)
		}
		if math.Abs(ts.FreeSlack-want.free) > eps {
			t.Errorf("task %s: expected free slack %v, got %v", id, want.free, ts.FreeSlack)
		}
	}
}
