package rcpsp

import (
	"context"
	"errors"
	"testing"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

func TestSolveRACP_TightDeadlineForcesParallelCapacity(t *testing.T) {
	g := buildTestGraph(t, []*dsm.Task{
		resTask("A", 2, 1, "R1"),
		resTask("B", 2, 1, "R1"),
		resTask("C", 2, 1, "R1"),
	}, nil)

	plan, err := SolveRACP(context.Background(), g, teField, []Group{{Name: "R1"}},
		RACPOptions{Deadline: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Capacities["R1"] != 3 {
		t.Errorf("expected capacity 3 to fit three parallel tasks, got %d", plan.Capacities["R1"])
	}
	if plan.Makespan > plan.Deadline {
		t.Errorf("plan makespan %d misses deadline %d", plan.Makespan, plan.Deadline)
	}
}

func TestSolveRACP_LooseDeadlineShrinksToOne(t *testing.T) {
	g := buildTestGraph(t, []*dsm.Task{
		resTask("A", 2, 1, "R1"),
		resTask("B", 2, 1, "R1"),
		resTask("C", 2, 1, "R1"),
	}, nil)

	plan, err := SolveRACP(context.Background(), g, teField, []Group{{Name: "R1"}},
		RACPOptions{Deadline: 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Capacities["R1"] != 1 {
		t.Errorf("expected minimal capacity 1 for a serial schedule, got %d", plan.Capacities["R1"])
	}
}

func TestSolveRACP_DemandSeedsLowerBound(t *testing.T) {
	// A single-group task with demand 3 pins that group's headcount even
	// when the deadline is generous.
	g := buildTestGraph(t, []*dsm.Task{resTask("A", 2, 3, "R1")}, nil)

	plan, err := SolveRACP(context.Background(), g, teField, []Group{{Name: "R1"}},
		RACPOptions{Deadline: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Capacities["R1"] != 3 {
		t.Errorf("expected capacity 3 for demand 3, got %d", plan.Capacities["R1"])
	}
}

func TestSolveRACP_PerGroupSizing(t *testing.T) {
	g := buildTestGraph(t, []*dsm.Task{
		resTask("A", 2, 1, "X"),
		resTask("B", 2, 1, "X"),
		resTask("C", 2, 1, "Y"),
	}, nil)

	// Group names come from the eligibility lists when none are given.
	plan, err := SolveRACP(context.Background(), g, teField, nil, RACPOptions{Deadline: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Capacities["X"] != 2 {
		t.Errorf("expected X sized to 2 for its parallel pair, got %d", plan.Capacities["X"])
	}
	if plan.Capacities["Y"] != 1 {
		t.Errorf("expected Y sized to 1 for its lone task, got %d", plan.Capacities["Y"])
	}
}

func TestSolveRACP_UnreachableDeadline(t *testing.T) {
	// The precedence chain alone takes 6; no capacity fixes that.
	g := buildTestGraph(t, []*dsm.Task{
		resTask("A", 3, 1, "R1"),
		resTask("B", 3, 1, "R1"),
	}, []dsm.Edge{{From: "A", To: "B"}})

	_, err := SolveRACP(context.Background(), g, teField, []Group{{Name: "R1"}},
		RACPOptions{Deadline: 5})
	var unreachable *UnreachableDeadlineError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected UnreachableDeadlineError, got %v", err)
	}
	if unreachable.Makespan != 6 {
		t.Errorf("expected best makespan 6 in the error, got %d", unreachable.Makespan)
	}
}

func TestSolveRACP_InvalidDeadline(t *testing.T) {
	g := buildTestGraph(t, []*dsm.Task{resTask("A", 1, 1, "R1")}, nil)
	if _, err := SolveRACP(context.Background(), g, teField, []Group{{Name: "R1"}},
		RACPOptions{}); err == nil {
		t.Error("expected an error for a zero deadline")
	}
}
