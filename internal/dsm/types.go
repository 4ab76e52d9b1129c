package dsm

import (
	"fmt"
	"strings"
)

// Stat selects one value of a three-point estimate, or the derived
// PERT expected value.
type Stat int

const (
	Optimistic Stat = iota
	MostLikely
	Pessimistic
	Expected
)

func (s Stat) String() string {
	switch s {
	case Optimistic:
		return "O"
	case MostLikely:
		return "M"
	case Pessimistic:
		return "P"
	case Expected:
		return "Te"
	default:
		return fmt.Sprintf("Stat(%d)", int(s))
	}
}

// Field names a duration column: one statistic under one estimator role,
// e.g. Te_newbie. Callers resolve the field once at the API boundary and
// pass it through; nothing downstream looks durations up by string.
type Field struct {
	Stat Stat
	Role string
}

func (f Field) String() string {
	return f.Stat.String() + "_" + f.Role
}

// ParseField parses a column name like "Te_newbie" or "O_expert".
func ParseField(s string) (Field, error) {
	stat, role, ok := strings.Cut(s, "_")
	if !ok || role == "" {
		return Field{}, fmt.Errorf("malformed duration field %q (want e.g. Te_newbie)", s)
	}
	switch stat {
	case "O":
		return Field{Optimistic, role}, nil
	case "M":
		return Field{MostLikely, role}, nil
	case "P":
		return Field{Pessimistic, role}, nil
	case "Te":
		return Field{Expected, role}, nil
	}
	return Field{}, fmt.Errorf("unknown duration statistic %q in field %q", stat, s)
}

// Estimate is a three-point duration estimate plus the derived PERT
// expected value (O + 4M + P) / 6.
type Estimate struct {
	O  float64
	M  float64
	P  float64
	Te float64
}

// Value returns the estimate value for the given statistic.
func (e Estimate) Value(s Stat) float64 {
	switch s {
	case Optimistic:
		return e.O
	case MostLikely:
		return e.M
	case Pessimistic:
		return e.P
	default:
		return e.Te
	}
}

// Task is a single schedulable activity from the WBS catalog.
type Task struct {
	ID             string
	TRF            float64             // task risk factor in [0,1]
	Estimates      map[string]Estimate // keyed by estimator role
	EligibleGroups []string            // resource groups that may run this task; empty means any
	ResourceDemand int                 // units drawn from the assigned group; 0 means 1
}

// Duration returns the task's duration under the given field.
func (t *Task) Duration(f Field) (float64, bool) {
	est, ok := t.Estimates[f.Role]
	if !ok {
		return 0, false
	}
	return est.Value(f.Stat), true
}

// Demand returns the task's resource demand, defaulting to 1.
func (t *Task) Demand() int {
	if t.ResourceDemand <= 0 {
		return 1
	}
	return t.ResourceDemand
}

// Edge is a precedence constraint: From must finish before To starts.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph of tasks and precedence edges. It may contain
// cycles until merge condensation runs; every analysis beyond SCC detection
// requires an acyclic graph.
type Graph struct {
	Tasks  map[string]*Task
	Order  []string            // original catalog order; all deterministic orderings derive from it
	Adj    map[string][]string // task -> tasks that wait on it
	RevAdj map[string][]string // task -> tasks it waits on
	Roots  []string
	Leaves []string
}

// SCC is a strongly connected component, members in original catalog order.
type SCC []string
