package cpm

import (
	"fmt"
	"sort"

	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// Analyze performs critical path method analysis on an acyclic task graph
// using the durations selected by field. The computation runs in fixed
// stages: forward pass, backward pass, slack classification, then critical
// chain and wave extraction.
func Analyze(g *dsm.Graph, field dsm.Field, opts Options) (*Schedule, error) {
	durations, err := g.Durations(field)
	if err != nil {
		return nil, fmt.Errorf("resolve %s durations: %w", field, err)
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	result := &Schedule{
		Field:     field,
		Tasks:     make(map[string]*TaskSchedule, len(order)),
		TopoOrder: order,
	}

	// Forward pass: ES = max(EF of predecessors), EF = ES + duration.
	forward, horizon := forwardPass(g, order, durations)
	result.Horizon = horizon
	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id, ES: forward[id].ES, EF: forward[id].EF}
	}

	// Backward pass in reverse topological order:
	// LF = min(LS of successors), horizon for sinks; LS = LF - duration.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]
		lf := horizon
		for _, succ := range g.Adj[id] {
			if ls := result.Tasks[succ].LS; ls < lf {
				lf = ls
			}
		}
		ts.LF = lf
		ts.LS = lf - durations[id]
	}

	// Slack and critical classification. Free slack is how far a task can
	// slip without delaying any successor's earliest start; for sinks it
	// coincides with total slack.
	tol := opts.tolerance()
	for _, id := range order {
		ts := result.Tasks[id]
		ts.Slack = ts.LS - ts.ES
		if succs := g.Adj[id]; len(succs) > 0 {
			minES := result.Tasks[succs[0]].ES
			for _, succ := range succs[1:] {
				if es := result.Tasks[succ].ES; es < minES {
					minES = es
				}
			}
			ts.FreeSlack = minES - ts.EF
		} else {
			ts.FreeSlack = ts.Slack
		}
		ts.Critical = ts.Slack <= tol
		if ts.Critical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.CriticalChains = criticalChains(g, result, tol)
	result.Waves = computeWaves(g, result)

	return result, nil
}

// ForwardPass computes earliest start and finish per task for the given
// durations, plus the project completion time (max EF over sinks). It is
// the per-trial kernel of the Monte Carlo simulator, so it takes the
// topological order precomputed rather than re-deriving it.
func ForwardPass(g *dsm.Graph, order []string, durations map[string]float64) (map[string]Span, float64) {
	return forwardPass(g, order, durations)
}

func forwardPass(g *dsm.Graph, order []string, durations map[string]float64) (map[string]Span, float64) {
	spans := make(map[string]Span, len(order))
	horizon := 0.0
	for _, id := range order {
		es := 0.0
		for _, pred := range g.RevAdj[id] {
			if ef := spans[pred].EF; ef > es {
				es = ef
			}
		}
		ef := es + durations[id]
		spans[id] = Span{ES: es, EF: ef}
		if ef > horizon {
			horizon = ef
		}
	}
	return spans, horizon
}

// computeWaves groups tasks by their earliest start time, critical tasks
// listed first within each wave.
func computeWaves(g *dsm.Graph, result *Schedule) []Wave {
	esGroups := make(map[float64][]string)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]float64, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Float64s(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			result.Tasks[id].Wave = i
			if result.Tasks[id].Critical {
				hasCritical = true
			}
		}

		sort.SliceStable(taskIDs, func(a, b int) bool {
			aCrit := result.Tasks[taskIDs[a]].Critical
			bCrit := result.Tasks[taskIDs[b]].Critical
			if aCrit != bCrit {
				return aCrit
			}
			return false
		})

		waves[i] = Wave{Index: i, TaskIDs: taskIDs, Critical: hasCritical}
	}

	return waves
}
