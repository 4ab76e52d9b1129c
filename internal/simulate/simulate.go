// Package simulate estimates the project completion time distribution by
// Monte Carlo: each trial samples every task's duration from its Beta-PERT
// three-point estimate and re-runs the critical path forward pass.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/Prosper1030/birdman-project/internal/cpm"
	"github.com/Prosper1030/birdman-project/internal/dsm"
)

// Options configures a simulation run.
type Options struct {
	Trials     int
	Confidence float64 // two-sided, e.g. 0.90 for 5th/95th percentile bounds
	Workers    int     // 0 means GOMAXPROCS-bound worker count
	Seed       int64   // 0 means time-derived; any other value reproduces the run at any worker count
}

// InvalidParameterError reports malformed simulation input: a bad trial
// count or confidence level, or a task estimate violating O <= M <= P.
type InvalidParameterError struct {
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return "invalid simulation parameter: " + e.Reason
}

// triple is one task's (O, M, P) estimate resolved for the chosen role.
type triple struct {
	id      string
	o, m, p float64
}

// Run executes the simulation over an acyclic graph using the three-point
// estimates of the given estimator role. Trials are independent and run on
// a bounded worker pool; cancelling ctx stops dispatch and returns the
// partial result collected so far rather than an error.
func Run(ctx context.Context, g *dsm.Graph, role string, opts Options) (*Result, error) {
	if opts.Trials < 1 {
		return nil, &InvalidParameterError{Reason: fmt.Sprintf("trial count %d, want >= 1", opts.Trials)}
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		return nil, &InvalidParameterError{Reason: fmt.Sprintf("confidence %v, want (0, 1)", opts.Confidence)}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	triples := make([]triple, 0, len(order))
	for _, id := range order {
		est, ok := g.Tasks[id].Estimates[role]
		if !ok {
			return nil, &InvalidParameterError{Reason: fmt.Sprintf("task %s has no %s estimate", id, role)}
		}
		if est.O > est.M || est.M > est.P {
			return nil, &InvalidParameterError{
				Reason: fmt.Sprintf("task %s violates O <= M <= P: (%v, %v, %v)", id, est.O, est.M, est.P),
			}
		}
		triples = append(triples, triple{id: id, o: est.O, m: est.M, p: est.P})
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > opts.Trials {
		workers = opts.Trials
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	jobs := make(chan int)
	done := make(chan float64)

	// Workers draw trial indices and push completion times back. Each
	// trial seeds its own rand.Rand from the base seed and the trial
	// index, so the sampled set never depends on which worker ran which
	// trial.
	for w := 0; w < workers; w++ {
		go func() {
			durations := make(map[string]float64, len(triples))
			for trial := range jobs {
				r := rand.New(rand.NewSource(seed + int64(trial)))
				for _, tr := range triples {
					durations[tr.id] = samplePERT(r, tr.o, tr.m, tr.p)
				}
				_, horizon := cpm.ForwardPass(g, order, durations)
				done <- horizon
			}
		}()
	}

	// Dispatch trials until done or cancelled, collecting as we go.
	samples := make([]float64, 0, opts.Trials)
	dispatched := 0
	inflight := 0
dispatch:
	for dispatched < opts.Trials {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- dispatched:
			dispatched++
			inflight++
		case horizon := <-done:
			inflight--
			samples = append(samples, horizon)
		}
	}
	close(jobs)
	for inflight > 0 {
		samples = append(samples, <-done)
		inflight--
	}

	return summarize(samples, opts.Trials, opts.Confidence), nil
}
