package simulate

import (
	"math"
	"sort"
)

// Result aggregates the sampled project completion times of one run.
// Completed < Requested means the run was cancelled before finishing and
// the statistics describe a partial sample.
type Result struct {
	Samples    []float64 `json:"samples"` // per-trial completion times, collection order
	Requested  int       `json:"requested"`
	Completed  int       `json:"completed"`
	Confidence float64   `json:"confidence"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"std_dev"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Lower      float64   `json:"lower"` // lower interval bound at Confidence
	Upper      float64   `json:"upper"` // upper interval bound at Confidence
}

func summarize(samples []float64, requested int, confidence float64) *Result {
	res := &Result{
		Samples:    samples,
		Requested:  requested,
		Completed:  len(samples),
		Confidence: confidence,
	}
	if len(samples) == 0 {
		return res
	}

	sum := 0.0
	res.Min = samples[0]
	res.Max = samples[0]
	for _, s := range samples {
		sum += s
		if s < res.Min {
			res.Min = s
		}
		if s > res.Max {
			res.Max = s
		}
	}
	res.Mean = sum / float64(len(samples))

	if len(samples) > 1 {
		ss := 0.0
		for _, s := range samples {
			d := s - res.Mean
			ss += d * d
		}
		res.StdDev = math.Sqrt(ss / float64(len(samples)-1))
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	tail := (1 - confidence) / 2
	res.Lower = quantile(sorted, tail)
	res.Upper = quantile(sorted, 1-tail)

	return res
}

// Interval returns the two-sided empirical interval at the given
// confidence level, recomputed from the samples. Use this to read the
// result at a level other than the one the run was configured with.
func (r *Result) Interval(confidence float64) (lower, upper float64) {
	if len(r.Samples) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), r.Samples...)
	sort.Float64s(sorted)
	tail := (1 - confidence) / 2
	return quantile(sorted, tail), quantile(sorted, 1-tail)
}

// quantile returns the empirical q-quantile of sorted samples with linear
// interpolation between adjacent order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
