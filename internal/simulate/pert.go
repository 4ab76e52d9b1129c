package simulate

import (
	"math"
	"math/rand"
)

// pertShape is the conventional PERT shape factor controlling variance
// around the most-likely estimate.
const pertShape = 4.0

// samplePERT draws one duration from the Beta-PERT distribution defined by
// the (O, M, P) triple. A degenerate triple with P == O yields M.
func samplePERT(r *rand.Rand, o, m, p float64) float64 {
	if p <= o {
		return m
	}
	alpha := 1 + pertShape*(m-o)/(p-o)
	beta := 1 + pertShape*(p-m)/(p-o)
	return o + sampleBeta(r, alpha, beta)*(p-o)
}

// sampleBeta draws from Beta(a, b) as Ga/(Ga+Gb) of two gamma variates.
func sampleBeta(r *rand.Rand, a, b float64) float64 {
	ga := sampleGamma(r, a)
	gb := sampleGamma(r, b)
	if ga+gb == 0 {
		return 0.5
	}
	return ga / (ga + gb)
}

// sampleGamma draws from Gamma(shape, 1) using the Marsaglia-Tsang
// squeeze method, boosting shape < 1 through Gamma(shape+1).
func sampleGamma(r *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := r.Float64()
		for u == 0 {
			u = r.Float64()
		}
		return sampleGamma(r, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / (3 * math.Sqrt(d))
	for {
		x := r.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
