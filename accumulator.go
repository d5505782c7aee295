package ipd

import (
	"math"
)

// Accumulator holds running per-player sums of sampled payoffs, from which
// the sample mean and the standard error of the mean are derived.
//
// Accumulators built over disjoint sets of samples combine with Merge.
// When every sample is integer-valued (as with integer stage payoffs) the
// sums are exact and the combined accumulator does not depend on how the
// samples were partitioned.
type Accumulator struct {
	N     int64
	Sum   [2]float64
	SumSq [2]float64
}

// Add records one sample.
func (a *Accumulator) Add(sample [2]float64) {
	a.N++
	for i, x := range sample {
		a.Sum[i] += x
		a.SumSq[i] += x * x
	}
}

// Merge adds the samples recorded by other.
func (a *Accumulator) Merge(other Accumulator) {
	a.N += other.N
	for i := range a.Sum {
		a.Sum[i] += other.Sum[i]
		a.SumSq[i] += other.SumSq[i]
	}
}

// Mean returns the sample mean of each player's payoff.
func (a Accumulator) Mean() [2]float64 {
	var mean [2]float64
	if a.N == 0 {
		return mean
	}

	for i := range mean {
		mean[i] = a.Sum[i] / float64(a.N)
	}

	return mean
}

// Variance returns the unbiased sample variance of each player's payoff.
func (a Accumulator) Variance() [2]float64 {
	var v [2]float64
	if a.N < 2 {
		return [2]float64{math.Inf(1), math.Inf(1)}
	}

	n := float64(a.N)
	for i := range v {
		mean := a.Sum[i] / n
		// Cancellation can leave a tiny negative residue.
		v[i] = math.Max(0, (a.SumSq[i]-n*mean*mean)/(n-1))
	}

	return v
}

// StdErr returns the standard error of each player's sample mean:
// the sample standard deviation divided by the square root of N.
func (a Accumulator) StdErr() [2]float64 {
	v := a.Variance()
	n := float64(a.N)
	return [2]float64{
		math.Sqrt(v[0] / n),
		math.Sqrt(v[1] / n),
	}
}
