// Package sampling holds the random number helpers shared by the
// simulator and the Monte Carlo estimator.
package sampling

import (
	"math/rand"
)

// StreamSeed derives the seed of an independent random stream from a
// master seed and a stream index using the splitmix64 finalizer, so that
// nearby indices yield unrelated seeds.
func StreamSeed(seed int64, stream uint64) int64 {
	z := uint64(seed) + (stream+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}

// NewStream returns a generator for the given stream of the master seed.
func NewStream(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewSource(StreamSeed(seed, stream)))
}

// Alternative picks uniformly one of the n-1 indices in [0, n) that differ
// from exclude.
func Alternative(rng *rand.Rand, n, exclude int) int {
	if n == 2 {
		return 1 - exclude
	}

	i := rng.Intn(n - 1)
	if i >= exclude {
		i++
	}

	return i
}
