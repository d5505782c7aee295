package ipd

import (
	"math"
	"runtime"
)

const (
	// DefaultSplitThreshold is the number of pending nodes the bounded
	// calculator expands serially before handing subtrees to workers.
	DefaultSplitThreshold = 64
	// DefaultBatchSize is the number of Monte Carlo trials run between
	// evaluations of the stopping rule.
	DefaultBatchSize = 1000
	// DefaultMinTrials is the number of trials required before the
	// standard error is trusted.
	DefaultMinTrials = 2
)

// GameParams are the parameters of the stochastic repeated game.
// An empty GameParams is valid and corresponds to a single round
// played without mistakes.
type GameParams struct {
	Continuation float64 // δ: probability another round is played
	Mistake      float64 // γ: per-player, per-round probability of a wrong move
	// Normalize multiplies payoffs by (1-δ), giving the average
	// per-round payoff rather than the expected total.
	Normalize bool
}

func (p GameParams) Validate() error {
	if !isProbability(p.Continuation) {
		return configErrorf("continuation", p.Continuation, "must be in [0, 1)")
	}

	if !isProbability(p.Mistake) {
		return configErrorf("mistake", p.Mistake, "must be in [0, 1)")
	}

	return nil
}

// ExpectedLength is the mean number of rounds, 1/(1-δ).
func (p GameParams) ExpectedLength() float64 {
	return 1.0 / (1.0 - p.Continuation)
}

func (p GameParams) scale() float64 {
	if p.Normalize {
		return 1.0 - p.Continuation
	}

	return 1.0
}

func isProbability(x float64) bool {
	return !math.IsNaN(x) && x >= 0 && x < 1
}

// CalculatorParams configure the bounded expected payoff calculator.
type CalculatorParams struct {
	GameParams

	// Epsilon is the pruning threshold: a branch whose probability times
	// the largest payoff magnitude is at most Epsilon is discarded.
	Epsilon float64
	// MaxBranches bounds the number of branches expanded. Zero means unbounded.
	MaxBranches int64
	// NumWorkers is the number of parallel subtree workers. Zero means GOMAXPROCS.
	NumWorkers int
	// SplitThreshold is the number of pending nodes that triggers parallel
	// expansion. Zero means DefaultSplitThreshold.
	SplitThreshold int
}

func (p CalculatorParams) Validate() error {
	if err := p.GameParams.Validate(); err != nil {
		return err
	}

	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 1) {
		return configErrorf("epsilon", p.Epsilon, "must be positive and finite")
	}

	if p.MaxBranches < 0 {
		return configErrorf("max_branches", p.MaxBranches, "must not be negative")
	}

	if p.NumWorkers < 0 {
		return configErrorf("workers", p.NumWorkers, "must not be negative")
	}

	if p.SplitThreshold < 0 {
		return configErrorf("split_threshold", p.SplitThreshold, "must not be negative")
	}

	return nil
}

func (p CalculatorParams) withDefaults() CalculatorParams {
	if p.NumWorkers == 0 {
		p.NumWorkers = runtime.GOMAXPROCS(0)
	}

	if p.SplitThreshold == 0 {
		p.SplitThreshold = DefaultSplitThreshold
	}

	return p
}

// MonteCarloParams configure the Monte Carlo estimator. Exactly one of
// Trials (fixed-trial mode) and TargetStdErr (target-precision mode)
// must be set.
type MonteCarloParams struct {
	GameParams

	Trials       int
	TargetStdErr float64

	// MinTrials is the number of trials required before the stopping rule
	// is evaluated. Zero means DefaultMinTrials.
	MinTrials int
	// BatchSize is the number of trials run between stopping-rule checks.
	// Zero means DefaultBatchSize.
	BatchSize int
	// MaxTrials bounds target-precision mode. Zero means unbounded.
	MaxTrials int
	// MaxRounds caps the length of each simulated match. Zero means uncapped.
	MaxRounds int
	// NumWorkers is the number of parallel trial workers. Zero means GOMAXPROCS.
	NumWorkers int
	// Seed makes the estimate reproducible for a given NumWorkers and BatchSize.
	Seed int64
}

func (p MonteCarloParams) Validate() error {
	if err := p.GameParams.Validate(); err != nil {
		return err
	}

	fixed, precise := p.Trials != 0, p.TargetStdErr != 0
	switch {
	case fixed && precise:
		return configErrorf("trials", p.Trials, "cannot be combined with target_stderr=%v", p.TargetStdErr)
	case !fixed && !precise:
		return configErrorf("trials", p.Trials, "one of trials or target_stderr is required")
	case fixed && p.Trials < 0:
		return configErrorf("trials", p.Trials, "must be positive")
	case precise && (!(p.TargetStdErr > 0) || math.IsInf(p.TargetStdErr, 1)):
		return configErrorf("target_stderr", p.TargetStdErr, "must be positive and finite")
	}

	for _, f := range []struct {
		name  string
		value int
	}{
		{"min_trials", p.MinTrials},
		{"batch_size", p.BatchSize},
		{"max_trials", p.MaxTrials},
		{"max_rounds", p.MaxRounds},
		{"workers", p.NumWorkers},
	} {
		if f.value < 0 {
			return configErrorf(f.name, f.value, "must not be negative")
		}
	}

	return nil
}

func (p MonteCarloParams) withDefaults() MonteCarloParams {
	if p.MinTrials == 0 {
		p.MinTrials = DefaultMinTrials
	}

	if p.BatchSize == 0 {
		p.BatchSize = DefaultBatchSize
	}

	if p.NumWorkers == 0 {
		p.NumWorkers = runtime.GOMAXPROCS(0)
	}

	return p
}
