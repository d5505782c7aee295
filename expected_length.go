package ipd

import (
	"math"

	"github.com/golang/glog"
)

// ExpectedRounds returns the expected game length 1/(1-δ) rounded to the
// nearest whole number of rounds.
func ExpectedRounds(continuation float64) int {
	return int(math.Round(1.0 / (1.0 - continuation)))
}

// Trajectory plays exactly rounds rounds between s1 and s2 without
// mistakes and returns the histories.
func Trajectory(m *PayoffMatrix, rounds int, s1, s2 Strategy) (MatchRecord, error) {
	h1 := make(History, 0, rounds)
	h2 := make(History, 0, rounds)
	for len(h1) < rounds {
		m1, m2 := s1.Decide(h1, h2), s2.Decide(h2, h1)
		if !m.Contains(m1) || !m.Contains(m2) {
			return MatchRecord{}, domainErrorf("strategies proposed moves (%v, %v) outside alphabet %v",
				m1, m2, History(m.Alphabet()))
		}

		h1 = append(h1, m1)
		h2 = append(h2, m2)
	}

	return MatchRecord{Player1: h1, Player2: h2}, nil
}

// ExpectedLength approximates the expected payoffs by a single match of
// fixed length ExpectedRounds(δ), played without mistakes and without
// discounting. It is exact only for deterministic strategies with γ = 0
// and is intended as a fast, coarse estimate.
func ExpectedLength(m *PayoffMatrix, params GameParams, s1, s2 Strategy) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	rounds := ExpectedRounds(params.Continuation)
	record, err := Trajectory(m, rounds, s1, s2)
	if err != nil {
		return Result{}, err
	}

	payoff, err := record.Payoff(m)
	if err != nil {
		return Result{}, err
	}

	result := Result{Payoff: payoff}
	result.scale(params.scale())
	glog.V(1).Infof("Expected length approximation: %d rounds, payoff=%v", rounds, result.Payoff)
	return result, nil
}
