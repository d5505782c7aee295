package ipd

import (
	"math/rand"

	"github.com/timpalpant/go-ipd/internal/sampling"
)

// Simulator plays single stochastically-terminated matches in which
// each player may independently make a mistake in every round.
type Simulator struct {
	matrix    *PayoffMatrix
	params    GameParams
	maxRounds int
}

// NewSimulator returns a Simulator for the given stage game. If maxRounds
// is positive, matches also end after that many rounds.
func NewSimulator(m *PayoffMatrix, params GameParams, maxRounds int) (*Simulator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if maxRounds < 0 {
		return nil, configErrorf("max_rounds", maxRounds, "must not be negative")
	}

	return &Simulator{
		matrix:    m,
		params:    params,
		maxRounds: maxRounds,
	}, nil
}

// Play runs one match between s1 and s2 and returns the realized histories.
// All randomness is drawn from rng.
func (s *Simulator) Play(rng *rand.Rand, s1, s2 Strategy) (MatchRecord, error) {
	var h1, h2 History
	for {
		m1, err := s.move(rng, s1.Decide(h1, h2))
		if err != nil {
			return MatchRecord{}, err
		}

		m2, err := s.move(rng, s2.Decide(h2, h1))
		if err != nil {
			return MatchRecord{}, err
		}

		h1 = append(h1, m1)
		h2 = append(h2, m2)

		if s.maxRounds > 0 && len(h1) >= s.maxRounds {
			break
		}

		if rng.Float64() >= s.params.Continuation {
			break
		}
	}

	return MatchRecord{Player1: h1, Player2: h2}, nil
}

// move validates a proposed move and replaces it, with probability γ,
// by a uniformly chosen different member of the alphabet.
func (s *Simulator) move(rng *rand.Rand, proposed Move) (Move, error) {
	idx := s.matrix.Index(proposed)
	if idx < 0 {
		return 0, domainErrorf("strategy proposed move %v outside alphabet %v",
			proposed, History(s.matrix.Alphabet()))
	}

	if s.params.Mistake > 0 && rng.Float64() < s.params.Mistake {
		alphabet := s.matrix.Alphabet()
		return alphabet[sampling.Alternative(rng, len(alphabet), idx)], nil
	}

	return proposed, nil
}
