package ipd

// Move is one action in a stage game. Moves are single bytes so that
// histories print compactly, e.g. "CCDC".
type Move byte

const (
	Cooperate Move = 'C'
	Defect    Move = 'D'
)

// String implements fmt.Stringer.
func (m Move) String() string {
	return string([]byte{byte(m)})
}

// History is the ordered sequence of moves played by one player.
type History []Move

// String implements fmt.Stringer.
func (h History) String() string {
	buf := make([]byte, len(h))
	for i, m := range h {
		buf[i] = byte(m)
	}

	return string(buf)
}

// Last returns the most recent move and true, or false if h is empty.
func (h History) Last() (Move, bool) {
	if len(h) == 0 {
		return 0, false
	}

	return h[len(h)-1], true
}

// Strategy decides the next move of a player in a repeated game.
type Strategy interface {
	// Decide returns the next move given the player's own history
	// and the opponent's history. The two histories always have equal length;
	// both are empty for the opening move.
	//
	// Decide must be a pure function of the two histories: implementations
	// may not keep hidden mutable state, and must not retain either slice
	// after returning since the engine reuses the underlying buffers.
	Decide(own, opponent History) Move
}

// StrategyFunc adapts an ordinary function to the Strategy interface.
type StrategyFunc func(own, opponent History) Move

// Decide implements Strategy.
func (f StrategyFunc) Decide(own, opponent History) Move {
	return f(own, opponent)
}

// MatchRecord holds the realized histories of both players in one match.
type MatchRecord struct {
	Player1 History
	Player2 History
}

// Rounds returns the number of rounds played.
func (r MatchRecord) Rounds() int {
	return len(r.Player1)
}

// Payoff returns the undiscounted sum of stage payoffs over the match.
func (r MatchRecord) Payoff(m *PayoffMatrix) ([2]float64, error) {
	var total [2]float64
	for i := range r.Player1 {
		p, err := m.Payoff(r.Player1[i], r.Player2[i])
		if err != nil {
			return total, err
		}

		total[0] += p[0]
		total[1] += p[1]
	}

	return total, nil
}
