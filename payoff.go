package ipd

import (
	"math"
	"strings"
)

// PayoffMatrix is a bimatrix stage game over a finite move alphabet.
type PayoffMatrix struct {
	alphabet []Move
	index    [256]int8
	// values[i][j] is the (row, column) payoff when the row player plays
	// alphabet[i] and the column player plays alphabet[j].
	values [][][2]float64
	maxAbs float64
}

// NewPayoffMatrix returns a stage game over the given alphabet.
// values must be a len(alphabet) x len(alphabet) table.
func NewPayoffMatrix(alphabet []Move, values [][][2]float64) (*PayoffMatrix, error) {
	if len(alphabet) < 2 {
		return nil, domainErrorf("alphabet must have at least two moves, got %d", len(alphabet))
	}

	m := &PayoffMatrix{
		alphabet: append([]Move(nil), alphabet...),
		values:   make([][][2]float64, len(alphabet)),
	}

	for i := range m.index {
		m.index[i] = -1
	}

	for i, move := range alphabet {
		if m.index[move] >= 0 {
			return nil, domainErrorf("duplicate move %v in alphabet", move)
		}

		m.index[move] = int8(i)
	}

	if len(values) != len(alphabet) {
		return nil, domainErrorf("payoff table has %d rows, want %d", len(values), len(alphabet))
	}

	for i, row := range values {
		if len(row) != len(alphabet) {
			return nil, domainErrorf("payoff table row %d has %d columns, want %d",
				i, len(row), len(alphabet))
		}

		m.values[i] = append([][2]float64(nil), row...)
		for _, v := range row {
			for _, x := range v {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return nil, domainErrorf("payoff table row %d contains non-finite value %v", i, x)
				}

				m.maxAbs = math.Max(m.maxAbs, math.Abs(x))
			}
		}
	}

	return m, nil
}

// NewPrisonersDilemma returns a symmetric Prisoner's Dilemma over
// {Cooperate, Defect} with temptation t, reward r, punishment p and
// sucker's payoff s. It fails unless t > r > p > s.
func NewPrisonersDilemma(t, r, p, s float64) (*PayoffMatrix, error) {
	m, err := NewPayoffMatrix([]Move{Cooperate, Defect}, [][][2]float64{
		{{r, r}, {s, t}},
		{{t, s}, {p, p}},
	})
	if err != nil {
		return nil, err
	}

	if err := m.ValidatePrisonersDilemma(); err != nil {
		return nil, err
	}

	return m, nil
}

// PrisonersDilemma returns the canonical instance with payoffs
// T=5, R=3, P=1, S=0.
func PrisonersDilemma() *PayoffMatrix {
	m, err := NewPrisonersDilemma(5, 3, 1, 0)
	if err != nil {
		panic(err)
	}

	return m
}

// ValidatePrisonersDilemma checks the standard ordering T > R > P > S
// for both the row and the column player.
func (m *PayoffMatrix) ValidatePrisonersDilemma() error {
	if len(m.alphabet) != 2 || !m.Contains(Cooperate) || !m.Contains(Defect) {
		return domainErrorf("prisoner's dilemma requires alphabet {C, D}, got %v", History(m.alphabet))
	}

	cc, dc := m.lookup(Cooperate, Cooperate), m.lookup(Defect, Cooperate)
	cd, dd := m.lookup(Cooperate, Defect), m.lookup(Defect, Defect)
	if !(dc[0] > cc[0] && cc[0] > dd[0] && dd[0] > cd[0]) {
		return domainErrorf("row payoffs violate T > R > P > S: T=%v R=%v P=%v S=%v",
			dc[0], cc[0], dd[0], cd[0])
	}

	if !(cd[1] > cc[1] && cc[1] > dd[1] && dd[1] > dc[1]) {
		return domainErrorf("column payoffs violate T > R > P > S: T=%v R=%v P=%v S=%v",
			cd[1], cc[1], dd[1], dc[1])
	}

	return nil
}

// Alphabet returns the moves of the stage game in their declared order.
// The returned slice must not be modified.
func (m *PayoffMatrix) Alphabet() []Move {
	return m.alphabet
}

// Contains returns true if move belongs to the alphabet.
func (m *PayoffMatrix) Contains(move Move) bool {
	return m.index[move] >= 0
}

// Index returns the position of move within the alphabet, or -1.
func (m *PayoffMatrix) Index(move Move) int {
	return int(m.index[move])
}

// String encodes the alphabet and every cell in row-major order, e.g.
// "CD:3,3|0,5|5,0|1,1" for the canonical Prisoner's Dilemma. Matrices
// with the same String are the same stage game.
func (m *PayoffMatrix) String() string {
	var sb strings.Builder
	sb.WriteString(History(m.alphabet).String())
	sb.WriteByte(':')
	for i, row := range m.values {
		for j, v := range row {
			if i > 0 || j > 0 {
				sb.WriteByte('|')
			}

			sb.WriteString(formatFloat(v[0]))
			sb.WriteByte(',')
			sb.WriteString(formatFloat(v[1]))
		}
	}

	return sb.String()
}

// MaxAbs returns the largest payoff magnitude of any cell for either player.
func (m *PayoffMatrix) MaxAbs() float64 {
	return m.maxAbs
}

// Payoff returns the (row, column) payoffs for the given moves.
func (m *PayoffMatrix) Payoff(row, col Move) ([2]float64, error) {
	i, j := m.index[row], m.index[col]
	if i < 0 || j < 0 {
		return [2]float64{}, domainErrorf("moves (%v, %v) outside alphabet %v",
			row, col, History(m.alphabet))
	}

	return m.values[i][j], nil
}

func (m *PayoffMatrix) lookup(row, col Move) [2]float64 {
	return m.values[m.index[row]][m.index[col]]
}
