package ipd_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timpalpant/go-ipd"
	"github.com/timpalpant/go-ipd/strategy"
)

func TestSimulator_NoMistakesMatchesTrajectory(t *testing.T) {
	m := ipd.PrisonersDilemma()
	params := ipd.GameParams{Continuation: 0.9}
	sim, err := ipd.NewSimulator(m, params, 0)
	require.NoError(t, err)

	pairs := [][2]ipd.Strategy{
		{strategy.TitForTat{}, strategy.AllDefect{}},
		{strategy.SuspiciousTitForTat{}, strategy.TitForTat{}},
		{strategy.InverseTitForTat{}, strategy.WinStayLoseShift{}},
		{strategy.TitForNTats{N: 2}, strategy.SuspiciousTitForTat{}},
	}

	rounds := ipd.ExpectedRounds(params.Continuation)
	rng := rand.New(rand.NewSource(1234))
	for _, pair := range pairs {
		want, err := ipd.Trajectory(m, rounds, pair[0], pair[1])
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			got, err := sim.Play(rng, pair[0], pair[1])
			require.NoError(t, err)
			n := got.Rounds()
			if n > rounds {
				n = rounds
			}

			assert.Equal(t, want.Player1[:n], got.Player1[:n], "%v vs %v", pair[0], pair[1])
			assert.Equal(t, want.Player2[:n], got.Player2[:n], "%v vs %v", pair[0], pair[1])
		}
	}
}

func TestSimulator_FullLengthMatchesTrajectory(t *testing.T) {
	m := ipd.PrisonersDilemma()
	// With a cap at the expected length and δ close to 1, matches almost
	// always run to the cap.
	sim, err := ipd.NewSimulator(m, ipd.GameParams{Continuation: 0.999999}, 10)
	require.NoError(t, err)

	want, err := ipd.Trajectory(m, 10, strategy.TitForTat{}, strategy.SuspiciousTitForTat{})
	require.NoError(t, err)

	got, err := sim.Play(rand.New(rand.NewSource(1)), strategy.TitForTat{}, strategy.SuspiciousTitForTat{})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "CDCDCDCDCD", got.Player1.String())
}

func TestSimulator_EqualLengthHistories(t *testing.T) {
	m := ipd.PrisonersDilemma()
	sim, err := ipd.NewSimulator(m, ipd.GameParams{Continuation: 0.8, Mistake: 0.2}, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		r, err := sim.Play(rng, strategy.TitForTat{}, strategy.GrimTrigger{})
		require.NoError(t, err)
		assert.Equal(t, len(r.Player1), len(r.Player2))
		assert.GreaterOrEqual(t, r.Rounds(), 1)
	}
}

func TestSimulator_MaxRounds(t *testing.T) {
	m := ipd.PrisonersDilemma()
	sim, err := ipd.NewSimulator(m, ipd.GameParams{Continuation: 0.999}, 5)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		r, err := sim.Play(rng, strategy.AllCooperate{}, strategy.AllCooperate{})
		require.NoError(t, err)
		assert.LessOrEqual(t, r.Rounds(), 5)
	}
}

func TestSimulator_ZeroContinuationPlaysOneRound(t *testing.T) {
	sim, err := ipd.NewSimulator(ipd.PrisonersDilemma(), ipd.GameParams{}, 0)
	require.NoError(t, err)

	r, err := sim.Play(rand.New(rand.NewSource(1)), strategy.AllCooperate{}, strategy.AllDefect{})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Rounds())
}

func TestSimulator_MistakeRate(t *testing.T) {
	m := ipd.PrisonersDilemma()
	sim, err := ipd.NewSimulator(m, ipd.GameParams{Continuation: 0.9, Mistake: 0.1}, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(99))
	var moves, defections int
	for i := 0; i < 2000; i++ {
		r, err := sim.Play(rng, strategy.AllCooperate{}, strategy.AllCooperate{})
		require.NoError(t, err)
		for _, h := range []ipd.History{r.Player1, r.Player2} {
			for _, move := range h {
				moves++
				if move == ipd.Defect {
					defections++
				}
			}
		}
	}

	assert.InDelta(t, 0.1, float64(defections)/float64(moves), 0.01)
}

func TestSimulator_Reproducible(t *testing.T) {
	m := ipd.PrisonersDilemma()
	sim, err := ipd.NewSimulator(m, ipd.GameParams{Continuation: 0.95, Mistake: 0.05}, 0)
	require.NoError(t, err)

	play := func() []ipd.MatchRecord {
		rng := rand.New(rand.NewSource(42))
		var records []ipd.MatchRecord
		for i := 0; i < 10; i++ {
			r, err := sim.Play(rng, strategy.TitForTat{}, strategy.WinStayLoseShift{})
			require.NoError(t, err)
			records = append(records, r)
		}
		return records
	}

	assert.Equal(t, play(), play())
}

func TestSimulator_RejectsMoveOutsideAlphabet(t *testing.T) {
	sim, err := ipd.NewSimulator(ipd.PrisonersDilemma(), ipd.GameParams{Continuation: 0.5}, 0)
	require.NoError(t, err)

	bad := ipd.StrategyFunc(func(own, opponent ipd.History) ipd.Move { return 'X' })
	_, err = sim.Play(rand.New(rand.NewSource(1)), strategy.TitForTat{}, bad)
	assert.True(t, ipd.IsDomainError(err), "got %v", err)
}

func TestNewSimulator_InvalidParams(t *testing.T) {
	_, err := ipd.NewSimulator(ipd.PrisonersDilemma(), ipd.GameParams{Continuation: 1}, 0)
	assert.True(t, ipd.IsConfigurationError(err))

	_, err = ipd.NewSimulator(ipd.PrisonersDilemma(), ipd.GameParams{}, -1)
	assert.True(t, ipd.IsConfigurationError(err))
}

func BenchmarkSimulatorPlay(b *testing.B) {
	sim, err := ipd.NewSimulator(ipd.PrisonersDilemma(), ipd.GameParams{Continuation: 0.99, Mistake: 0.01}, 0)
	if err != nil {
		b.Fatal(err)
	}

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sim.Play(rng, strategy.TitForTat{}, strategy.TitForTat{}); err != nil {
			b.Fatal(err)
		}
	}
}
