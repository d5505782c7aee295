package ipd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameParams_Validate(t *testing.T) {
	assert.NoError(t, GameParams{}.Validate())
	assert.NoError(t, GameParams{Continuation: 0.99, Mistake: 0.5}.Validate())

	for _, p := range []GameParams{
		{Continuation: 1},
		{Continuation: -0.1},
		{Continuation: math.NaN()},
		{Mistake: 1},
		{Mistake: -1e-9},
	} {
		assert.True(t, IsConfigurationError(p.Validate()), "%+v", p)
	}
}

func TestCalculatorParams_Validate(t *testing.T) {
	assert.NoError(t, CalculatorParams{Epsilon: 1e-6}.Validate())

	for _, p := range []CalculatorParams{
		{},
		{Epsilon: -1},
		{Epsilon: math.Inf(1)},
		{Epsilon: 1e-6, MaxBranches: -1},
		{Epsilon: 1e-6, NumWorkers: -1},
		{Epsilon: 1e-6, GameParams: GameParams{Continuation: 1}},
	} {
		assert.True(t, IsConfigurationError(p.Validate()), "%+v", p)
	}
}

func TestMonteCarloParams_Validate(t *testing.T) {
	assert.NoError(t, MonteCarloParams{Trials: 10}.Validate())
	assert.NoError(t, MonteCarloParams{TargetStdErr: 0.1}.Validate())

	for _, p := range []MonteCarloParams{
		{},
		{Trials: -5},
		{Trials: 10, TargetStdErr: 0.1},
		{TargetStdErr: -0.1},
		{Trials: 10, BatchSize: -1},
		{Trials: 10, GameParams: GameParams{Mistake: 2}},
	} {
		assert.True(t, IsConfigurationError(p.Validate()), "%+v", p)
	}
}
