package ipd

import (
	"strconv"
	"strings"
)

// Result is the expected payoff pair computed by one of the estimators,
// together with diagnostics specific to the estimator that produced it.
type Result struct {
	// Payoff holds the expected payoff of player 1 and player 2.
	Payoff [2]float64

	// StdErr is the realized standard error of each payoff.
	// Only set by the Monte Carlo estimator.
	StdErr [2]float64
	// Trials is the number of simulated matches (Monte Carlo only).
	Trials int64

	// Branches is the number of tree branches accumulated and Pruned the
	// number discarded by the pruning rule (bounded calculator only).
	Branches int64
	Pruned   int64
	// PrunedMass is the total probability of the pruned branches, and
	// ErrorBound the resulting bound on |exact - Payoff| for either player.
	PrunedMass float64
	ErrorBound float64
}

// Line formats the result as the tab-separated record
//
//	continuation  mistake  payoff_player_1  payoff_player_2
//
// The field order is stable; downstream tooling parses it by position.
func (r Result) Line(continuation, mistake float64) string {
	fields := []string{
		formatFloat(continuation),
		formatFloat(mistake),
		formatFloat(r.Payoff[0]),
		formatFloat(r.Payoff[1]),
	}

	return strings.Join(fields, "\t")
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func (r *Result) scale(alpha float64) {
	r.Payoff[0] *= alpha
	r.Payoff[1] *= alpha
	r.StdErr[0] *= alpha
	r.StdErr[1] *= alpha
	r.ErrorBound *= alpha
}
