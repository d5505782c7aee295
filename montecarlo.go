package ipd

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/timpalpant/go-ipd/internal/sampling"
)

// Number of trials a worker runs between cancellation checks.
const trialCheckInterval = 256

// MonteCarlo estimates expected payoffs by averaging simulated matches.
//
// Trials are split across workers that each own an independent random
// stream derived from Seed, so an estimate is reproducible for a fixed
// Seed, NumWorkers and BatchSize.
type MonteCarlo struct {
	matrix *PayoffMatrix
	params MonteCarloParams
	sim    *Simulator
}

// NewMonteCarlo returns an estimator for the given stage game.
func NewMonteCarlo(m *PayoffMatrix, params MonteCarloParams) (*MonteCarlo, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	sim, err := NewSimulator(m, params.GameParams, params.MaxRounds)
	if err != nil {
		return nil, err
	}

	return &MonteCarlo{
		matrix: m,
		params: params.withDefaults(),
		sim:    sim,
	}, nil
}

// Estimate runs matches between s1 and s2 until the configured trial count
// or target standard error is reached.
func (mc *MonteCarlo) Estimate(ctx context.Context, s1, s2 Strategy) (Result, error) {
	var acc Accumulator
	var err error
	if mc.params.Trials > 0 {
		acc, err = mc.runBatch(ctx, s1, s2, mc.params.Trials, 0)
		if err != nil {
			return Result{}, err
		}
	} else {
		acc, err = mc.runUntilPrecise(ctx, s1, s2)
		if err != nil {
			return Result{}, err
		}
	}

	result := mc.result(acc)
	glog.Infof("Monte Carlo: %d trials, payoff=%v, stderr=%v", result.Trials, result.Payoff, result.StdErr)
	return result, nil
}

func (mc *MonteCarlo) runUntilPrecise(ctx context.Context, s1, s2 Strategy) (Accumulator, error) {
	var total Accumulator
	for batch := uint64(0); ; batch++ {
		n := mc.params.BatchSize
		if mc.params.MaxTrials > 0 {
			remaining := int64(mc.params.MaxTrials) - total.N
			if remaining <= 0 {
				return total, errors.WithStack(&ConvergenceError{
					Partial: mc.result(total),
					Reason:  "max trials exhausted before reaching target standard error",
				})
			}

			if remaining < int64(n) {
				n = int(remaining)
			}
		}

		acc, err := mc.runBatch(ctx, s1, s2, n, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
				return total, errors.WithStack(&ConvergenceError{
					Partial: mc.result(total),
					Reason:  "deadline exceeded before reaching target standard error",
					Cause:   ctxErr,
				})
			}

			return total, err
		}

		total.Merge(acc)
		if total.N < int64(mc.params.MinTrials) {
			continue
		}

		se := mc.result(total).StdErr
		glog.V(1).Infof("Batch %d: %d trials, stderr=%v (target %v)",
			batch, total.N, se, mc.params.TargetStdErr)
		if se[0] <= mc.params.TargetStdErr && se[1] <= mc.params.TargetStdErr {
			return total, nil
		}
	}
}

// runBatch runs n trials split across the workers. Worker w of batch b
// draws from stream b*NumWorkers+w of the master seed.
func (mc *MonteCarlo) runBatch(ctx context.Context, s1, s2 Strategy, n int, batch uint64) (Accumulator, error) {
	nWorkers := mc.params.NumWorkers
	if nWorkers > n {
		nWorkers = n
	}

	partials := make([]Accumulator, nWorkers)
	g, gCtx := errgroup.WithContext(ctx)
	for w := 0; w < nWorkers; w++ {
		w := w
		count := n / nWorkers
		if w < n%nWorkers {
			count++
		}

		stream := batch*uint64(mc.params.NumWorkers) + uint64(w)
		g.Go(func() error {
			rng := sampling.NewStream(mc.params.Seed, stream)
			var acc Accumulator
			for i := 0; i < count; i++ {
				if i%trialCheckInterval == 0 {
					if err := gCtx.Err(); err != nil {
						return err
					}
				}

				record, err := mc.sim.Play(rng, s1, s2)
				if err != nil {
					return err
				}

				payoff, err := record.Payoff(mc.matrix)
				if err != nil {
					return err
				}

				acc.Add(payoff)
			}

			glog.V(2).Infof("Worker %d finished %d trials", w, count)
			partials[w] = acc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Accumulator{}, errors.Wrap(err, "monte carlo worker failed")
	}

	var total Accumulator
	for _, p := range partials {
		total.Merge(p)
	}

	return total, nil
}

func (mc *MonteCarlo) result(acc Accumulator) Result {
	result := Result{
		Payoff: acc.Mean(),
		StdErr: acc.StdErr(),
		Trials: acc.N,
	}

	result.scale(mc.params.scale())
	return result
}
