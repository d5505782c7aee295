package sweep

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/timpalpant/go-ipd"
	"github.com/timpalpant/go-ipd/ldbstore"
	"github.com/timpalpant/go-ipd/rdbstore"
	"github.com/timpalpant/go-ipd/strategy"
)

// Store is an ipd.ResultStore whose contents can be listed.
type Store interface {
	ipd.ResultStore
	ForEach(fn func(key []byte, r ipd.Result) error) error
}

// OpenStore opens the result store described by c.
func OpenStore(c StoreConfig) (Store, error) {
	if c.Path == "" {
		return ipd.NewMemoryStore(), nil
	}

	var store Store
	var err error
	switch c.backend() {
	case "leveldb":
		store, err = ldbstore.New(c.Path, &opt.Options{})
	case "rocksdb":
		store, err = rdbstore.Open(c.Path)
	default:
		err = errors.Errorf("unknown store backend %q", c.Backend)
	}

	if err != nil {
		return nil, err
	}

	return store, nil
}

// Runner computes every Job of a sweep, skipping those already in its store.
type Runner struct {
	config Config
	s1, s2 ipd.Strategy
	store  ipd.ResultStore
}

// NewRunner resolves the strategies named by c.
func NewRunner(c Config, store ipd.ResultStore) (*Runner, error) {
	s1, err := strategy.ByName(c.Player1)
	if err != nil {
		return nil, errors.Wrap(err, "player1")
	}

	s2, err := strategy.ByName(c.Player2)
	if err != nil {
		return nil, errors.Wrap(err, "player2")
	}

	return &Runner{
		config: c,
		s1:     s1,
		s2:     s2,
		store:  store,
	}, nil
}

// Run computes every job in order and calls emit with each result.
//
// A job that does not converge within its timeout or budget is logged
// and skipped; it is neither stored nor emitted, and Run reports how many
// were skipped once the rest of the grid has finished. Any other error
// stops the sweep.
func (r *Runner) Run(ctx context.Context, emit func(ipd.Job, ipd.Result) error) error {
	jobs, err := r.config.Jobs()
	if err != nil {
		return err
	}

	skipped := 0
	for i, job := range jobs {
		key := job.Key()
		result, ok, err := r.store.Get(key)
		if err != nil {
			return err
		}

		if ok {
			glog.V(1).Infof("[%d/%d] %s: cached", i+1, len(jobs), key)
		} else {
			result, err = r.compute(ctx, job)
			if errors.Is(err, ipd.ErrConvergenceNotReached) {
				glog.Warningf("[%d/%d] %s: %v", i+1, len(jobs), key, err)
				skipped++
				continue
			} else if err != nil {
				return errors.Wrapf(err, "%s", key)
			}

			if err := r.store.Put(key, result); err != nil {
				return err
			}

			glog.Infof("[%d/%d] %s: payoff=%v", i+1, len(jobs), key, result.Payoff)
		}

		if err := emit(job, result); err != nil {
			return err
		}
	}

	if skipped > 0 {
		return errors.Wrapf(ipd.ErrConvergenceNotReached, "%d of %d grid points", skipped, len(jobs))
	}

	return nil
}

func (r *Runner) compute(ctx context.Context, job ipd.Job) (ipd.Result, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	matrix := job.StageGame()
	switch job.Method {
	case ipd.MethodBounded:
		c, err := ipd.NewBoundedCalculator(matrix, r.config.calculatorParams(job))
		if err != nil {
			return ipd.Result{}, err
		}

		return c.Calculate(ctx, r.s1, r.s2)
	case ipd.MethodMonteCarlo:
		mc, err := ipd.NewMonteCarlo(matrix, r.config.monteCarloParams(job))
		if err != nil {
			return ipd.Result{}, err
		}

		return mc.Estimate(ctx, r.s1, r.s2)
	case ipd.MethodExpectedLength:
		return ipd.ExpectedLength(matrix, job.Game, r.s1, r.s2)
	}

	return ipd.Result{}, errors.Errorf("unknown method %q", job.Method)
}
