// Package sweep runs an expected payoff estimator over a grid of
// continuation and mistake probabilities, as configured by a YAML file.
package sweep

import (
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/timpalpant/go-ipd"
)

// Config describes one sweep. A sweep runs a single estimator for one
// pair of strategies at every (continuation, mistake) combination.
type Config struct {
	Method  string `yaml:"method"`
	Player1 string `yaml:"player1"`
	Player2 string `yaml:"player2"`

	Continuation []float64 `yaml:"continuation"`
	Mistake      []float64 `yaml:"mistake"`
	Normalize    bool      `yaml:"normalize"`

	// Stage game payoffs. Defaults to T=5, R=3, P=1, S=0.
	Payoffs *Payoffs `yaml:"payoffs"`

	// Bounded calculator.
	Epsilon     float64 `yaml:"epsilon"`
	MaxBranches int64   `yaml:"max_branches"`

	// Monte Carlo estimator.
	Trials       int     `yaml:"trials"`
	TargetStdErr float64 `yaml:"target_stderr"`
	MaxTrials    int     `yaml:"max_trials"`
	MaxRounds    int     `yaml:"max_rounds"`
	Seed         int64   `yaml:"seed"`

	Workers int `yaml:"workers"`
	// Timeout bounds each grid point. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`

	Store StoreConfig `yaml:"store"`
}

type Payoffs struct {
	Temptation float64 `yaml:"t"`
	Reward     float64 `yaml:"r"`
	Punishment float64 `yaml:"p"`
	Sucker     float64 `yaml:"s"`
}

// StoreConfig selects where completed results are cached.
// An empty Path keeps them in memory for the duration of the sweep.
type StoreConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"` // leveldb (default) or rocksdb
}

// LoadConfig decodes a YAML sweep config. Unknown fields are rejected.
func LoadConfig(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return Config{}, errors.Wrap(err, "decoding sweep config")
	}

	return c, nil
}

// Matrix returns the stage game payoff matrix.
func (c Config) Matrix() (*ipd.PayoffMatrix, error) {
	if c.Payoffs == nil {
		return ipd.PrisonersDilemma(), nil
	}

	p := c.Payoffs
	return ipd.NewPrisonersDilemma(p.Temptation, p.Reward, p.Punishment, p.Sucker)
}

// Jobs expands the grid into one Job per (continuation, mistake) pair,
// continuation varying slowest. Every Job is validated.
func (c Config) Jobs() ([]ipd.Job, error) {
	method, err := ipd.ParseMethod(c.Method)
	if err != nil {
		return nil, err
	}

	matrix, err := c.Matrix()
	if err != nil {
		return nil, err
	}

	if len(c.Continuation) == 0 {
		return nil, errors.New("at least one continuation probability is required")
	}

	mistakes := c.Mistake
	if len(mistakes) == 0 {
		mistakes = []float64{0}
	}

	var jobs []ipd.Job
	for _, delta := range c.Continuation {
		for _, gamma := range mistakes {
			job := ipd.Job{
				Method:  method,
				Player1: c.Player1,
				Player2: c.Player2,
				Matrix:  matrix,
				Game: ipd.GameParams{
					Continuation: delta,
					Mistake:      gamma,
					Normalize:    c.Normalize,
				},
			}

			switch method {
			case ipd.MethodBounded:
				job.Epsilon = c.Epsilon
				err = c.calculatorParams(job).Validate()
			case ipd.MethodMonteCarlo:
				job.Trials = c.Trials
				job.TargetStdErr = c.TargetStdErr
				job.Seed = c.Seed
				job.MaxRounds = c.MaxRounds
				job.Workers = c.Workers
				if job.Workers == 0 {
					job.Workers = runtime.GOMAXPROCS(0)
				}
				err = c.monteCarloParams(job).Validate()
			default:
				err = job.Game.Validate()
			}

			if err != nil {
				return nil, errors.Wrapf(err, "continuation=%v mistake=%v", delta, gamma)
			}

			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func (c Config) calculatorParams(job ipd.Job) ipd.CalculatorParams {
	return ipd.CalculatorParams{
		GameParams:  job.Game,
		Epsilon:     job.Epsilon,
		MaxBranches: c.MaxBranches,
		NumWorkers:  c.Workers,
	}
}

func (c Config) monteCarloParams(job ipd.Job) ipd.MonteCarloParams {
	return ipd.MonteCarloParams{
		GameParams:   job.Game,
		Trials:       job.Trials,
		TargetStdErr: job.TargetStdErr,
		MaxTrials:    c.MaxTrials,
		MaxRounds:    job.MaxRounds,
		NumWorkers:   job.Workers,
		Seed:         job.Seed,
	}
}

func (s StoreConfig) backend() string {
	if s.Backend == "" {
		return "leveldb"
	}

	return strings.ToLower(s.Backend)
}
