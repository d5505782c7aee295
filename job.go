package ipd

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Method names an expected payoff estimator.
type Method string

const (
	MethodBounded        Method = "bounded"
	MethodMonteCarlo     Method = "montecarlo"
	MethodExpectedLength Method = "expected"
)

// ParseMethod returns the Method named by s.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(s)); m {
	case MethodBounded, MethodMonteCarlo, MethodExpectedLength:
		return m, nil
	}

	return "", configErrorf("method", s, "must be one of %q, %q or %q",
		MethodBounded, MethodMonteCarlo, MethodExpectedLength)
}

// Job identifies one completed computation: a pair of named strategies,
// the stage game, the game parameters, and the estimator settings that
// affect its result.
type Job struct {
	Method           Method
	Player1, Player2 string
	// Matrix is the stage game. Nil means PrisonersDilemma().
	Matrix *PayoffMatrix
	Game   GameParams

	Epsilon float64 // bounded only

	// Monte Carlo only. An estimate depends on the number of workers
	// because each worker draws from its own stream of Seed.
	Trials       int
	TargetStdErr float64
	Seed         int64
	MaxRounds    int
	Workers      int
}

// StageGame returns j.Matrix, or the canonical Prisoner's Dilemma if unset.
func (j Job) StageGame() *PayoffMatrix {
	if j.Matrix == nil {
		return PrisonersDilemma()
	}

	return j.Matrix
}

// Key returns the store key of j. Jobs that would compute the same Result
// have the same key.
func (j Job) Key() []byte {
	fields := []string{
		string(j.Method),
		j.Player1,
		j.Player2,
		formatFloat(j.Game.Continuation),
		formatFloat(j.Game.Mistake),
		strconv.FormatBool(j.Game.Normalize),
		j.StageGame().String(),
	}

	switch j.Method {
	case MethodBounded:
		fields = append(fields, formatFloat(j.Epsilon))
	case MethodMonteCarlo:
		fields = append(fields, strconv.Itoa(j.Trials), formatFloat(j.TargetStdErr),
			strconv.FormatInt(j.Seed, 10), strconv.Itoa(j.MaxRounds), strconv.Itoa(j.Workers))
	}

	return []byte(strings.Join(fields, "/"))
}

// ResultStore persists completed results by Job key.
// Implementations must be safe for concurrent use.
type ResultStore interface {
	// Get returns the result stored under key, if any.
	Get(key []byte) (Result, bool, error)
	Put(key []byte, r Result) error
	Close() error
}

// MemoryStore is a ResultStore that keeps all results in memory.
// It can be saved and restored with MarshalTo and LoadMemoryStore.
type MemoryStore struct {
	mu      sync.Mutex
	results map[string]Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]Result)}
}

// Get implements ResultStore.
func (s *MemoryStore) Get(key []byte) (Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[string(key)]
	return r, ok, nil
}

// Put implements ResultStore.
func (s *MemoryStore) Put(key []byte, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[string(key)] = r
	return nil
}

// Close implements ResultStore.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored results.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// ForEach calls fn with every stored result in key order.
func (s *MemoryStore) ForEach(fn func(key []byte, r Result) error) error {
	type entry struct {
		key    string
		result Result
	}

	s.mu.Lock()
	entries := make([]entry, 0, len(s.results))
	for key, r := range s.results {
		entries = append(entries, entry{key, r})
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for _, e := range entries {
		if err := fn([]byte(e.key), e.result); err != nil {
			return err
		}
	}

	return nil
}
