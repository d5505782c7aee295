package ldbstore

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/timpalpant/go-ipd"
	"github.com/timpalpant/go-ipd/strategy"
)

func TestStore(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "ipd-test-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := New(tmpDir, &opt.Options{})
	require.NoError(t, err)

	job := ipd.Job{
		Method:  ipd.MethodBounded,
		Player1: "TFT",
		Player2: "AllD",
		Game:    ipd.GameParams{Continuation: 0.9},
		Epsilon: 1e-6,
	}

	_, ok, err := store.Get(job.Key())
	require.NoError(t, err)
	assert.False(t, ok)

	c, err := ipd.NewBoundedCalculator(ipd.PrisonersDilemma(), ipd.CalculatorParams{
		GameParams: job.Game,
		Epsilon:    job.Epsilon,
	})
	require.NoError(t, err)
	want, err := c.Calculate(context.Background(), strategy.TitForTat{}, strategy.AllDefect{})
	require.NoError(t, err)
	require.NoError(t, store.Put(job.Key(), want))
	require.NoError(t, store.Close())

	// Results survive reopening.
	store, err = New(tmpDir, &opt.Options{ErrorIfMissing: true})
	require.NoError(t, err)
	defer store.Close()

	got, ok, err := store.Get(job.Key())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	var keys []string
	err = store.ForEach(func(key []byte, r ipd.Result) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{string(job.Key())}, keys)
}

func BenchmarkStorePut(b *testing.B) {
	tmpDir, err := ioutil.TempDir("", "ipd-test-")
	if err != nil {
		b.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := New(tmpDir, &opt.Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()

	job := ipd.Job{Method: ipd.MethodMonteCarlo, Player1: "TFT", Player2: "TFT", Trials: 1000}
	r := ipd.Result{Payoff: [2]float64{3, 3}, Trials: 1000}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		job.Seed = int64(i)
		if err := store.Put(job.Key(), r); err != nil {
			b.Fatal(err)
		}
	}
}
