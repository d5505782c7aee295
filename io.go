package ipd

import (
	"bytes"
	"encoding/gob"
	"io"
)

// LoadMemoryStore reads a MemoryStore previously written with MarshalTo.
func LoadMemoryStore(r io.Reader) (*MemoryStore, error) {
	dec := gob.NewDecoder(r)
	var n int64
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}

	results := make(map[string]Result, n)
	for i := int64(0); i < n; i++ {
		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, err
		}

		var result Result
		if err := dec.Decode(&result); err != nil {
			return nil, err
		}

		results[key] = result
	}

	return &MemoryStore{results: results}, nil
}

// MarshalTo writes every stored result to w.
func (s *MemoryStore) MarshalTo(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc := gob.NewEncoder(w)
	if err := enc.Encode(int64(len(s.results))); err != nil {
		return err
	}

	for key, result := range s.results {
		if err := enc.Encode(key); err != nil {
			return err
		}

		if err := enc.Encode(result); err != nil {
			return err
		}
	}

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Result) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(r.Payoff); err != nil {
		return nil, err
	}

	if err := enc.Encode(r.StdErr); err != nil {
		return nil, err
	}

	counts := [3]int64{r.Trials, r.Branches, r.Pruned}
	if err := enc.Encode(counts); err != nil {
		return nil, err
	}

	if err := enc.Encode([2]float64{r.PrunedMass, r.ErrorBound}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Result) UnmarshalBinary(buf []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(buf))

	if err := dec.Decode(&r.Payoff); err != nil {
		return err
	}

	if err := dec.Decode(&r.StdErr); err != nil {
		return err
	}

	var counts [3]int64
	if err := dec.Decode(&counts); err != nil {
		return err
	}
	r.Trials, r.Branches, r.Pruned = counts[0], counts[1], counts[2]

	var mass [2]float64
	if err := dec.Decode(&mass); err != nil {
		return err
	}
	r.PrunedMass, r.ErrorBound = mass[0], mass[1]

	return nil
}
