// Package strategy implements the classic strategies of the iterated
// Prisoner's Dilemma as ipd.Strategy values.
//
// Every strategy is a stateless function of the two histories it is
// given, so the same pair of histories always yields the same move.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/timpalpant/go-ipd"
)

const (
	c = ipd.Cooperate
	d = ipd.Defect
)

// AllCooperate always cooperates.
type AllCooperate struct{}

// Decide implements ipd.Strategy.
func (AllCooperate) Decide(own, opponent ipd.History) ipd.Move { return c }

func (AllCooperate) String() string { return "AllCooperate" }

// AllDefect always defects.
type AllDefect struct{}

func (AllDefect) Decide(own, opponent ipd.History) ipd.Move { return d }

func (AllDefect) String() string { return "AllDefect" }

// TitForTat cooperates first, then copies the opponent's previous move.
type TitForTat struct{}

// Decide implements ipd.Strategy.
func (TitForTat) Decide(own, opponent ipd.History) ipd.Move {
	if last, ok := opponent.Last(); ok {
		return last
	}

	return c
}

func (TitForTat) String() string { return "TitForTat" }

// SuspiciousTitForTat defects first, then copies the opponent's previous move.
type SuspiciousTitForTat struct{}

// Decide implements ipd.Strategy.
func (SuspiciousTitForTat) Decide(own, opponent ipd.History) ipd.Move {
	if last, ok := opponent.Last(); ok {
		return last
	}

	return d
}

func (SuspiciousTitForTat) String() string { return "SuspiciousTitForTat" }

// InverseTitForTat cooperates first, then plays the opposite of the
// opponent's previous move.
type InverseTitForTat struct{}

// Decide implements ipd.Strategy.
func (InverseTitForTat) Decide(own, opponent ipd.History) ipd.Move {
	last, ok := opponent.Last()
	if !ok || last == d {
		return c
	}

	return d
}

func (InverseTitForTat) String() string { return "InverseTitForTat" }

// TitForNTats cooperates unless the opponent defected in each of the
// last N rounds. N < 1 is treated as 1, i.e. TitForTat after the opening.
type TitForNTats struct {
	N int
}

// Decide implements ipd.Strategy.
func (t TitForNTats) Decide(own, opponent ipd.History) ipd.Move {
	n := t.tats()
	if len(opponent) < n {
		return c
	}

	for _, m := range opponent[len(opponent)-n:] {
		if m != d {
			return c
		}
	}

	return d
}

func (t TitForNTats) String() string { return fmt.Sprintf("TitFor%dTats", t.tats()) }

// tats returns N, treating N < 1 as 1.
func (t TitForNTats) tats() int {
	if t.N < 1 {
		return 1
	}

	return t.N
}

// GrimTrigger cooperates until the opponent defects once, then defects forever.
type GrimTrigger struct{}

// Decide implements ipd.Strategy.
func (GrimTrigger) Decide(own, opponent ipd.History) ipd.Move {
	for _, m := range opponent {
		if m == d {
			return d
		}
	}

	return c
}

func (GrimTrigger) String() string { return "GrimTrigger" }

// WinStayLoseShift (Pavlov) cooperates first, repeats its previous move
// if both players made the same move, and switches otherwise.
type WinStayLoseShift struct{}

// Decide implements ipd.Strategy.
func (WinStayLoseShift) Decide(own, opponent ipd.History) ipd.Move {
	mine, ok := own.Last()
	if !ok {
		return c
	}

	theirs, _ := opponent.Last()
	if mine == theirs {
		return c
	}

	return d
}

func (WinStayLoseShift) String() string { return "WinStayLoseShift" }

var registry = map[string]ipd.Strategy{
	"AllC":   AllCooperate{},
	"AllD":   AllDefect{},
	"TFT":    TitForTat{},
	"STFT":   SuspiciousTitForTat{},
	"ITFT":   InverseTitForTat{},
	"TF2T":   TitForNTats{N: 2},
	"Grim":   GrimTrigger{},
	"Pavlov": WinStayLoseShift{},
}

// Names returns the short names accepted by ByName, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// ByName returns the strategy registered under the given short name
// (e.g. "TFT") or full name (e.g. "TitForTat"), ignoring case.
// "TFnT" with a positive integer n returns TitForNTats{N: n}.
func ByName(name string) (ipd.Strategy, error) {
	for short, s := range registry {
		if strings.EqualFold(name, short) || strings.EqualFold(name, fmt.Sprint(s)) {
			return s, nil
		}
	}

	var n int
	upper := strings.ToUpper(name)
	if _, err := fmt.Sscanf(upper, "TF%dT", &n); err == nil && n > 0 && upper == fmt.Sprintf("TF%dT", n) {
		return TitForNTats{N: n}, nil
	}

	return nil, errors.Errorf("unknown strategy %q, expected one of %v", name, Names())
}
