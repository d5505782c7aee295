// Package tree walks the probability-weighted tree of mistake outcomes
// by plain recursion, copying histories at every node. It is far slower
// than ipd.BoundedCalculator and exists to cross-check it.
package tree

import (
	"github.com/timpalpant/go-ipd"
)

// Branch is one round of one path through the tree.
type Branch struct {
	// Weight is the probability that this round is played with these moves.
	Weight           float64
	Player1, Player2 ipd.History
}

// Game describes the tree to walk.
type Game struct {
	Matrix *ipd.PayoffMatrix
	Params ipd.GameParams
	// Epsilon is the pruning threshold, applied as in ipd.BoundedCalculator.
	Epsilon float64
}

// Visit calls visitor for every branch of the tree that survives pruning,
// parents before children.
func Visit(g Game, s1, s2 ipd.Strategy, visitor func(b Branch)) {
	visit(g, s1, s2, 1.0, nil, nil, visitor)
}

func visit(g Game, s1, s2 ipd.Strategy, p float64, h1, h2 ipd.History, visitor func(b Branch)) {
	a1, a2 := s1.Decide(h1, h2), s2.Decide(h2, h1)
	for _, o2 := range outcomes(g, a2) {
		for _, o1 := range outcomes(g, a1) {
			w := p * o1.p * o2.p
			if w*g.Matrix.MaxAbs() <= g.Epsilon {
				continue
			}

			c1 := append(append(ipd.History(nil), h1...), o1.move)
			c2 := append(append(ipd.History(nil), h2...), o2.move)
			visitor(Branch{Weight: w, Player1: c1, Player2: c2})
			visit(g, s1, s2, w*g.Params.Continuation, c1, c2, visitor)
		}
	}
}

type outcome struct {
	move ipd.Move
	p    float64
}

func outcomes(g Game, proposed ipd.Move) []outcome {
	gamma := g.Params.Mistake
	result := []outcome{{proposed, 1 - gamma}}
	alphabet := g.Matrix.Alphabet()
	for _, m := range alphabet {
		if m != proposed {
			result = append(result, outcome{m, gamma / float64(len(alphabet)-1)})
		}
	}

	return result
}

// CountBranches returns the number of branches that survive pruning.
func CountBranches(g Game, s1, s2 ipd.Strategy) int64 {
	var total int64
	Visit(g, s1, s2, func(b Branch) { total++ })
	return total
}

// ExpectedPayoff sums the weighted stage payoff of every surviving branch.
func ExpectedPayoff(g Game, s1, s2 ipd.Strategy) ([2]float64, error) {
	var total [2]float64
	var err error
	Visit(g, s1, s2, func(b Branch) {
		n := len(b.Player1) - 1
		p, perr := g.Matrix.Payoff(b.Player1[n], b.Player2[n])
		if perr != nil {
			err = perr
			return
		}

		total[0] += b.Weight * p[0]
		total[1] += b.Weight * p[1]
	})

	if g.Params.Normalize {
		total[0] *= 1 - g.Params.Continuation
		total[1] *= 1 - g.Params.Continuation
	}

	return total, err
}
