package ipd

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// Number of nodes expanded between cancellation checks.
	nodeCheckInterval = 4096
	// Progress is logged every 2^20 branches.
	progressMask = 1<<20 - 1
)

var errBranchBudget = errors.New("branch budget exhausted")

// BoundedCalculator computes expected payoffs by enumerating the tree of
// joint mistake outcomes round by round, pruning every branch whose
// probability is too small for it to contribute more than Epsilon.
//
// Each node of the tree is one combination of mistakes over all rounds
// played so far. In every round each player either plays the move its
// strategy proposed, with probability 1-γ, or one of the other moves of
// the alphabet, each with probability γ/(k-1) for an alphabet of size k.
// For the binary Prisoner's Dilemma alphabet this is exactly "the other
// move". A round reached with probability p and outcome probability q is
// weighted by w = p*q, and its continuation into the next round by w*δ.
// A branch is pruned when w * MaxAbs() <= Epsilon; because w shrinks by
// at least a factor δ per round, every path is eventually pruned.
//
// The four sibling outcomes of a node are always accumulated in the order
// (no, no), (mistake, no), (no, mistake), (mistake, mistake). Across
// nodes the summation order depends on the parallel decomposition, so
// results computed with different NumWorkers or SplitThreshold may differ
// in the last few bits. This is expected and not a correctness issue.
type BoundedCalculator struct {
	matrix *PayoffMatrix
	params CalculatorParams
}

// NewBoundedCalculator returns a calculator for the given stage game.
func NewBoundedCalculator(m *PayoffMatrix, params CalculatorParams) (*BoundedCalculator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &BoundedCalculator{
		matrix: m,
		params: params.withDefaults(),
	}, nil
}

// Calculate returns the expected payoffs of s1 and s2.
//
// Cancelling ctx abandons the calculation and discards all partial sums.
// If ctx's deadline passes or MaxBranches is exhausted first, the returned
// error matches ErrConvergenceNotReached.
func (c *BoundedCalculator) Calculate(ctx context.Context, s1, s2 Strategy) (Result, error) {
	var expanded int64
	root := searchNode{prob: 1.0}

	// Expand breadth first until the frontier is wide enough to share.
	coordinator := c.newExpander(s1, s2, &expanded)
	frontier := []searchNode{root}
	if c.params.NumWorkers > 1 {
		var err error
		frontier, err = c.expandFrontier(ctx, coordinator, frontier)
		if err != nil {
			return Result{}, c.wrapError(ctx, err, coordinator)
		}
	}

	workers, err := c.expandSubtrees(ctx, s1, s2, frontier, &expanded)
	if err != nil {
		return Result{}, c.wrapError(ctx, err, coordinator)
	}

	for _, w := range workers {
		coordinator.merge(w)
	}

	result := coordinator.result()
	glog.Infof("Bounded calculation: %d branches, %d pruned, payoff=%v, error bound=%v",
		result.Branches, result.Pruned, result.Payoff, result.ErrorBound)
	return result, nil
}

func (c *BoundedCalculator) expandFrontier(ctx context.Context, e *expander, queue []searchNode) ([]searchNode, error) {
	head := 0
	push := func(n searchNode) { queue = append(queue, n) }
	for head < len(queue) && len(queue)-head < c.params.SplitThreshold {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := queue[head]
		queue[head] = searchNode{}
		head++
		if err := e.expand(node, push); err != nil {
			return nil, err
		}
	}

	glog.V(1).Infof("Sharing %d subtrees among %d workers", len(queue)-head, c.params.NumWorkers)
	return queue[head:], nil
}

// expandSubtrees expands every frontier node to completion. Subtrees are
// handed out through a channel so each is owned by exactly one worker.
func (c *BoundedCalculator) expandSubtrees(ctx context.Context, s1, s2 Strategy, frontier []searchNode, expanded *int64) ([]*expander, error) {
	nWorkers := c.params.NumWorkers
	if nWorkers > len(frontier) {
		nWorkers = len(frontier)
	}

	subtrees := make(chan searchNode, len(frontier))
	for _, node := range frontier {
		subtrees <- node
	}
	close(subtrees)

	workers := make([]*expander, nWorkers)
	g, gCtx := errgroup.WithContext(ctx)
	for i := range workers {
		e := c.newExpander(s1, s2, expanded)
		workers[i] = e
		g.Go(func() error {
			var stack []searchNode
			push := func(n searchNode) { stack = append(stack, n) }
			for subtree := range subtrees {
				stack = append(stack[:0], subtree)
				for n := 0; len(stack) > 0; n++ {
					if n%nodeCheckInterval == 0 {
						if err := gCtx.Err(); err != nil {
							return err
						}
					}

					node := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					mark := len(stack)
					if err := e.expand(node, push); err != nil {
						return err
					}

					// Children were pushed in canonical order; reverse them so
					// the first outcome is expanded first.
					reverse(stack[mark:])
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return workers, nil
}

func (c *BoundedCalculator) wrapError(ctx context.Context, err error, e *expander) error {
	switch {
	case err == errBranchBudget:
		return errors.WithStack(&ConvergenceError{
			Partial: e.result(),
			Reason:  "max branches exhausted before reaching epsilon",
		})
	case ctx.Err() == context.DeadlineExceeded:
		return errors.WithStack(&ConvergenceError{
			Partial: e.result(),
			Reason:  "deadline exceeded before reaching epsilon",
			Cause:   ctx.Err(),
		})
	}

	return errors.Wrap(err, "bounded calculation failed")
}

func (c *BoundedCalculator) newExpander(s1, s2 Strategy, expanded *int64) *expander {
	return &expander{
		s1:       s1,
		s2:       s2,
		matrix:   c.matrix,
		params:   c.params,
		maxAbs:   c.matrix.MaxAbs(),
		expanded: expanded,
		pool:     &historyPool{},
	}
}

// searchNode is a pending branch: the probability of reaching its next
// round and the moves played so far.
type searchNode struct {
	prob float64
	hist *historyLink
}

// historyLink is one round of a branch's history. Sibling branches share
// the links of their common prefix.
type historyLink struct {
	parent *historyLink
	m1, m2 Move
	depth  int
}

func (l *historyLink) len() int {
	if l == nil {
		return 0
	}

	return l.depth
}

// materialize writes the histories ending at l into h1 and h2,
// which must have length l.len().
func (l *historyLink) materialize(h1, h2 History) {
	for ; l != nil; l = l.parent {
		h1[l.depth-1] = l.m1
		h2[l.depth-1] = l.m2
	}
}

type choice struct {
	move Move
	prob float64
}

// expander expands nodes and accumulates their contributions.
// It is owned by a single goroutine.
type expander struct {
	s1, s2 Strategy
	matrix *PayoffMatrix
	params CalculatorParams
	maxAbs float64

	payoff     [2]compensatedSum
	prunedMass compensatedSum
	branches   int64
	pruned     int64

	// Shared count of branches across all expanders, for MaxBranches.
	expanded *int64

	pool               *historyPool
	choices1, choices2 []choice
}

func (e *expander) expand(node searchNode, push func(searchNode)) error {
	depth := node.hist.len()
	h1, h2 := e.pool.alloc(depth), e.pool.alloc(depth)
	node.hist.materialize(h1, h2)
	proposed1 := e.s1.Decide(h1, h2)
	proposed2 := e.s2.Decide(h2, h1)
	e.pool.free(h1)
	e.pool.free(h2)

	var err error
	if e.choices1, err = e.choices(e.choices1[:0], proposed1); err != nil {
		return err
	}

	if e.choices2, err = e.choices(e.choices2[:0], proposed2); err != nil {
		return err
	}

	for _, c2 := range e.choices2 {
		for _, c1 := range e.choices1 {
			w := node.prob * c1.prob * c2.prob
			if w*e.maxAbs <= e.params.Epsilon {
				e.pruned++
				e.prunedMass.add(w)
				continue
			}

			p, err := e.matrix.Payoff(c1.move, c2.move)
			if err != nil {
				return err
			}

			e.payoff[0].add(w * p[0])
			e.payoff[1].add(w * p[1])
			e.branches++
			if err := e.count(); err != nil {
				return err
			}

			// Every child of a continuation this unlikely would be pruned,
			// so prune the whole continuation now.
			next := w * e.params.Continuation
			if next*e.maxAbs <= e.params.Epsilon {
				e.pruned++
				e.prunedMass.add(next)
				continue
			}

			push(searchNode{
				prob: next,
				hist: &historyLink{parent: node.hist, m1: c1.move, m2: c2.move, depth: depth + 1},
			})
		}
	}

	return nil
}

// choices lists the moves a player may actually make when proposing
// proposed: the proposal itself first, then every other move of the
// alphabet in declared order. Zero-probability choices are omitted.
func (e *expander) choices(dst []choice, proposed Move) ([]choice, error) {
	if !e.matrix.Contains(proposed) {
		return dst, domainErrorf("strategy proposed move %v outside alphabet %v",
			proposed, History(e.matrix.Alphabet()))
	}

	gamma := e.params.Mistake
	dst = append(dst, choice{proposed, 1 - gamma})
	if gamma == 0 {
		return dst, nil
	}

	alphabet := e.matrix.Alphabet()
	share := gamma / float64(len(alphabet)-1)
	for _, m := range alphabet {
		if m != proposed {
			dst = append(dst, choice{m, share})
		}
	}

	return dst, nil
}

func (e *expander) count() error {
	n := atomic.AddInt64(e.expanded, 1)
	if n&progressMask == 0 {
		glog.V(1).Infof("Expanded %d branches", n)
	}

	if e.params.MaxBranches > 0 && n > e.params.MaxBranches {
		return errBranchBudget
	}

	return nil
}

func (e *expander) merge(other *expander) {
	e.payoff[0].add(other.payoff[0].value())
	e.payoff[1].add(other.payoff[1].value())
	e.prunedMass.add(other.prunedMass.value())
	e.branches += other.branches
	e.pruned += other.pruned
}

func (e *expander) result() Result {
	result := Result{
		Payoff:     [2]float64{e.payoff[0].value(), e.payoff[1].value()},
		Branches:   e.branches,
		Pruned:     e.pruned,
		PrunedMass: e.prunedMass.value(),
	}

	// A pruned branch contributes at most w*maxAbs in each remaining round,
	// and the remaining rounds sum to at most 1/(1-δ).
	result.ErrorBound = result.PrunedMass * e.maxAbs * e.params.ExpectedLength()
	result.scale(e.params.scale())
	return result
}

// compensatedSum is a Neumaier (improved Kahan) running sum.
type compensatedSum struct {
	sum, c float64
}

func (s *compensatedSum) add(x float64) {
	t := s.sum + x
	if math.Abs(s.sum) >= math.Abs(x) {
		s.c += (s.sum - t) + x
	} else {
		s.c += (x - t) + s.sum
	}
	s.sum = t
}

func (s compensatedSum) value() float64 {
	return s.sum + s.c
}

func reverse(nodes []searchNode) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}
