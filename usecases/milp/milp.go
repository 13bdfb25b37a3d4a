//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package milp implements SearchMILP (spec.md §4.5): the final index
// and plan selection step, expressed as a 0/1 program over index
// inclusion variables and solved with a branch-and-bound search.
//
// No library in the example pack provides LP/MILP solving (there is
// no gonum/lp_solve/glpk/or-tools/CBC binding anywhere in the
// retrieval set), so this solver is hand-rolled — the one core
// component built on the standard library alone, by necessity rather
// than preference. It is structured the way the teacher structures
// its own search code (usecases/optimizer/index_advisor.go scores and
// ranks candidates iteratively; this explores and prunes a tree of
// candidates the same way).
package milp

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/plan"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/costmodel"
	"github.com/nose-project/nose/usecases/updateplanner"
)

// Problem is SearchMILP's input: the complete candidate universe, the
// plans available per query, the update plans available per mutating
// statement, statement weights, and the storage budget (C4).
type Problem struct {
	Indexes          []*index.Index
	Queries          []*statement.Query
	PlansByQuery     map[*statement.Query][]*plan.Plan
	Mutations        []statement.Statement
	UpdatePlans      map[statement.Statement][]*updateplanner.UpdatePlan
	Weight           map[statement.Statement]float64
	StorageBudget    int64
	CostModel        costmodel.CostModel
}

// Solution is SearchMILP's output: the chosen indexes and, per
// statement, the plan or update plan selected against them.
type Solution struct {
	ChosenIndexes    []*index.Index
	ChosenPlan       map[*statement.Query]*plan.Plan
	ChosenUpdatePlan map[statement.Statement][]*updateplanner.UpdatePlan
	TotalCost        float64
}

// Solve runs branch-and-bound over index-inclusion variables x_i,
// deriving y_{q,p} and u_{m,i} deterministically from each candidate
// assignment (spec.md §4.5): since a plan is usable (C2) only when all
// of its indexes are chosen, and an update variable u_{m,i} always
// equals x_i (C3), the only real search is over which indexes to
// materialize.
func Solve(ctx context.Context, p Problem) (*Solution, error) {
	indexes := sortedCopy(p.Indexes)
	n := len(indexes)

	s := &solver{p: p, indexes: indexes, bestCost: -1}
	chosen := make([]bool, n)
	s.recurse(ctx, 0, chosen, 0)

	if s.best == nil {
		return nil, errors.Wrap(nerr.NoSolution{Kind: nerr.NoSolutionCoverage}, "search milp")
	}
	return s.best, nil
}

type solver struct {
	p        Problem
	indexes  []*index.Index
	best     *Solution
	bestCost float64
}

func (s *solver) recurse(ctx context.Context, i int, chosen []bool, size int64) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	if i == len(s.indexes) {
		s.evaluate(chosen)
		return
	}

	// Exclude indexes[i].
	s.recurse(ctx, i+1, chosen, size)

	// Include indexes[i], if the storage budget allows it (C4).
	nextSize := size + s.indexes[i].Size()
	if nextSize <= s.p.StorageBudget {
		chosen[i] = true
		s.recurse(ctx, i+1, chosen, nextSize)
		chosen[i] = false
	}
}

func (s *solver) evaluate(chosen []bool) {
	chosenSet := make(map[string]bool, len(s.indexes))
	var chosenIndexes []*index.Index
	var size int64
	for i, on := range chosen {
		if on {
			chosenSet[s.indexes[i].Key()] = true
			chosenIndexes = append(chosenIndexes, s.indexes[i])
			size += s.indexes[i].Size()
		}
	}

	total := 0.0
	chosenPlan := make(map[*statement.Query]*plan.Plan, len(s.p.Queries))
	for _, q := range s.p.Queries {
		best := bestUsablePlan(s.p.PlansByQuery[q], chosenSet)
		if best == nil {
			return // C5 violated: q has no usable plan under this assignment
		}
		chosenPlan[q] = best
		total += s.p.Weight[q] * best.Cost
	}

	chosenUpdatePlans := make(map[statement.Statement][]*updateplanner.UpdatePlan, len(s.p.Mutations))
	for _, m := range s.p.Mutations {
		var active []*updateplanner.UpdatePlan
		for _, up := range s.p.UpdatePlans[m] {
			if !chosenSet[up.Index.Key()] {
				continue
			}
			active = append(active, up)
			total += s.p.Weight[m] * updateCost(s.p.CostModel, up)
		}
		chosenUpdatePlans[m] = active
	}

	if s.best != nil && !better(total, size, chosenIndexes, s.bestCost, s.bestSize(), s.best.ChosenIndexes) {
		return
	}

	s.best = &Solution{
		ChosenIndexes:    chosenIndexes,
		ChosenPlan:       chosenPlan,
		ChosenUpdatePlan: chosenUpdatePlans,
		TotalCost:        total,
	}
	s.bestCost = total
}

func (s *solver) bestSize() int64 {
	var size int64
	if s.best == nil {
		return 0
	}
	for _, ix := range s.best.ChosenIndexes {
		size += ix.Size()
	}
	return size
}

// better reports whether (cost, size, indexes) improves on
// (bestCost, bestSize, bestIndexes): lower cost wins; ties are broken
// by smaller total size, then lexicographically by the sorted set of
// chosen index keys (spec.md §4.5).
func better(cost float64, size int64, indexes []*index.Index, bestCost float64, bestSize int64, bestIndexes []*index.Index) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	if size != bestSize {
		return size < bestSize
	}
	return keyString(indexes) < keyString(bestIndexes)
}

func keyString(indexes []*index.Index) string {
	keys := make([]string, len(indexes))
	for i, ix := range indexes {
		keys[i] = ix.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// bestUsablePlan returns the lowest-cost plan in plans whose indexes
// are all in chosenSet, breaking ties by input order (plans already
// arrive in best-first order from the planner, spec.md §5).
func bestUsablePlan(plans []*plan.Plan, chosenSet map[string]bool) *plan.Plan {
	var best *plan.Plan
	for _, p := range plans {
		usable := true
		for _, ix := range p.IndexesUsed() {
			if !chosenSet[ix.Key()] {
				usable = false
				break
			}
		}
		if !usable {
			continue
		}
		if best == nil || p.Cost < best.Cost {
			best = p
		}
	}
	return best
}

func sortedCopy(indexes []*index.Index) []*index.Index {
	out := make([]*index.Index, len(indexes))
	copy(out, indexes)
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// updateCost estimates the cost of applying an UpdatePlan's steps,
// reusing the plan cost model via a stand-in IndexLookup step sized by
// the support query's cardinality (one row when there is none).
func updateCost(cm costmodel.CostModel, up *updateplanner.UpdatePlan) float64 {
	card := 1.0
	if up.SupportQuery != nil {
		card = up.SupportQuery.Cardinality
	}
	ctx := costmodel.StepContext{InputCardinality: card, OutputCardinality: card}

	total := 0.0
	for _, step := range up.Steps {
		switch step.(type) {
		case *updateplanner.InsertStep:
			total += cm.StepCost(&plan.IndexLookup{Index: up.Index}, ctx)
		case *updateplanner.DeleteStep:
			total += cm.StepCost(&plan.IndexLookup{Index: up.Index}, ctx)
		}
	}
	return total
}
