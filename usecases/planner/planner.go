//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package planner implements the query planner from spec.md §4.2: a
// best-first search over ExecutionState, expanding IndexLookup,
// Filter, Sort and Limit transitions, returning every plan tying for
// minimum cost. The search shape (priority queue + closed set of
// fingerprints, expand-until-terminal) follows the teacher's own
// plan-comparison code in usecases/optimizer/ml_cost_model.go
// (ComparePlans, calculateCost) generalized from "compare two plans"
// to "search the whole plan space".
package planner

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/plan"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/costmodel"
)

// executionState is the planner's abstract progress marker toward
// satisfying a query (spec.md §4.2). Equality is structural over
// (eqSatisfied, rangeSatisfied, orderSatisfied, pathCovered,
// fieldsAvailable, limitApplied) — see fingerprint.
type executionState struct {
	eqSatisfied     map[model.FieldRef]bool
	rangeSatisfied  bool
	orderSatisfied  bool
	fieldsAvailable map[model.FieldRef]bool
	cardinality     float64
	pathCovered     int
	limitApplied    bool
}

func (s executionState) clone() executionState {
	eq := make(map[model.FieldRef]bool, len(s.eqSatisfied))
	for k := range s.eqSatisfied {
		eq[k] = true
	}
	fa := make(map[model.FieldRef]bool, len(s.fieldsAvailable))
	for k := range s.fieldsAvailable {
		fa[k] = true
	}
	s.eqSatisfied = eq
	s.fieldsAvailable = fa
	return s
}

func refKeys(set map[model.FieldRef]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, fmt.Sprintf("%d.%d", k.Entity, k.Field))
	}
	sort.Strings(out)
	return out
}

// fingerprint is the closed-set key: it excludes cardinality, which is
// a cost-relevant quantity but not part of the state's identity.
func (s executionState) fingerprint() string {
	return fmt.Sprintf("eq=%v|range=%v|order=%v|path=%d|avail=%v|limit=%v",
		refKeys(s.eqSatisfied), s.rangeSatisfied, s.orderSatisfied, s.pathCovered, refKeys(s.fieldsAvailable), s.limitApplied)
}

func (s executionState) terminal(q *statement.Query) bool {
	if len(s.eqSatisfied) < len(q.EqualityFields()) {
		return false
	}
	if _, hasRange := q.RangeField(); hasRange && !s.rangeSatisfied {
		return false
	}
	if len(q.OrderBy) > 0 && !s.orderSatisfied {
		return false
	}
	for _, f := range q.Select {
		if !s.fieldsAvailable[f] {
			return false
		}
	}
	if q.Limit != nil && !s.limitApplied {
		return false
	}
	return true
}

// searchNode is one entry in the priority queue: a partial plan plus
// the state it has reached.
type searchNode struct {
	state executionState
	steps []plan.Step
	cost  float64
	index int // heap bookkeeping
}

type nodeQueue []*searchNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return len(q[i].steps) < len(q[j].steps) // stable secondary key, per spec.md §5
}
func (q nodeQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *nodeQueue) Push(x interface{}) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Planner searches for minimum-cost plans over a fixed candidate index
// set and cost model.
type Planner struct {
	Model     *model.Model
	CostModel costmodel.CostModel
}

// New builds a Planner.
func New(m *model.Model, cm costmodel.CostModel) *Planner {
	return &Planner{Model: m, CostModel: cm}
}

// Plan returns every minimum-cost plan for q given the candidate index
// set indexes, or a nerr.NoPlan error if the search space is exhausted
// without reaching a terminal state.
func (p *Planner) Plan(q *statement.Query, indexes *index.Set) ([]*plan.Plan, error) {
	eqFields := q.EqualityFields()
	rangeField, hasRange := q.RangeField()

	initial := executionState{
		eqSatisfied:     make(map[model.FieldRef]bool),
		fieldsAvailable: make(map[model.FieldRef]bool),
		cardinality:     q.Cardinality,
	}
	if !hasRange {
		initial.rangeSatisfied = true
	}
	if len(q.OrderBy) == 0 {
		initial.orderSatisfied = true
	}

	pq := &nodeQueue{}
	heap.Init(pq)
	heap.Push(pq, &searchNode{state: initial})

	visited := make(map[string]float64)
	var results []*plan.Plan
	bestCost := -1.0

	candidates := indexes.Sorted() // deterministic order, spec.md §5

	for pq.Len() > 0 {
		node := heap.Pop(pq).(*searchNode)

		if bestCost >= 0 && node.cost > bestCost {
			break // everything remaining costs at least this much; done
		}

		if node.state.terminal(q) {
			if bestCost < 0 {
				bestCost = node.cost
			}
			if node.cost == bestCost {
				results = append(results, &plan.Plan{Steps: node.steps, Cost: node.cost})
			}
			continue
		}

		fp := node.state.fingerprint()
		if prev, ok := visited[fp]; ok && node.cost > prev {
			continue
		}
		visited[fp] = node.cost

		for _, ix := range candidates {
			if next, step, ok := p.tryIndexLookup(q, node.state, ix, eqFields); ok {
				p.pushNode(pq, node, next, step)
			}
		}
		if next, step, ok := p.tryFilter(q, node.state, eqFields, rangeField, hasRange); ok {
			p.pushNode(pq, node, next, step)
		}
		if next, step, ok := p.trySort(q, node.state); ok {
			p.pushNode(pq, node, next, step)
		}
		if next, step, ok := p.tryLimit(q, node.state); ok {
			p.pushNode(pq, node, next, step)
		}
	}

	if len(results) == 0 {
		return nil, nerr.NoPlan{Query: q.String()}
	}
	return results, nil
}

func (p *Planner) pushNode(pq *nodeQueue, node *searchNode, next executionState, step plan.Step) {
	ctx := costmodel.StepContext{InputCardinality: node.state.cardinality, OutputCardinality: next.cardinality}
	cost := node.cost + p.CostModel.StepCost(step, ctx)
	steps := make([]plan.Step, len(node.steps)+1)
	copy(steps, node.steps)
	steps[len(node.steps)] = step
	heap.Push(pq, &searchNode{state: next, steps: steps, cost: cost})
}

// tryIndexLookup applies ix if compatible with the remaining path to
// cover and with eq fields satisfiable from the query's own equality
// predicates (spec.md §4.2's IndexLookup transition).
func (p *Planner) tryIndexLookup(q *statement.Query, s executionState, ix *index.Index, eqFields []model.FieldRef) (executionState, plan.Step, bool) {
	if s.pathCovered >= len(q.Path) {
		return executionState{}, nil, false
	}
	if len(ix.Path) == 0 || s.pathCovered+len(ix.Path) > len(q.Path) {
		return executionState{}, nil, false
	}
	for i, e := range ix.Path {
		if q.Path[s.pathCovered+i] != e {
			return executionState{}, nil, false
		}
	}

	eqSet := make(map[model.FieldRef]bool, len(eqFields))
	for _, f := range eqFields {
		eqSet[f] = true
	}
	for _, h := range ix.Hash {
		if !s.eqSatisfied[h] && !eqSet[h] {
			return executionState{}, nil, false
		}
	}

	next := s.clone()
	var newEq []model.FieldRef
	for _, h := range ix.Hash {
		if eqSet[h] && !next.eqSatisfied[h] {
			next.eqSatisfied[h] = true
			newEq = append(newEq, h)
		}
	}
	for _, f := range ix.AllFields() {
		next.fieldsAvailable[f] = true
	}

	var rangeRef *model.FieldRef
	if rf, hasRange := q.RangeField(); hasRange && !s.rangeSatisfied {
		for _, o := range ix.Order {
			if o == rf {
				next.rangeSatisfied = true
				r := rf
				rangeRef = &r
				break
			}
		}
	}

	if !s.orderSatisfied && len(q.OrderBy) > 0 && isOrderPrefix(ix.Order, q.OrderBy) {
		next.orderSatisfied = true
	}

	lastEntity, _ := p.Model.EntityByID(ix.Path[len(ix.Path)-1])
	firstEntity, _ := p.Model.EntityByID(ix.Path[0])
	selectivity := joinSelectivity(newEq, firstEntity)
	next.cardinality = s.cardinality * (float64(lastEntity.Count) / float64(firstEntity.Count)) * selectivity
	next.pathCovered = s.pathCovered + len(ix.Path)

	step := &plan.IndexLookup{Index: ix, EqFields: newEq, RangeField: rangeRef, OrderBy: ix.Order, Limit: nil}
	return next, step, true
}

// joinSelectivity is the simple statistical model from spec.md §3: an
// equality predicate on the entity's identifier selects a single row;
// any other equality predicate is given a generic 10% selectivity;
// traversing with no new equality predicates does not narrow the
// cardinality further.
func joinSelectivity(newEq []model.FieldRef, entity *model.Entity) float64 {
	if len(newEq) == 0 {
		return 1.0
	}
	selectivity := 1.0
	for _, f := range newEq {
		if f.Entity == entity.ID && f.Field == entity.Identifier().ID {
			selectivity *= 1.0 / float64(entity.Count)
		} else {
			selectivity *= 0.1
		}
	}
	return selectivity
}

func isOrderPrefix(indexOrder, wanted []model.FieldRef) bool {
	if len(wanted) > len(indexOrder) {
		return false
	}
	for i, f := range wanted {
		if indexOrder[i] != f {
			return false
		}
	}
	return true
}

// tryFilter applies any predicate whose field is already available but
// not yet satisfied.
func (p *Planner) tryFilter(q *statement.Query, s executionState, eqFields []model.FieldRef, rangeField model.FieldRef, hasRange bool) (executionState, plan.Step, bool) {
	var remainingEq []model.FieldRef
	for _, f := range eqFields {
		if !s.eqSatisfied[f] && s.fieldsAvailable[f] {
			remainingEq = append(remainingEq, f)
		}
	}
	var remainingRange *model.FieldRef
	if hasRange && !s.rangeSatisfied && s.fieldsAvailable[rangeField] {
		r := rangeField
		remainingRange = &r
	}
	if len(remainingEq) == 0 && remainingRange == nil {
		return executionState{}, nil, false
	}

	next := s.clone()
	for _, f := range remainingEq {
		next.eqSatisfied[f] = true
	}
	if remainingRange != nil {
		next.rangeSatisfied = true
	}
	step := &plan.Filter{RemainingEq: remainingEq, RemainingRange: remainingRange}
	return next, step, true
}

// trySort applies an in-memory sort when the order-by fields are
// available but no index has yielded the required order.
func (p *Planner) trySort(q *statement.Query, s executionState) (executionState, plan.Step, bool) {
	if s.orderSatisfied || len(q.OrderBy) == 0 {
		return executionState{}, nil, false
	}
	for _, f := range q.OrderBy {
		if !s.fieldsAvailable[f] {
			return executionState{}, nil, false
		}
	}
	next := s.clone()
	next.orderSatisfied = true
	return next, &plan.Sort{Fields: q.OrderBy}, true
}

// PlanAll plans every query in queries against the same read-only
// index set, fanning out over a bounded worker pool and joining before
// returning — the one parallel opportunity the core's batch pipeline
// allows (spec.md §5: "embarrassingly parallel per-query plan search
// ... MAY parallelize over queries with worker threads sharing
// read-only candidate indexes, joining before SearchMILP runs").
// workers <= 0 sets no limit: one goroutine runs per query.
func (p *Planner) PlanAll(ctx context.Context, queries []*statement.Query, indexes *index.Set, workers int) (map[*statement.Query][]*plan.Plan, error) {
	results := make(map[*statement.Query][]*plan.Plan, len(queries))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, q := range queries {
		q := q
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			plans, err := p.Plan(q, indexes)
			if err != nil {
				return err
			}
			mu.Lock()
			results[q] = plans
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// tryLimit truncates the result in the terminal state for a query
// with a limit.
func (p *Planner) tryLimit(q *statement.Query, s executionState) (executionState, plan.Step, bool) {
	if q.Limit == nil || s.limitApplied {
		return executionState{}, nil, false
	}
	if len(s.eqSatisfied) < len(q.EqualityFields()) || !s.rangeSatisfied || !s.orderSatisfied {
		return executionState{}, nil, false
	}
	for _, f := range q.Select {
		if !s.fieldsAvailable[f] {
			return executionState{}, nil, false
		}
	}
	next := s.clone()
	next.limitApplied = true
	if float64(*q.Limit) < next.cardinality {
		next.cardinality = float64(*q.Limit)
	}
	return next, &plan.Limit{N: *q.Limit}, true
}
