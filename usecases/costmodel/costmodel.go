//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package costmodel provides the pluggable per-step cost function from
// spec.md §4.4, adapted from the teacher's usecases/optimizer
// MLCostModel: there the cost of an Operator is a function of its
// estimated cardinality and a table of CostFactors; here the cost of a
// plan.Step is a function of the rows it touches and a similar factor
// table, without the ML cardinality estimator (spec.md's simple
// statistical model is used instead, per Non-goals).
package costmodel

import (
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/plan"
)

// StepContext carries the cardinality the planner has computed for a
// step: how many rows enter it and how many leave it.
type StepContext struct {
	InputCardinality  float64
	OutputCardinality float64
}

// CostModel assigns a nonnegative cost to a single plan step. Costs
// are additive across steps and, in usecases/milp, multiplicative over
// statement weight when aggregated into the objective (spec.md §4.4).
type CostModel interface {
	Name() string
	StepCost(step plan.Step, ctx StepContext) float64
}

// EntryCount is a reference cost model proportional to rows touched.
type EntryCount struct{}

func (EntryCount) Name() string { return "entry_count" }

func (EntryCount) StepCost(step plan.Step, ctx StepContext) float64 {
	switch step.(type) {
	case *plan.IndexLookup:
		return ctx.InputCardinality
	case *plan.Filter:
		return ctx.InputCardinality
	case *plan.Sort:
		return ctx.InputCardinality
	case *plan.Limit:
		return ctx.OutputCardinality
	default:
		return 0
	}
}

// FieldSize is a reference cost model proportional to bytes read or
// written. It needs the model to look up field sizes for steps that
// are not index lookups (whose entry size is already eager on the
// Index value).
type FieldSize struct {
	Model *model.Model
}

func (FieldSize) Name() string { return "field_size" }

func fieldsSize(m *model.Model, refs []model.FieldRef) int64 {
	var total int64
	for _, r := range refs {
		e, ok := m.EntityByID(r.Entity)
		if !ok {
			continue
		}
		f, ok := e.FieldByID(r.Field)
		if !ok {
			continue
		}
		total += int64(f.Size)
	}
	return total
}

func (c FieldSize) StepCost(step plan.Step, ctx StepContext) float64 {
	switch s := step.(type) {
	case *plan.IndexLookup:
		return ctx.InputCardinality * float64(s.Index.EntrySize())
	case *plan.Filter:
		fields := append(append([]model.FieldRef{}, s.RemainingEq...))
		if s.RemainingRange != nil {
			fields = append(fields, *s.RemainingRange)
		}
		return ctx.InputCardinality * float64(fieldsSize(c.Model, fields))
	case *plan.Sort:
		return ctx.InputCardinality * float64(fieldsSize(c.Model, s.Fields))
	case *plan.Limit:
		return ctx.OutputCardinality
	default:
		return 0
	}
}
