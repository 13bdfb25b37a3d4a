//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package plan defines the query/update execution plan data model: the
// four plan step kinds from spec.md §4.2 and the Plan descriptor the
// planner emits for a statement over a chosen index set.
package plan

import (
	"fmt"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
)

// StepKind discriminates the Step sum type.
type StepKind int

const (
	StepIndexLookup StepKind = iota
	StepFilter
	StepSort
	StepLimit
)

func (k StepKind) String() string {
	switch k {
	case StepIndexLookup:
		return "IndexLookup"
	case StepFilter:
		return "Filter"
	case StepSort:
		return "Sort"
	case StepLimit:
		return "Limit"
	default:
		return "Unknown"
	}
}

// Step is one stage of a query or update plan.
type Step interface {
	Kind() StepKind
	String() string
	stepNode()
}

// IndexLookup fetches rows from Index using EqFields (all must be in
// Index.Hash) and, optionally, a range predicate on a field in
// Index.Order. It may return rows sorted by a prefix of Index.Order.
type IndexLookup struct {
	Index      *index.Index
	EqFields   []model.FieldRef
	RangeField *model.FieldRef
	OrderBy    []model.FieldRef
	Limit      *int
}

func (s *IndexLookup) Kind() StepKind { return StepIndexLookup }
func (s *IndexLookup) stepNode()      {}
func (s *IndexLookup) String() string {
	return fmt.Sprintf("IndexLookup(%s, eq=%v, range=%v, order=%v)", s.Index.Key()[:8], s.EqFields, s.RangeField, s.OrderBy)
}

// Filter is applied in memory when the chosen index cannot enforce a
// predicate itself.
type Filter struct {
	RemainingEq    []model.FieldRef
	RemainingRange *model.FieldRef
}

func (s *Filter) Kind() StepKind { return StepFilter }
func (s *Filter) stepNode()      {}
func (s *Filter) String() string {
	return fmt.Sprintf("Filter(eq=%v, range=%v)", s.RemainingEq, s.RemainingRange)
}

// Sort is applied in memory when the index does not yield the
// required order.
type Sort struct {
	Fields []model.FieldRef
}

func (s *Sort) Kind() StepKind { return StepSort }
func (s *Sort) stepNode()      {}
func (s *Sort) String() string { return fmt.Sprintf("Sort(%v)", s.Fields) }

// Limit truncates the final result to N rows.
type Limit struct {
	N int
}

func (s *Limit) Kind() StepKind { return StepLimit }
func (s *Limit) stepNode()      {}
func (s *Limit) String() string { return fmt.Sprintf("Limit(%d)", s.N) }

// Plan is a complete, costed sequence of steps answering one
// statement over one candidate index set.
type Plan struct {
	Steps []Step
	Cost  float64
}

// IndexesUsed returns the distinct indexes referenced by IndexLookup
// steps in the plan, the set SearchMILP's C2 constraint ties plan
// selection to.
func (p *Plan) IndexesUsed() []*index.Index {
	seen := make(map[string]bool)
	var out []*index.Index
	for _, s := range p.Steps {
		if lookup, ok := s.(*IndexLookup); ok {
			if !seen[lookup.Index.Key()] {
				seen[lookup.Index.Key()] = true
				out = append(out, lookup.Index)
			}
		}
	}
	return out
}
