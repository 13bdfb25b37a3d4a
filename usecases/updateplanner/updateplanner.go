//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package updateplanner implements spec.md §4.3: for each mutating
// statement and each index it modifies, derive the support query that
// supplies the index's hash fields, and the insert/delete steps that
// consume it. Grounded on the teacher's usecases/optimizer
// index_advisor.go, which likewise pairs a detected schema change
// (MissingIndexPattern) with the read pattern that justified it; here
// the pairing runs the other way, from a write to the reads it forces.
package updateplanner

import (
	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/statement"
)

// UpdateStepKind discriminates the UpdateStep sum type.
type UpdateStepKind int

const (
	StepInsert UpdateStepKind = iota
	StepDelete
)

func (k UpdateStepKind) String() string {
	if k == StepInsert {
		return "InsertStep"
	}
	return "DeleteStep"
}

// UpdateStep is one physical mutation an affected index requires.
type UpdateStep interface {
	Kind() UpdateStepKind
	updateStepNode()
}

// InsertStep adds support-query rows, joined with the statement's
// settings, into Index.
type InsertStep struct{ Index *index.Index }

func (s *InsertStep) Kind() UpdateStepKind { return StepInsert }
func (s *InsertStep) updateStepNode()      {}

// DeleteStep removes support-query rows from Index.
type DeleteStep struct{ Index *index.Index }

func (s *DeleteStep) Kind() UpdateStepKind { return StepDelete }
func (s *DeleteStep) updateStepNode()      {}

// UpdatePlan is the per-(statement, index) outcome of update planning:
// the support query (nil if none was required) and the steps it
// feeds.
type UpdatePlan struct {
	Statement   statement.Statement
	Index       *index.Index
	SupportQuery *statement.Query
	Steps       []UpdateStep
}

// UpdatePlanner derives support queries and insert/delete steps for
// mutating statements over a fixed model.
type UpdatePlanner struct {
	Model *model.Model
}

// New builds an UpdatePlanner over m.
func New(m *model.Model) *UpdatePlanner {
	return &UpdatePlanner{Model: m}
}

func settingsFields(settings []statement.Setting) []model.FieldRef {
	out := make([]model.FieldRef, len(settings))
	for i, s := range settings {
		out[i] = s.FieldRef
	}
	return out
}

func allFieldRefs(e *model.Entity) []model.FieldRef {
	fields := e.Fields()
	out := make([]model.FieldRef, len(fields))
	for i, f := range fields {
		out[i] = model.FieldRef{Entity: e.ID, Field: f.ID}
	}
	return out
}

func refSet(refs []model.FieldRef) map[model.FieldRef]bool {
	out := make(map[model.FieldRef]bool, len(refs))
	for _, r := range refs {
		out[r] = true
	}
	return out
}

// targetOf returns the entity a mutating statement writes to, the
// fields its settings assign (none for deletes), its conditions, and
// its path. Modifies adds every field of the target entity for
// inserts and deletes (a whole row materializes or disappears).
func targetOf(s statement.Statement) (model.EntityID, []model.FieldRef, []statement.Condition, model.Path) {
	switch st := s.(type) {
	case *statement.Update:
		return st.Target, settingsFields(st.Settings), st.Conditions, st.Path
	case *statement.Insert:
		return st.Target, settingsFields(st.Settings), nil, model.Path{st.Target}
	case *statement.Delete:
		return st.Target, nil, st.Conditions, st.Path
	default:
		return 0, nil, nil, nil
	}
}

// Modifies reports whether m writes any field materialized by ix.
func (up *UpdatePlanner) Modifies(s statement.Statement, ix *index.Index) bool {
	target, settingFields, _, _ := targetOf(s)
	fields := settingFields
	if statement.IsMutating(s) {
		if _, isUpdate := s.(*statement.Update); !isUpdate {
			if e, ok := up.Model.EntityByID(target); ok {
				fields = append(append([]model.FieldRef{}, fields...), allFieldRefs(e)...)
			}
		}
	}
	ixFields := refSet(ix.AllFields())
	for _, f := range fields {
		if ixFields[f] {
			return true
		}
	}
	return false
}

func splicePath(ixPath model.Path, target model.EntityID, mPath model.Path) (model.Path, bool) {
	targetIdx := -1
	for i, e := range ixPath {
		if e == target {
			targetIdx = i
			break
		}
	}
	if targetIdx == -1 {
		return nil, false
	}
	out := append(model.Path{}, ixPath[:targetIdx+1]...)
	for i := len(mPath) - 2; i >= 0; i-- {
		out = append(out, mPath[i])
	}
	return out, true
}

// SupportQuery derives the single read query that supplies ix's hash
// fields for statement s, per spec.md §4.3 step 1. The query is seeded
// with s's conditions plus one equality condition per setting. It
// returns (nil, nil) when the required field set is empty, or when s
// has neither conditions nor settings to seed the query with. A seed
// without any equality condition (only range predicates) is rejected
// by statement.NewQuery and its error is returned.
//
// The spec leaves open whether support queries for multi-parent
// inserts should be one joined query or one per parent entity group;
// this always emits a single joined query (documented as an open
// question resolution).
func (up *UpdatePlanner) SupportQuery(s statement.Statement, ix *index.Index) (*statement.Query, error) {
	target, settingFields, conds, mPath := targetOf(s)

	supplied := refSet(settingFields)
	for _, c := range conds {
		if c.Op == statement.OpEq {
			supplied[c.FieldRef] = true
		}
	}

	var required []model.FieldRef
	for _, h := range ix.Hash {
		if !supplied[h] {
			required = append(required, h)
		}
	}
	if len(required) == 0 {
		return nil, nil
	}

	path, ok := splicePath(ix.Path, target, mPath)
	if !ok {
		return nil, errors.Wrapf(nerr.InvalidStatement{Reason: "index path does not contain statement target entity"}, "support query")
	}

	var seedConds []statement.Condition
	for _, c := range conds {
		seedConds = append(seedConds, c)
	}
	for _, f := range settingFields {
		seedConds = append(seedConds, statement.Condition{FieldRef: f, Op: statement.OpEq, HasValue: true})
	}
	if len(seedConds) == 0 {
		// No condition or setting to root a query at.
		return nil, nil
	}

	return statement.NewQuery(up.Model, path, required, seedConds, nil, nil)
}

// Plan derives the UpdatePlan for s against every index in candidates
// that s modifies, per spec.md §4.3 steps 1-3.
func (up *UpdatePlanner) Plan(s statement.Statement, candidates *index.Set) ([]*UpdatePlan, error) {
	var plans []*UpdatePlan
	for _, ix := range candidates.Sorted() {
		if !up.Modifies(s, ix) {
			continue
		}
		sq, err := up.SupportQuery(s, ix)
		if err != nil {
			return nil, err
		}

		p := &UpdatePlan{Statement: s, Index: ix, SupportQuery: sq}
		switch s.(type) {
		case *statement.Insert:
			p.Steps = append(p.Steps, &InsertStep{Index: ix})
		case *statement.Update:
			p.Steps = append(p.Steps, &InsertStep{Index: ix})
			if stillSatisfiesKeys(up.Model, ix, s) {
				// settings do not change any hash/order key; no row
				// relocation, so no delete is required.
			} else {
				p.Steps = append(p.Steps, &DeleteStep{Index: ix})
			}
		case *statement.Delete:
			p.Steps = append(p.Steps, &DeleteStep{Index: ix})
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// stillSatisfiesKeys reports whether an Update's settings leave ix's
// hash and order fields untouched, meaning the existing row stays at
// the same physical location and only needs InsertStep's overwrite
// semantics, not a DeleteStep relocation.
func stillSatisfiesKeys(m *model.Model, ix *index.Index, s statement.Statement) bool {
	u, ok := s.(*statement.Update)
	if !ok {
		return true
	}
	keyFields := refSet(append(append([]model.FieldRef{}, ix.Hash...), ix.Order...))
	for _, set := range u.Settings {
		if keyFields[set.FieldRef] {
			return false
		}
	}
	return true
}

// SupportQueries is a convenience used by usecases/enumerator to feed
// candidate support queries back into index enumeration (spec.md
// §4.1, last paragraph): every support query that would be required
// for s against any index currently in candidates.
func (up *UpdatePlanner) SupportQueries(s statement.Statement, candidates *index.Set) ([]*statement.Query, error) {
	var out []*statement.Query
	for _, ix := range candidates.Sorted() {
		if !up.Modifies(s, ix) {
			continue
		}
		sq, err := up.SupportQuery(s, ix)
		if err != nil {
			return nil, err
		}
		if sq != nil {
			out = append(out, sq)
		}
	}
	return out, nil
}
