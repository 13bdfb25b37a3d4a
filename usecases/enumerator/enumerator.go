//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package enumerator implements IndexEnumerator (spec.md §4.1): for a
// single query, every contiguous subpath is partitioned into
// hash/order/extra field groups; for a whole workload, the per-query
// candidates are unioned with the support-query candidates derived
// from every mutating statement. Grounded on the teacher's workload
// pattern analysis in usecases/optimizer/index_advisor.go
// (WorkloadAnalyzer.findMissingIndexes groups filters by property the
// same way this groups fields by subpath), generalized from "detect a
// missing index" to "enumerate every valid one".
package enumerator

import (
	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/entities/workload"
	"github.com/nose-project/nose/usecases/updateplanner"
)

// Enumerator generates candidate indexes from statements over a fixed
// model.
type Enumerator struct {
	Model *model.Model
}

// New builds an Enumerator over m.
func New(m *model.Model) *Enumerator {
	return &Enumerator{Model: m}
}

func fieldRefsOnPath(refs []model.FieldRef, p model.Path) []model.FieldRef {
	onPath := make(map[model.EntityID]bool, len(p))
	for _, e := range p {
		onPath[e] = true
	}
	var out []model.FieldRef
	for _, r := range refs {
		if onPath[r.Entity] {
			out = append(out, r)
		}
	}
	return out
}

func dedupRefs(refs []model.FieldRef) []model.FieldRef {
	seen := make(map[model.FieldRef]bool, len(refs))
	var out []model.FieldRef
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func subtractRefs(refs, remove []model.FieldRef) []model.FieldRef {
	rm := make(map[model.FieldRef]bool, len(remove))
	for _, r := range remove {
		rm[r] = true
	}
	var out []model.FieldRef
	for _, r := range refs {
		if !rm[r] {
			out = append(out, r)
		}
	}
	return out
}

// powerset returns every subset of refs, including the empty set. Only
// used over a query's own equality-predicate fields, which in
// practice number a handful, so the 2^n blowup is bounded.
func powerset(refs []model.FieldRef) [][]model.FieldRef {
	out := [][]model.FieldRef{{}}
	for _, r := range refs {
		n := len(out)
		for i := 0; i < n; i++ {
			next := make([]model.FieldRef, len(out[i])+1)
			copy(next, out[i])
			next[len(out[i])] = r
			out = append(out, next)
		}
	}
	return out
}

// IndexesForQuery enumerates every candidate index for q, per spec.md
// §4.1 steps 1-5.
func (e *Enumerator) IndexesForQuery(q *statement.Query) *index.Set {
	result := index.NewSet()

	eqFields := q.EqualityFields()
	rangeField, hasRange := q.RangeField()
	referenced := dedupRefs(append(append(append([]model.FieldRef{}, q.Select...), eqFields...), q.OrderBy...))
	if hasRange {
		referenced = dedupRefs(append(referenced, rangeField))
	}

	for _, subpath := range model.Subpaths(q.Path) {
		eqOnSub := fieldRefsOnPath(eqFields, subpath)
		firstEntity, _ := e.Model.EntityByID(subpath[0])
		identRef := model.FieldRef{Entity: subpath[0], Field: firstEntity.Identifier().ID}

		for _, base := range powerset(eqOnSub) {
			hash := append([]model.FieldRef{}, base...)
			if len(hash) == 0 {
				continue
			}

			var order []model.FieldRef
			if hasRange {
				if onSub := fieldRefsOnPath([]model.FieldRef{rangeField}, subpath); len(onSub) == 1 {
					order = append(order, rangeField)
				}
			}
			order = append(order, fieldRefsOnPath(q.OrderBy, subpath)...)

			// The identifier must land in H∪O (entities/index's New
			// enforces this), but forcing it into H would make the
			// candidate require an equality predicate q never supplies.
			// Put it in O instead whenever base doesn't already cover
			// it, so the index stays usable by a hash lookup keyed on
			// q's own equality fields (spec.md §8 S1/S2).
			inHash := false
			for _, h := range hash {
				if h == identRef {
					inHash = true
					break
				}
			}
			if !inHash {
				order = append(order, identRef)
			}

			order = dedupRefs(order)
			order = subtractRefs(order, hash)

			extra := subtractRefs(fieldRefsOnPath(referenced, subpath), append(append([]model.FieldRef{}, hash...), order...))

			ix, err := index.New(e.Model, hash, order, extra, subpath)
			if err != nil {
				continue // invalid combination, rejected per step 3
			}
			result.Add(ix)
		}
	}

	// Step 4: the materialized view of q always exists.
	if mv, err := e.materializedView(q); err == nil {
		result.Add(mv)
	}

	// Step 5: the simple (identity) index of every entity on the path.
	for _, eid := range q.Path {
		if ix, err := e.simpleIndex(eid); err == nil {
			result.Add(ix)
		}
	}

	return result
}

// materializedView builds the canonical index that answers q with a
// single lookup: H = equality fields, O = [range field?] ++ order_by
// ++ [path-start identifier, if not already in H], X = select ∪
// predicate fields \ (H∪O), over the whole path. The identifier is
// appended to O rather than dropped whenever q's equality predicate
// isn't already on it (spec.md §8 S1/S2), since every index must carry
// its path-start entity's identifier in H∪O.
func (e *Enumerator) materializedView(q *statement.Query) (*index.Index, error) {
	hash := dedupRefs(q.EqualityFields())
	var order []model.FieldRef
	if rf, ok := q.RangeField(); ok {
		order = append(order, rf)
	}
	order = append(order, q.OrderBy...)

	first := q.Path[0]
	firstEntity, ok := e.Model.EntityByID(first)
	if !ok {
		return nil, errNotFound(first)
	}
	identRef := model.FieldRef{Entity: first, Field: firstEntity.Identifier().ID}
	hashSet := make(map[model.FieldRef]bool, len(hash))
	for _, h := range hash {
		hashSet[h] = true
	}
	if !hashSet[identRef] {
		order = append(order, identRef)
	}

	order = dedupRefs(order)
	order = subtractRefs(order, hash)

	all := dedupRefs(append(append([]model.FieldRef{}, q.Select...), q.EqualityFields()...))
	if rf, ok := q.RangeField(); ok {
		all = dedupRefs(append(all, rf))
	}
	extra := subtractRefs(all, append(append([]model.FieldRef{}, hash...), order...))

	return index.New(e.Model, hash, order, extra, q.Path)
}

// simpleIndex builds the identity index of a single entity: H = {id},
// O = [], X = all other scalar (non-foreign-key) fields.
func (e *Enumerator) simpleIndex(eid model.EntityID) (*index.Index, error) {
	ent, ok := e.Model.EntityByID(eid)
	if !ok {
		return nil, errNotFound(eid)
	}
	hash := []model.FieldRef{{Entity: eid, Field: ent.Identifier().ID}}
	var extra []model.FieldRef
	for _, f := range ent.Fields() {
		if f.Identity || f.Kind == model.FieldForeignKey {
			continue
		}
		extra = append(extra, model.FieldRef{Entity: eid, Field: f.ID})
	}
	return index.New(e.Model, hash, nil, extra, model.Path{eid})
}

func errNotFound(eid model.EntityID) error {
	return &entityNotFoundErr{eid}
}

type entityNotFoundErr struct{ eid model.EntityID }

func (e *entityNotFoundErr) Error() string { return "entity not found in simple index construction" }

// IndexesForWorkload unions IndexesForQuery over every read query in
// w, plus the candidates generated from each mutating statement's
// support queries (spec.md §4.1, last paragraph).
func (e *Enumerator) IndexesForWorkload(w *workload.Workload, up *updateplanner.UpdatePlanner) (*index.Set, error) {
	result := index.NewSet()

	for _, ws := range w.Statements {
		if q, ok := ws.Statement.(*statement.Query); ok {
			result.Union(e.IndexesForQuery(q))
		}
	}

	for _, ws := range w.Statements {
		if statement.IsMutating(ws.Statement) {
			supportQueries, err := up.SupportQueries(ws.Statement, result)
			if err != nil {
				return nil, err
			}
			for _, sq := range supportQueries {
				result.Union(e.IndexesForQuery(sq))
			}
		}
	}

	return result, nil
}
