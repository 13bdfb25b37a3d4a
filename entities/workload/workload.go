//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package workload holds the weighted, optionally time-varying set of
// statements the advisor optimizes a schema for (spec.md §3, §6).
package workload

import (
	"github.com/nose-project/nose/entities/statement"
)

// WeightedStatement pairs a statement with the relative frequency it
// is issued at, and the mix label it belongs to (empty if the workload
// is not time-varying).
type WeightedStatement struct {
	Statement statement.Statement
	Weight    float64
	Mix       string
}

// Workload is the full set of weighted statements SearchMILP optimizes
// for in a single run.
type Workload struct {
	Statements []WeightedStatement
}

// New builds an empty Workload.
func New() *Workload {
	return &Workload{}
}

// Add appends a statement with the given weight to the default
// (unnamed) mix.
func (w *Workload) Add(s statement.Statement, weight float64) *Workload {
	w.Statements = append(w.Statements, WeightedStatement{Statement: s, Weight: weight})
	return w
}

// AddToMix appends a statement with the given weight to a named mix,
// the unit spec.md §6's TimeVaryingWorkload assigns indexes a budget
// window by.
func (w *Workload) AddToMix(s statement.Statement, weight float64, mix string) *Workload {
	w.Statements = append(w.Statements, WeightedStatement{Statement: s, Weight: weight, Mix: mix})
	return w
}

// Queries returns every read statement in the workload.
func (w *Workload) Queries() []*statement.Query {
	var out []*statement.Query
	for _, ws := range w.Statements {
		if q, ok := ws.Statement.(*statement.Query); ok {
			out = append(out, q)
		}
	}
	return out
}

// Mutations returns every data-modifying statement in the workload.
func (w *Workload) Mutations() []statement.Statement {
	var out []statement.Statement
	for _, ws := range w.Statements {
		if statement.IsMutating(ws.Statement) {
			out = append(out, ws.Statement)
		}
	}
	return out
}

// Mixes returns the distinct, non-empty mix labels present in the
// workload, in first-seen order.
func (w *Workload) Mixes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ws := range w.Statements {
		if ws.Mix == "" || seen[ws.Mix] {
			continue
		}
		seen[ws.Mix] = true
		out = append(out, ws.Mix)
	}
	return out
}

// TimeVarying reports whether any statement carries a mix label,
// spec.md §6's condition for running SearchMILP once per time step
// instead of once overall.
func (w *Workload) TimeVarying() bool {
	return len(w.Mixes()) > 0
}

// ForMix returns the sub-workload of statements belonging to mix
// (statements with no mix label are included in every mix, since they
// represent workload-wide housekeeping queries).
func (w *Workload) ForMix(mix string) *Workload {
	out := New()
	for _, ws := range w.Statements {
		if ws.Mix == "" || ws.Mix == mix {
			out.Statements = append(out.Statements, ws)
		}
	}
	return out
}
