//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package workloaddsl is the model-and-workload loader for spec.md
// §6's external DSL. The original DSL runs as Ruby instance_eval
// blocks (Entity/ForeignKey/(Entity ...) * N/Q/Group/TimeSteps/F); Go
// has no analogue for instance_eval, so this renders the same
// vocabulary as a fluent builder chain in the manner of
// entities/model's own Builder/EntityBuilder, with statement bodies
// parsed through usecases/parser rather than hand-assembled ASTs.
package workloaddsl

import (
	"fmt"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/workload"
	"github.com/nose-project/nose/usecases/parser"
)

type pendingStatement struct {
	src    string
	weight float64
	mix    string
}

// Builder accumulates a model (via its model.Builder field) and a
// set of weighted statement sources, deferring statement parsing until
// Build, once the model exists to resolve field references against.
type Builder struct {
	model *model.Builder
	stmts []pendingStatement
}

// New starts an empty workload/model builder.
func New() *Builder {
	return &Builder{model: model.NewBuilder()}
}

// Entity declares a new entity with an expected cardinality — the Go
// rendering of "(Entity "Name") * N".
func (b *Builder) Entity(name string, count int64) *model.EntityBuilder {
	return b.model.AddEntity(name, count)
}

// AddEntity registers a fully-built EntityBuilder back onto this
// workload builder and returns it for chaining further Entity calls.
func (b *Builder) AddEntity(eb *model.EntityBuilder) *Builder {
	eb.Done()
	return b
}

// Q adds a single weighted statement to the default (unlabeled) mix.
func (b *Builder) Q(src string, weight float64) *Builder {
	b.stmts = append(b.stmts, pendingStatement{src: src, weight: weight})
	return b
}

// Group scopes a set of weighted statements under a named mix label,
// the Go rendering of the DSL's `Group "label" do ... end` block.
func (b *Builder) Group(mix string, fn func(g *Group)) *Builder {
	fn(&Group{b: b, mix: mix})
	return b
}

// Group is the statement-adding scope inside a Group(...) call.
type Group struct {
	b   *Builder
	mix string
}

// Q adds a weighted statement to this group's mix.
func (g *Group) Q(src string, weight float64) *Group {
	g.b.stmts = append(g.b.stmts, pendingStatement{src: src, weight: weight, mix: g.mix})
	return g
}

// TimeSteps starts a time-varying workload section of n steps, the Go
// rendering of `TimeSteps N do ... end`.
func (b *Builder) TimeSteps(n int) *TimeVarying {
	return &TimeVarying{b: b, n: n}
}

// TimeVarying is the statement-adding scope inside a TimeSteps(...)
// call.
type TimeVarying struct {
	b *Builder
	n int
}

// F assigns one weight per time step to a statement, the Go rendering
// of `F stmt, [w0, ..., w(N-1)]`. Step i gets the mix label "t<i>".
// Weights beyond the TimeSteps count are ignored; a shorter list
// leaves the later steps without this statement. No error is reported
// for either mismatch.
func (tv *TimeVarying) F(src string, weights []float64) *TimeVarying {
	for i, w := range weights {
		if i >= tv.n {
			break
		}
		tv.b.stmts = append(tv.b.stmts, pendingStatement{src: src, weight: w, mix: fmt.Sprintf("t%d", i)})
	}
	return tv
}

// Build freezes the model and resolves every accumulated statement
// against it, producing the (Model, Workload) pair the core consumes.
func (b *Builder) Build() (*model.Model, *workload.Workload, error) {
	m, err := b.model.Build()
	if err != nil {
		return nil, nil, err
	}

	wl := workload.New()
	for _, p := range b.stmts {
		st, err := parser.ParseAndResolve(m, p.src)
		if err != nil {
			return nil, nil, err
		}
		if p.mix == "" {
			wl.Add(st, p.weight)
		} else {
			wl.AddToMix(st, p.weight, p.mix)
		}
	}
	return m, wl, nil
}
