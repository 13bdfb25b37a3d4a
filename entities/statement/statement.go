//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package statement defines the frozen statement AST the core consumes:
// queries and the three data-modifying statements, plus the shared
// condition/setting vocabulary between them. Values are built once by
// the parser or the workload DSL and never mutated afterward.
package statement

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
)

// Op is a predicate or condition operator.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	default:
		return "?"
	}
}

// IsRange reports whether o is a range (non-equality) comparison.
func (o Op) IsRange() bool { return o != OpEq && o != OpNeq }

// FieldRef is an alias of model.FieldRef, kept local to this package so
// statement code reads without a model. qualifier on every predicate.
type FieldRef = model.FieldRef

// Condition is a predicate over a field. Two conditions are considered
// equal by (FieldRef, Op) alone — the bound literal value is ignored,
// since it is only known at execution time (spec.md §3).
type Condition struct {
	FieldRef FieldRef
	Op       Op
	HasValue bool
	Value    interface{}
}

// Equal compares two conditions by field and operator only.
func (c Condition) Equal(o Condition) bool {
	return c.FieldRef == o.FieldRef && c.Op == o.Op
}

// Setting is an assignment of a literal (or a bound placeholder) to a
// field, used by Update and Insert.
type Setting struct {
	FieldRef FieldRef
	HasValue bool
	Value    interface{}
}

// StatementKind discriminates the Statement sum type.
type StatementKind int

const (
	KindQuery StatementKind = iota
	KindUpdate
	KindInsert
	KindDelete
)

func (k StatementKind) String() string {
	switch k {
	case KindQuery:
		return "Query"
	case KindUpdate:
		return "Update"
	case KindInsert:
		return "Insert"
	case KindDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Statement is the sum type of all workload statements. The marker
// method keeps it sealed to this package; callers dispatch on Kind()
// with a type switch, mirroring the teacher's Operator type switch in
// usecases/optimizer/ml_cost_model.go.
type Statement interface {
	Kind() StatementKind
	String() string
	statementNode()
}

// Query selects fields reachable along Path, subject to Conditions,
// optionally ordered and limited.
type Query struct {
	Select     []FieldRef
	Path       model.Path
	Conditions []Condition
	OrderBy    []FieldRef
	Limit      *int

	// Cardinality is the expected number of rows the query's first path
	// entity produces before any predicate is applied; it seeds the
	// planner's ExecutionState.cardinality (spec.md §4.2).
	Cardinality float64
}

func (q *Query) Kind() StatementKind { return KindQuery }
func (q *Query) statementNode()      {}
func (q *Query) String() string {
	return fmt.Sprintf("SELECT %v FROM %v WHERE %v", q.Select, q.Path, q.Conditions)
}

// EqualityFields returns the fields with an equality condition.
func (q *Query) EqualityFields() []FieldRef {
	var out []FieldRef
	for _, c := range q.Conditions {
		if c.Op == OpEq {
			out = append(out, c.FieldRef)
		}
	}
	return out
}

// RangeField returns the (at most one) field with a range condition.
func (q *Query) RangeField() (FieldRef, bool) {
	for _, c := range q.Conditions {
		if c.Op.IsRange() {
			return c.FieldRef, true
		}
	}
	return FieldRef{}, false
}

// Update modifies fields of rows of Target, reached by Path, subject
// to Conditions.
type Update struct {
	Target     model.EntityID
	Path       model.Path
	Settings   []Setting
	Conditions []Condition
}

func (u *Update) Kind() StatementKind { return KindUpdate }
func (u *Update) statementNode()      {}
func (u *Update) String() string {
	return fmt.Sprintf("UPDATE %v SET %v WHERE %v", u.Target, u.Settings, u.Conditions)
}

// Insert creates a new row of Target, including ForeignKey settings
// that connect it to other entities.
type Insert struct {
	Target   model.EntityID
	Settings []Setting
}

func (i *Insert) Kind() StatementKind { return KindInsert }
func (i *Insert) statementNode()      {}
func (i *Insert) String() string {
	return fmt.Sprintf("INSERT INTO %v SET %v", i.Target, i.Settings)
}

// Delete removes rows of Target, optionally reached by Path, subject
// to Conditions.
type Delete struct {
	Target     model.EntityID
	Path       model.Path
	Conditions []Condition
}

func (d *Delete) Kind() StatementKind { return KindDelete }
func (d *Delete) statementNode()      {}
func (d *Delete) String() string {
	return fmt.Sprintf("DELETE %v WHERE %v", d.Target, d.Conditions)
}

// IsMutating reports whether s modifies data (Update, Insert, Delete).
func IsMutating(s Statement) bool {
	return s.Kind() != KindQuery
}

func fieldOnPath(m *model.Model, p model.Path, ref FieldRef) bool {
	for _, e := range p {
		if e == ref.Entity {
			return true
		}
	}
	return false
}

func isForeignKey(m *model.Model, ref FieldRef) bool {
	e, ok := m.EntityByID(ref.Entity)
	if !ok {
		return false
	}
	f, ok := e.FieldByID(ref.Field)
	if !ok {
		return false
	}
	return f.Kind == model.FieldForeignKey
}

// NewQuery builds and validates a Query per spec.md §3: at least one
// equality predicate, at most one range predicate, no predicate on a
// foreign key, and every referenced field (select, predicate, order by)
// lies on Path.
func NewQuery(m *model.Model, path model.Path, selectFields []FieldRef, conds []Condition, orderBy []FieldRef, limit *int) (*Query, error) {
	if err := model.ValidatePath(m, path); err != nil {
		return nil, err
	}

	hasEq := false
	rangeCount := 0
	for _, c := range conds {
		if !fieldOnPath(m, path, c.FieldRef) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "predicate field is not on the query's path"}, "new query")
		}
		if isForeignKey(m, c.FieldRef) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "predicate on a foreign key is not allowed"}, "new query")
		}
		switch {
		case c.Op == OpEq:
			hasEq = true
		case c.Op.IsRange():
			rangeCount++
		}
	}
	if !hasEq {
		return nil, errors.Wrap(nerr.InvalidStatement{Reason: "query must have at least one equality predicate"}, "new query")
	}
	if rangeCount > 1 {
		return nil, errors.Wrap(nerr.InvalidStatement{Reason: "query may have at most one range predicate"}, "new query")
	}
	for _, f := range selectFields {
		if !fieldOnPath(m, path, f) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "select field is not on the query's path"}, "new query")
		}
	}
	for _, f := range orderBy {
		if !fieldOnPath(m, path, f) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "order-by field is not on the query's path"}, "new query")
		}
	}

	firstEntity, _ := m.EntityByID(path[0])
	return &Query{
		Select:      selectFields,
		Path:        path,
		Conditions:  conds,
		OrderBy:     orderBy,
		Limit:       limit,
		Cardinality: float64(firstEntity.Count),
	}, nil
}

// NewUpdate builds and validates an Update: Path (if given) must start
// at an entity reachable to Target, and every condition field must lie
// on it.
func NewUpdate(m *model.Model, target model.EntityID, path model.Path, settings []Setting, conds []Condition) (*Update, error) {
	if len(path) > 0 {
		if err := model.ValidatePath(m, path); err != nil {
			return nil, err
		}
		if path[len(path)-1] != target {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "update path must end at the target entity"}, "new update")
		}
	} else {
		path = model.Path{target}
	}
	for _, c := range conds {
		if !fieldOnPath(m, path, c.FieldRef) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "update predicate field is not on its path"}, "new update")
		}
	}
	return &Update{Target: target, Path: path, Settings: settings, Conditions: conds}, nil
}

// NewInsert builds an Insert for the given target entity.
func NewInsert(m *model.Model, target model.EntityID, settings []Setting) (*Insert, error) {
	if _, ok := m.EntityByID(target); !ok {
		return nil, errors.Wrap(nerr.EntityNotFound{Name: fmt.Sprintf("%v", target)}, "new insert")
	}
	return &Insert{Target: target, Settings: settings}, nil
}

// NewDelete builds and validates a Delete.
func NewDelete(m *model.Model, target model.EntityID, path model.Path, conds []Condition) (*Delete, error) {
	if len(path) > 0 {
		if err := model.ValidatePath(m, path); err != nil {
			return nil, err
		}
		if path[len(path)-1] != target {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "delete path must end at the target entity"}, "new delete")
		}
	} else {
		path = model.Path{target}
	}
	for _, c := range conds {
		if !fieldOnPath(m, path, c.FieldRef) {
			return nil, errors.Wrap(nerr.InvalidStatement{Reason: "delete predicate field is not on its path"}, "new delete")
		}
	}
	return &Delete{Target: target, Path: path, Conditions: conds}, nil
}
