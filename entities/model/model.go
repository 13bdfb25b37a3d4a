//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package model defines the conceptual entity-relationship model that
// the advisor searches a schema for: entities, their fields, the
// foreign keys that connect them, and the paths a statement or index
// can traverse across that graph.
package model

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/nerr"
)

// FieldKind distinguishes the scalar types a Field can hold from the
// relationship (foreign key) fields that link entities together.
type FieldKind int

const (
	FieldInteger FieldKind = iota
	FieldFloat
	FieldString
	FieldDate
	FieldForeignKey
)

func (k FieldKind) String() string {
	switch k {
	case FieldInteger:
		return "Integer"
	case FieldFloat:
		return "Float"
	case FieldString:
		return "String"
	case FieldDate:
		return "Date"
	case FieldForeignKey:
		return "ForeignKey"
	default:
		return "Unknown"
	}
}

// EntityID is an arena handle into a Model's entity table. Handles
// replace pointers between Entity and ForeignKey so the graph can be
// built without ownership cycles (see spec §9).
type EntityID int

// FieldID is an arena handle into an Entity's field table, unique only
// within that Entity.
type FieldID int

// Field is a named, sized attribute of an Entity. A ForeignKey field
// additionally names the entity it targets and whether that
// relationship has cardinality one or many.
type Field struct {
	ID         FieldID
	Name       string
	Kind       FieldKind
	Size       int // bytes, used by cost/size calculations
	StringLen  int // only meaningful when Kind == FieldString

	// ForeignKey-only attributes (Target, ToMany), then the identifier
	// flag.
	Target   EntityID
	ToMany   bool
	Identity bool // true iff this is the entity's single identifier field
}

// Entity is a named record type with an expected cardinality and an
// ordered set of fields, exactly one of which is the identifier.
type Entity struct {
	ID         EntityID
	Name       string
	Count      int64 // expected cardinality, must be positive
	fields     []Field
	fieldByID  map[FieldID]int
	fieldByName map[string]int
	identifier FieldID
}

// Fields returns the entity's fields in declaration order.
func (e *Entity) Fields() []Field { return e.fields }

// Field looks up a field by name.
func (e *Entity) Field(name string) (Field, bool) {
	idx, ok := e.fieldByName[name]
	if !ok {
		return Field{}, false
	}
	return e.fields[idx], true
}

// FieldByID looks up a field by its handle.
func (e *Entity) FieldByID(id FieldID) (Field, bool) {
	idx, ok := e.fieldByID[id]
	if !ok {
		return Field{}, false
	}
	return e.fields[idx], true
}

// Identifier returns the entity's single identifier field.
func (e *Entity) Identifier() Field {
	f, _ := e.FieldByID(e.identifier)
	return f
}

// Model is a frozen mapping of entity name to Entity, built once by a
// Builder and never mutated afterward.
type Model struct {
	entities       []Entity
	entityByID     map[EntityID]int
	entityByName   map[string]int
}

// Entities returns the model's entities in declaration order.
func (m *Model) Entities() []Entity { return m.entities }

// Entity looks up an entity by name.
func (m *Model) Entity(name string) (*Entity, bool) {
	idx, ok := m.entityByName[name]
	if !ok {
		return nil, false
	}
	return &m.entities[idx], true
}

// EntityByID looks up an entity by its handle.
func (m *Model) EntityByID(id EntityID) (*Entity, bool) {
	idx, ok := m.entityByID[id]
	if !ok {
		return nil, false
	}
	return &m.entities[idx], true
}

// Builder constructs a Model incrementally, then freezes it with
// Build(). Entities and their fields are immutable once Build returns.
type Builder struct {
	entities []Entity
	byName   map[string]int
	nextEID  EntityID
}

// NewBuilder creates an empty model builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]int)}
}

// EntityBuilder accumulates fields for a single entity before it is
// added to the Model.
type EntityBuilder struct {
	parent *Builder
	id     EntityID
	name   string
	count  int64
	fields []Field
	nextFID FieldID
	hasIdentifier bool
	identifier FieldID
}

// ID returns the entity handle this builder will register under,
// available immediately so sibling entities can reference it as a
// ForeignKey target before Done is called.
func (eb *EntityBuilder) ID() EntityID { return eb.id }

// AddEntity starts building a new entity with the given expected
// cardinality.
func (b *Builder) AddEntity(name string, count int64) *EntityBuilder {
	id := b.nextEID
	b.nextEID++
	return &EntityBuilder{parent: b, id: id, name: name, count: count}
}

// AddScalar adds a non-identifier scalar field.
func (eb *EntityBuilder) AddScalar(name string, kind FieldKind, size int) *EntityBuilder {
	f := Field{ID: eb.nextFID, Name: name, Kind: kind, Size: size}
	if kind == FieldString {
		f.StringLen = size
	}
	eb.nextFID++
	eb.fields = append(eb.fields, f)
	return eb
}

// AddIdentifier adds the entity's identifier field. Each entity must
// have exactly one.
func (eb *EntityBuilder) AddIdentifier(name string, size int) *EntityBuilder {
	f := Field{ID: eb.nextFID, Name: name, Kind: FieldInteger, Size: size, Identity: true}
	eb.identifier = f.ID
	eb.hasIdentifier = true
	eb.nextFID++
	eb.fields = append(eb.fields, f)
	return eb
}

// AddForeignKey adds a relationship field targeting another entity.
// toMany indicates the target-side cardinality (many vs one).
func (eb *EntityBuilder) AddForeignKey(name string, target EntityID, size int, toMany bool) *EntityBuilder {
	f := Field{ID: eb.nextFID, Name: name, Kind: FieldForeignKey, Size: size, Target: target, ToMany: toMany}
	eb.nextFID++
	eb.fields = append(eb.fields, f)
	return eb
}

// Done registers the entity on the parent builder and returns it for
// chaining further AddEntity calls.
func (eb *EntityBuilder) Done() *Builder {
	eb.parent.entities = append(eb.parent.entities, Entity{
		ID:         eb.id,
		Name:       eb.name,
		Count:      eb.count,
		fields:     eb.fields,
		identifier: eb.identifier,
	})
	eb.parent.byName[eb.name] = len(eb.parent.entities) - 1
	return eb.parent
}

// Build freezes the model, validating that every ForeignKey target
// exists and every entity has exactly one identifier.
func (b *Builder) Build() (*Model, error) {
	m := &Model{
		entities:     b.entities,
		entityByID:   make(map[EntityID]int, len(b.entities)),
		entityByName: make(map[string]int, len(b.entities)),
	}
	for i := range m.entities {
		e := &m.entities[i]
		m.entityByID[e.ID] = i
		m.entityByName[e.Name] = i

		e.fieldByID = make(map[FieldID]int, len(e.fields))
		e.fieldByName = make(map[string]int, len(e.fields))
		identCount := 0
		for j := range e.fields {
			f := &e.fields[j]
			e.fieldByID[f.ID] = j
			e.fieldByName[f.Name] = j
			if f.Identity {
				identCount++
			}
		}
		if identCount != 1 {
			return nil, errors.Wrapf(nerr.InvalidIndex{Reason: fmt.Sprintf(
				"entity %s must have exactly one identifier field, has %d", e.Name, identCount)}, "build model")
		}
	}
	for _, e := range m.entities {
		for _, f := range e.fields {
			if f.Kind != FieldForeignKey {
				continue
			}
			if _, ok := m.entityByID[f.Target]; !ok {
				return nil, errors.Wrapf(nerr.EntityNotFound{Name: fmt.Sprintf("<entity id %d>", f.Target)},
					"foreign key %s.%s targets unknown entity", e.Name, f.Name)
			}
		}
	}
	return m, nil
}

// FieldRef resolves a field to the entity that declares it, within the
// scope of a single statement or index's path. Shared by the statement
// and index packages so both speak the same handle vocabulary.
type FieldRef struct {
	Entity EntityID
	Field  FieldID
}

// Path is a non-empty ordered sequence of entities such that every
// adjacent pair is connected by a ForeignKey in either direction.
type Path []EntityID

// Entities resolves a Path's handles against a Model, in order.
func (p Path) Entities(m *Model) []*Entity {
	out := make([]*Entity, len(p))
	for i, id := range p {
		e, _ := m.EntityByID(id)
		out[i] = e
	}
	return out
}

// connected reports whether two entities share a ForeignKey in either
// direction.
func connected(m *Model, a, b EntityID) bool {
	ea, _ := m.EntityByID(a)
	eb, _ := m.EntityByID(b)
	for _, f := range ea.fields {
		if f.Kind == FieldForeignKey && f.Target == b {
			return true
		}
	}
	for _, f := range eb.fields {
		if f.Kind == FieldForeignKey && f.Target == a {
			return true
		}
	}
	return false
}

// ValidatePath checks that every adjacent pair of entities in p is
// connected by a ForeignKey.
func ValidatePath(m *Model, p Path) error {
	if len(p) == 0 {
		return errors.Wrap(nerr.InvalidStatement{Reason: "path must be non-empty"}, "validate path")
	}
	for i := 0; i+1 < len(p); i++ {
		if !connected(m, p[i], p[i+1]) {
			ea, _ := m.EntityByID(p[i])
			eb, _ := m.EntityByID(p[i+1])
			return errors.Wrapf(nerr.InvalidStatement{Reason: fmt.Sprintf(
				"no foreign key between %s and %s", ea.Name, eb.Name)}, "validate path")
		}
	}
	return nil
}

// Subpaths enumerates every contiguous, non-empty subpath of p,
// including p itself. Order matches spec.md §4.1 step 1: every
// (start, end) pair with start <= end.
func Subpaths(p Path) []Path {
	var out []Path
	for start := 0; start < len(p); start++ {
		for end := start; end < len(p); end++ {
			sp := make(Path, end-start+1)
			copy(sp, p[start:end+1])
			out = append(out, sp)
		}
	}
	return out
}
