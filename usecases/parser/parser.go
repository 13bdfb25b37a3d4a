//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package parser turns the CQL-like statement grammar from spec.md §6
// into a raw, unresolved AST, and resolves that AST against a model
// into entities/statement values. No parser-generator library
// appears anywhere in the retrieval pack (no participle, goyacc, or
// antlr runtime), so this is a hand-written recursive-descent parser,
// structured the way the teacher's collaborators validate input in
// stages: lex, parse into a raw shape, then validate/resolve
// (mirroring pkg/migrate's read-then-validate flow, substituting a
// grammar for YAML).
package parser

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/statement"
)

// RawField is an unresolved "entity.field" reference.
type RawField struct {
	Entity string
	Field  string
}

func (f RawField) String() string { return f.Entity + "." + f.Field }

// RawCondition is an unresolved predicate.
type RawCondition struct {
	Field         RawField
	Op            statement.Op
	Literal       interface{}
	IsPlaceholder bool
}

// RawSetting is an unresolved assignment.
type RawSetting struct {
	Field         RawField
	Literal       interface{}
	IsPlaceholder bool
}

// RawStatementKind discriminates the raw AST's sum type.
type RawStatementKind int

const (
	RawQuery RawStatementKind = iota
	RawUpdate
	RawInsert
	RawDelete
)

// RawStatement is the parser's direct, unresolved output.
type RawStatement interface {
	rawKind() RawStatementKind
	rawStatementNode()
}

type rawQueryStmt struct {
	Select  []RawField // nil means *
	Path    []string
	Conds   []RawCondition
	OrderBy []RawField
	Limit   *int
}

func (s *rawQueryStmt) rawKind() RawStatementKind { return RawQuery }
func (s *rawQueryStmt) rawStatementNode()         {}

type rawUpdateStmt struct {
	Entity   string
	Path     []string
	Settings []RawSetting
	Conds    []RawCondition
}

func (s *rawUpdateStmt) rawKind() RawStatementKind { return RawUpdate }
func (s *rawUpdateStmt) rawStatementNode()         {}

type rawInsertStmt struct {
	Entity   string
	Settings []RawSetting
}

func (s *rawInsertStmt) rawKind() RawStatementKind { return RawInsert }
func (s *rawInsertStmt) rawStatementNode()         {}

type rawDeleteStmt struct {
	Entity string
	Path   []string
	Conds  []RawCondition
}

func (s *rawDeleteStmt) rawKind() RawStatementKind { return RawDelete }
func (s *rawDeleteStmt) rawStatementNode()         {}

// parser consumes tokens from a lexer one at a time, with one token of
// lookahead.
type parser struct {
	lex  *lexer
	tok  token
	text string
}

func newParser(src string) (*parser, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		if le, ok := err.(*lexError); ok {
			return errors.Wrap(nerr.ParseFailed{Pos: le.pos, Reason: le.reason}, "lex")
		}
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) fail(reason string) error {
	return errors.Wrap(nerr.ParseFailed{Pos: p.tok.pos, Reason: reason}, "parse")
}

func (p *parser) expectIdent(word string) error {
	if p.tok.kind != tokIdent || !equalFold(p.tok.text, word) {
		return p.fail(fmt.Sprintf("expected %q", word))
	}
	return p.advance()
}

func (p *parser) atIdent(word string) bool {
	return p.tok.kind == tokIdent && equalFold(p.tok.text, word)
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Parse parses a single statement per spec.md §6's grammar.
func Parse(src string) (RawStatement, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}

	switch {
	case p.atIdent("SELECT"):
		return p.parseQuery()
	case p.atIdent("UPDATE"):
		return p.parseUpdate()
	case p.atIdent("INSERT"):
		return p.parseInsert()
	case p.atIdent("DELETE"):
		return p.parseDelete()
	default:
		return nil, p.fail("expected SELECT, UPDATE, INSERT, or DELETE")
	}
}

func (p *parser) parseIdentPath() ([]string, error) {
	if p.tok.kind != tokIdent {
		return nil, p.fail("expected identifier")
	}
	out := []string{p.tok.text}
	if err := p.advance(); err != nil {
		return nil, err
	}
	for p.tok.kind == tokDot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokIdent {
			return nil, p.fail("expected identifier after '.'")
		}
		out = append(out, p.tok.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// parseField parses "entity.field" (and, loosely, deeper dotted
// references, keeping only the first and last segment — spec.md §6's
// grammar allows `<field> := <ident>.<ident>(.<ident>)*` without
// specifying what a third segment resolves to, so the middle segments
// are dropped and the last one is resolved as a field of the leading
// entity).
func (p *parser) parseField() (RawField, error) {
	segs, err := p.parseIdentPath()
	if err != nil {
		return RawField{}, err
	}
	if len(segs) < 2 {
		return RawField{}, p.fail("field reference must be entity.field")
	}
	return RawField{Entity: segs[0], Field: segs[len(segs)-1]}, nil
}

func (p *parser) parseOp() (statement.Op, error) {
	if p.tok.kind != tokOp {
		return 0, p.fail("expected comparison operator")
	}
	var op statement.Op
	switch p.tok.text {
	case "=":
		op = statement.OpEq
	case "!=":
		op = statement.OpNeq
	case "<":
		op = statement.OpLt
	case "<=":
		op = statement.OpLte
	case ">":
		op = statement.OpGt
	case ">=":
		op = statement.OpGte
	default:
		return 0, p.fail("unknown operator " + p.tok.text)
	}
	return op, p.advance()
}

func (p *parser) parseLiteralOrPlaceholder() (interface{}, bool, error) {
	switch p.tok.kind {
	case tokQuestion:
		return nil, true, p.advance()
	case tokNumber:
		text := p.tok.text
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, false, nil
		}
		return nil, false, p.fail("invalid numeric literal " + text)
	case tokString:
		text := p.tok.text
		return text, false, p.advance()
	default:
		return nil, false, p.fail("expected literal or '?'")
	}
}

func (p *parser) parseCondition() (RawCondition, error) {
	field, err := p.parseField()
	if err != nil {
		return RawCondition{}, err
	}
	op, err := p.parseOp()
	if err != nil {
		return RawCondition{}, err
	}
	lit, placeholder, err := p.parseLiteralOrPlaceholder()
	if err != nil {
		return RawCondition{}, err
	}
	return RawCondition{Field: field, Op: op, Literal: lit, IsPlaceholder: placeholder}, nil
}

func (p *parser) parseConditions() ([]RawCondition, error) {
	var out []RawCondition
	for {
		c, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if !p.atIdent("AND") {
			return out, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseSetting() (RawSetting, error) {
	field, err := p.parseField()
	if err != nil {
		return RawSetting{}, err
	}
	if p.tok.kind != tokOp || p.tok.text != "=" {
		return RawSetting{}, p.fail("expected '=' in setting")
	}
	if err := p.advance(); err != nil {
		return RawSetting{}, err
	}
	lit, placeholder, err := p.parseLiteralOrPlaceholder()
	if err != nil {
		return RawSetting{}, err
	}
	return RawSetting{Field: field, Literal: lit, IsPlaceholder: placeholder}, nil
}

func (p *parser) parseSettings() ([]RawSetting, error) {
	var out []RawSetting
	for {
		s, err := p.parseSetting()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.tok.kind != tokComma {
			return out, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseFieldList() ([]RawField, error) {
	var out []RawField
	for {
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
		if p.tok.kind != tokComma {
			return out, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseQuery() (RawStatement, error) {
	if err := p.expectIdent("SELECT"); err != nil {
		return nil, err
	}
	var sel []RawField
	if p.tok.kind == tokStar {
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else {
		fields, err := p.parseFieldList()
		if err != nil {
			return nil, err
		}
		sel = fields
	}
	if err := p.expectIdent("FROM"); err != nil {
		return nil, err
	}
	path, err := p.parseIdentPath()
	if err != nil {
		return nil, err
	}

	q := &rawQueryStmt{Select: sel, Path: path}
	if p.atIdent("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		q.Conds = conds
	}
	if p.atIdent("ORDER") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expectIdent("BY"); err != nil {
			return nil, err
		}
		fields, err := p.parseFieldList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = fields
	}
	if p.atIdent("LIMIT") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind != tokNumber {
			return nil, p.fail("expected number after LIMIT")
		}
		n, err := strconv.Atoi(p.tok.text)
		if err != nil {
			return nil, p.fail("invalid LIMIT value")
		}
		q.Limit = &n
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (p *parser) parseUpdate() (RawStatement, error) {
	if err := p.expectIdent("UPDATE"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, p.fail("expected entity name after UPDATE")
	}
	entity := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	u := &rawUpdateStmt{Entity: entity}
	if p.atIdent("FROM") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		path, err := p.parseIdentPath()
		if err != nil {
			return nil, err
		}
		u.Path = path
	}
	if err := p.expectIdent("SET"); err != nil {
		return nil, err
	}
	settings, err := p.parseSettings()
	if err != nil {
		return nil, err
	}
	u.Settings = settings

	if p.atIdent("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		u.Conds = conds
	}
	return u, nil
}

func (p *parser) parseInsert() (RawStatement, error) {
	if err := p.expectIdent("INSERT"); err != nil {
		return nil, err
	}
	if err := p.expectIdent("INTO"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, p.fail("expected entity name after INSERT INTO")
	}
	entity := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectIdent("SET"); err != nil {
		return nil, err
	}
	settings, err := p.parseSettings()
	if err != nil {
		return nil, err
	}
	return &rawInsertStmt{Entity: entity, Settings: settings}, nil
}

func (p *parser) parseDelete() (RawStatement, error) {
	if err := p.expectIdent("DELETE"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, p.fail("expected entity name after DELETE")
	}
	entity := p.tok.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	d := &rawDeleteStmt{Entity: entity}
	if p.atIdent("FROM") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		path, err := p.parseIdentPath()
		if err != nil {
			return nil, err
		}
		d.Path = path
	}
	if p.atIdent("WHERE") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		d.Conds = conds
	}
	return d, nil
}

// Resolve binds a RawStatement's entity/field names against m,
// producing a validated entities/statement value.
func Resolve(m *model.Model, raw RawStatement) (statement.Statement, error) {
	switch s := raw.(type) {
	case *rawQueryStmt:
		return resolveQuery(m, s)
	case *rawUpdateStmt:
		return resolveUpdate(m, s)
	case *rawInsertStmt:
		return resolveInsert(m, s)
	case *rawDeleteStmt:
		return resolveDelete(m, s)
	default:
		return nil, errors.Wrap(nerr.InvalidStatement{Reason: "unknown raw statement kind"}, "resolve")
	}
}

func resolvePath(m *model.Model, names []string) (model.Path, error) {
	path := make(model.Path, len(names))
	for i, name := range names {
		e, ok := m.Entity(name)
		if !ok {
			return nil, errors.Wrap(nerr.EntityNotFound{Name: name}, "resolve path")
		}
		path[i] = e.ID
	}
	return path, nil
}

func resolveField(m *model.Model, f RawField) (model.FieldRef, error) {
	e, ok := m.Entity(f.Entity)
	if !ok {
		return model.FieldRef{}, errors.Wrap(nerr.EntityNotFound{Name: f.Entity}, "resolve field")
	}
	fd, ok := e.Field(f.Field)
	if !ok {
		return model.FieldRef{}, errors.Wrap(nerr.FieldNotFound{Entity: f.Entity, Field: f.Field}, "resolve field")
	}
	return model.FieldRef{Entity: e.ID, Field: fd.ID}, nil
}

func resolveFields(m *model.Model, fs []RawField) ([]model.FieldRef, error) {
	out := make([]model.FieldRef, len(fs))
	for i, f := range fs {
		r, err := resolveField(m, f)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func resolveConditions(m *model.Model, cs []RawCondition) ([]statement.Condition, error) {
	out := make([]statement.Condition, len(cs))
	for i, c := range cs {
		ref, err := resolveField(m, c.Field)
		if err != nil {
			return nil, err
		}
		out[i] = statement.Condition{FieldRef: ref, Op: c.Op, HasValue: !c.IsPlaceholder, Value: c.Literal}
	}
	return out, nil
}

func resolveSettings(m *model.Model, ss []RawSetting) ([]statement.Setting, error) {
	out := make([]statement.Setting, len(ss))
	for i, s := range ss {
		ref, err := resolveField(m, s.Field)
		if err != nil {
			return nil, err
		}
		out[i] = statement.Setting{FieldRef: ref, HasValue: !s.IsPlaceholder, Value: s.Literal}
	}
	return out, nil
}

func resolveQuery(m *model.Model, s *rawQueryStmt) (statement.Statement, error) {
	path, err := resolvePath(m, s.Path)
	if err != nil {
		return nil, err
	}
	var sel []model.FieldRef
	if s.Select == nil {
		sel = allFieldsOnPath(m, path)
	} else {
		sel, err = resolveFields(m, s.Select)
		if err != nil {
			return nil, err
		}
	}
	conds, err := resolveConditions(m, s.Conds)
	if err != nil {
		return nil, err
	}
	orderBy, err := resolveFields(m, s.OrderBy)
	if err != nil {
		return nil, err
	}
	return statement.NewQuery(m, path, sel, conds, orderBy, s.Limit)
}

func allFieldsOnPath(m *model.Model, path model.Path) []model.FieldRef {
	var out []model.FieldRef
	for _, eid := range path {
		e, ok := m.EntityByID(eid)
		if !ok {
			continue
		}
		for _, f := range e.Fields() {
			out = append(out, model.FieldRef{Entity: eid, Field: f.ID})
		}
	}
	return out
}

func resolveUpdate(m *model.Model, s *rawUpdateStmt) (statement.Statement, error) {
	e, ok := m.Entity(s.Entity)
	if !ok {
		return nil, errors.Wrap(nerr.EntityNotFound{Name: s.Entity}, "resolve update")
	}
	path, err := resolvePath(m, s.Path)
	if err != nil {
		return nil, err
	}
	settings, err := resolveSettings(m, s.Settings)
	if err != nil {
		return nil, err
	}
	conds, err := resolveConditions(m, s.Conds)
	if err != nil {
		return nil, err
	}
	return statement.NewUpdate(m, e.ID, path, settings, conds)
}

func resolveInsert(m *model.Model, s *rawInsertStmt) (statement.Statement, error) {
	e, ok := m.Entity(s.Entity)
	if !ok {
		return nil, errors.Wrap(nerr.EntityNotFound{Name: s.Entity}, "resolve insert")
	}
	settings, err := resolveSettings(m, s.Settings)
	if err != nil {
		return nil, err
	}
	return statement.NewInsert(m, e.ID, settings)
}

func resolveDelete(m *model.Model, s *rawDeleteStmt) (statement.Statement, error) {
	e, ok := m.Entity(s.Entity)
	if !ok {
		return nil, errors.Wrap(nerr.EntityNotFound{Name: s.Entity}, "resolve delete")
	}
	path, err := resolvePath(m, s.Path)
	if err != nil {
		return nil, err
	}
	conds, err := resolveConditions(m, s.Conds)
	if err != nil {
		return nil, err
	}
	return statement.NewDelete(m, e.ID, path, conds)
}

// ParseAndResolve is the convenience entry point most callers want:
// parse src, then immediately resolve it against m.
func ParseAndResolve(m *model.Model, src string) (statement.Statement, error) {
	raw, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return Resolve(m, raw)
}
