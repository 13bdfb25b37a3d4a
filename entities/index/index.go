//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package index defines the materialized index (column family) value
// type: a hash/order/extra field layout over a path, its size, and its
// stable identity key.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
)

// FieldRef re-exports model.FieldRef for callers that only import
// this package.
type FieldRef = model.FieldRef

// Index is a materialized view: a set of hash (partition) fields, an
// ordered list of cluster fields, a set of extra (payload) fields, all
// defined over a Path through the model.
type Index struct {
	Hash  []FieldRef // non-empty, unordered set (kept sorted for determinism)
	Order []FieldRef // ordered cluster key, significant order
	Extra []FieldRef // unordered payload fields
	Path  model.Path

	entrySize int64
	size      int64
	key       string
}

// EntrySize is entry_size = sum of field.size over all_fields.
func (ix *Index) EntrySize() int64 { return ix.entrySize }

// Size is entry_size * expected number of entries along Path.
func (ix *Index) Size() int64 { return ix.size }

// Key is a stable identity string: two indexes with equal (Hash as
// set, Order as list, Extra as set, Path) share the same Key.
func (ix *Index) Key() string { return ix.key }

// AllFields returns Hash ∪ Order ∪ Extra, deduplicated.
func (ix *Index) AllFields() []FieldRef {
	seen := make(map[FieldRef]bool)
	var out []FieldRef
	for _, group := range [][]FieldRef{ix.Hash, ix.Order, ix.Extra} {
		for _, f := range group {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// ContainsField reports whether f is in Hash, Order, or Extra.
func (ix *Index) ContainsField(f FieldRef) bool {
	for _, g := range ix.AllFields() {
		if g == f {
			return true
		}
	}
	return false
}

func fieldSet(refs []FieldRef) map[FieldRef]bool {
	out := make(map[FieldRef]bool, len(refs))
	for _, r := range refs {
		out[r] = true
	}
	return out
}

func sortedRefs(refs []FieldRef) []FieldRef {
	out := make([]FieldRef, len(refs))
	copy(out, refs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Entity != out[j].Entity {
			return out[i].Entity < out[j].Entity
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func fieldName(m *model.Model, f FieldRef) string {
	e, ok := m.EntityByID(f.Entity)
	if !ok {
		return fmt.Sprintf("?%d.?%d", f.Entity, f.Field)
	}
	fd, ok := e.FieldByID(f.Field)
	if !ok {
		return fmt.Sprintf("%s.?%d", e.Name, f.Field)
	}
	return e.Name + "." + fd.Name
}

func pathString(m *model.Model, p model.Path) string {
	names := make([]string, len(p))
	for i, id := range p {
		if e, ok := m.EntityByID(id); ok {
			names[i] = e.Name
		} else {
			names[i] = fmt.Sprintf("?%d", id)
		}
	}
	return strings.Join(names, ".")
}

func fieldSize(m *model.Model, f FieldRef) (int64, error) {
	e, ok := m.EntityByID(f.Entity)
	if !ok {
		return 0, errors.Wrap(nerr.EntityNotFound{Name: fmt.Sprintf("%v", f.Entity)}, "field size")
	}
	fd, ok := e.FieldByID(f.Field)
	if !ok {
		return 0, errors.Wrap(nerr.FieldNotFound{Entity: e.Name, Field: fmt.Sprintf("%v", f.Field)}, "field size")
	}
	return int64(fd.Size), nil
}

// New validates and constructs an Index over m, computing its
// entry_size, size, and key eagerly (spec.md §9: no runtime caching
// because inputs are immutable).
//
// Invariants enforced (spec.md §3):
//   - Hash is non-empty.
//   - Every field in Hash ∪ Order ∪ Extra belongs to an entity on Path.
//   - Hash is drawn from a prefix of Path: the parents of Hash must
//     include Path[0].
//   - Extra is drawn from a suffix of Path: the parents of Extra must
//     include Path[len(Path)-1].
//   - The identifier field of Path[0] is present in Hash ∪ Order.
func New(m *model.Model, hash, order, extra []FieldRef, path model.Path) (*Index, error) {
	if len(hash) == 0 {
		return nil, errors.Wrap(nerr.InvalidIndex{Reason: "hash fields must be non-empty"}, "new index")
	}
	if err := model.ValidatePath(m, path); err != nil {
		return nil, err
	}

	onPath := make(map[model.EntityID]bool, len(path))
	for _, e := range path {
		onPath[e] = true
	}
	for _, group := range [][]FieldRef{hash, order, extra} {
		for _, f := range group {
			if !onPath[f.Entity] {
				return nil, errors.Wrap(nerr.InvalidIndex{Reason: fmt.Sprintf(
					"field %s does not belong to an entity on the index's path", fieldName(m, f))}, "new index")
			}
		}
	}

	first, last := path[0], path[len(path)-1]
	hashHasFirst := false
	for _, f := range hash {
		if f.Entity == first {
			hashHasFirst = true
			break
		}
	}
	if !hashHasFirst {
		return nil, errors.Wrap(nerr.InvalidIndex{Reason: "hash fields must include a field whose parent entity is the first entity on the path"}, "new index")
	}
	if len(extra) > 0 {
		extraHasLast := false
		for _, f := range extra {
			if f.Entity == last {
				extraHasLast = true
				break
			}
		}
		if !extraHasLast {
			return nil, errors.Wrap(nerr.InvalidIndex{Reason: "extra fields must include a field whose parent entity is the last entity on the path"}, "new index")
		}
	}

	firstEntity, _ := m.EntityByID(first)
	identRef := FieldRef{Entity: first, Field: firstEntity.Identifier().ID}
	identPresent := fieldSet(hash)[identRef] || fieldSet(order)[identRef]
	if !identPresent {
		return nil, errors.Wrap(nerr.InvalidIndex{Reason: fmt.Sprintf(
			"identifier field of %s must be present in hash or order fields", firstEntity.Name)}, "new index")
	}

	if len(order) == 0 && len(extra) == 0 {
		return nil, errors.Wrap(nerr.InvalidIndex{Reason: "index must have order or extra fields"}, "new index")
	}

	ix := &Index{Hash: hash, Order: order, Extra: extra, Path: path}

	var entrySize int64
	for _, f := range ix.AllFields() {
		sz, err := fieldSize(m, f)
		if err != nil {
			return nil, err
		}
		entrySize += sz
	}
	ix.entrySize = entrySize
	ix.size = entrySize * expectedEntries(m, path)
	ix.key = computeKey(m, ix)
	return ix, nil
}

// expectedEntries is the cardinality product along Path, divided by
// identity collapses: each 1:1 foreign key step does not multiply the
// row count, only each to-many step does.
func expectedEntries(m *model.Model, path model.Path) int64 {
	first, _ := m.EntityByID(path[0])
	total := first.Count
	for i := 0; i+1 < len(path); i++ {
		cur, _ := m.EntityByID(path[i])
		next, _ := m.EntityByID(path[i+1])
		toMany := false
		for _, f := range cur.Fields() {
			if f.Kind == model.FieldForeignKey && f.Target == path[i+1] && f.ToMany {
				toMany = true
			}
		}
		for _, f := range next.Fields() {
			if f.Kind == model.FieldForeignKey && f.Target == path[i] && f.ToMany {
				toMany = true
			}
		}
		if toMany {
			total *= next.Count
		}
	}
	return total
}

// computeKey builds a stable, human-debuggable identity string and
// hashes it so that two indexes with equal (Hash as set, Order as
// list, Extra as set, Path) collide on Key.
func computeKey(m *model.Model, ix *Index) string {
	var b strings.Builder
	b.WriteString("H[")
	for _, f := range sortedRefs(ix.Hash) {
		b.WriteString(fieldName(m, f))
		b.WriteByte(',')
	}
	b.WriteString("]O[")
	for _, f := range ix.Order { // order is significant, not sorted
		b.WriteString(fieldName(m, f))
		b.WriteByte(',')
	}
	b.WriteString("]X[")
	for _, f := range sortedRefs(ix.Extra) {
		b.WriteString(fieldName(m, f))
		b.WriteByte(',')
	}
	b.WriteString("]P[")
	b.WriteString(pathString(m, ix.Path))
	b.WriteString("]")

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Set is a deduplicated collection of indexes keyed by Key().
type Set struct {
	byKey map[string]*Index
}

// NewSet builds a Set from a slice of indexes, deduplicating by Key.
func NewSet(indexes ...*Index) *Set {
	s := &Set{byKey: make(map[string]*Index, len(indexes))}
	for _, ix := range indexes {
		s.Add(ix)
	}
	return s
}

// Add inserts ix, a no-op if an index with the same Key is already
// present.
func (s *Set) Add(ix *Index) {
	if _, ok := s.byKey[ix.Key()]; !ok {
		s.byKey[ix.Key()] = ix
	}
}

// Union merges other into s, returning s.
func (s *Set) Union(other *Set) *Set {
	for _, ix := range other.byKey {
		s.Add(ix)
	}
	return s
}

// Len returns the number of distinct indexes in the set.
func (s *Set) Len() int { return len(s.byKey) }

// Sorted returns the set's indexes ordered by Key, the deterministic
// order SearchMILP requires (spec.md §5).
func (s *Set) Sorted() []*Index {
	out := make([]*Index, 0, len(s.byKey))
	for _, ix := range s.byKey {
		out = append(out, ix)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Get looks up an index by key.
func (s *Set) Get(key string) (*Index, bool) {
	ix, ok := s.byKey[key]
	return ix, ok
}
