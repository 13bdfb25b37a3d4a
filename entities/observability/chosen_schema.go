//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package observability renders the advisor's run result into the
// chosen-schema output spec.md §6 defines as the backend's contract:
// per-index descriptors, per-query plan descriptors, and per-mutation
// plan descriptors. Grounded on explain_plan.go/explain_builder.go's
// json-tagged result type plus a mutex-guarded incremental builder,
// generalized from a single query's execution trace to a whole run's
// schema choice.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/plan"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/updateplanner"
)

// IndexDescriptor is a chosen index's (key, H, O, X, P) descriptor.
type IndexDescriptor struct {
	Key       string   `json:"key"`
	Hash      []string `json:"hash"`
	Order     []string `json:"order"`
	Extra     []string `json:"extra"`
	Path      []string `json:"path"`
	SizeBytes int64    `json:"size_bytes"`
}

// QueryPlanDescriptor is the ordered step sequence chosen for a query.
type QueryPlanDescriptor struct {
	Query string   `json:"query"`
	Steps []string `json:"steps"`
	Cost  float64  `json:"cost"`
}

// MutationPlanDescriptor is a mutating statement's support query plus
// the insert/delete steps it drives against one affected index.
type MutationPlanDescriptor struct {
	Statement    string   `json:"statement"`
	Index        string   `json:"index"`
	SupportQuery string   `json:"support_query,omitempty"`
	Steps        []string `json:"steps"`
}

// ChosenSchema is the advisor's complete run result.
type ChosenSchema struct {
	RunID         string                    `json:"run_id"`
	Timestamp     time.Time                 `json:"timestamp"`
	DurationMS    float64                   `json:"duration_ms"`
	TotalCost     float64                   `json:"total_cost"`
	Indexes       []IndexDescriptor         `json:"indexes"`
	QueryPlans    []QueryPlanDescriptor     `json:"query_plans"`
	MutationPlans []MutationPlanDescriptor  `json:"mutation_plans"`
}

// ChosenSchemaBuilder accumulates a ChosenSchema incrementally as the
// core pipeline produces indexes and plans.
type ChosenSchemaBuilder struct {
	mu     sync.Mutex
	schema *ChosenSchema
	start  time.Time
	model  *model.Model
}

// NewChosenSchemaBuilder starts a new run result builder over m, used
// to resolve field and entity names for descriptors.
func NewChosenSchemaBuilder(m *model.Model) *ChosenSchemaBuilder {
	return &ChosenSchemaBuilder{
		schema: &ChosenSchema{
			RunID:     uuid.New().String(),
			Timestamp: time.Now(),
		},
		start: time.Now(),
		model: m,
	}
}

func fieldName(m *model.Model, f model.FieldRef) string {
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

func fieldNames(m *model.Model, refs []model.FieldRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = fieldName(m, r)
	}
	return out
}

func pathNames(m *model.Model, p model.Path) []string {
	out := make([]string, len(p))
	for i, eid := range p {
		if e, ok := m.EntityByID(eid); ok {
			out[i] = e.Name
		} else {
			out[i] = fmt.Sprintf("?%d", eid)
		}
	}
	return out
}

func stepDescriptions(steps []plan.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}

// AddIndex records an index descriptor.
func (b *ChosenSchemaBuilder) AddIndex(ix *index.Index) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.schema.Indexes = append(b.schema.Indexes, IndexDescriptor{
		Key:       ix.Key(),
		Hash:      fieldNames(b.model, ix.Hash),
		Order:     fieldNames(b.model, ix.Order),
		Extra:     fieldNames(b.model, ix.Extra),
		Path:      pathNames(b.model, ix.Path),
		SizeBytes: ix.Size(),
	})
}

// AddQueryPlan records the chosen plan for a query.
func (b *ChosenSchemaBuilder) AddQueryPlan(q *statement.Query, p *plan.Plan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.schema.QueryPlans = append(b.schema.QueryPlans, QueryPlanDescriptor{
		Query: q.String(),
		Steps: stepDescriptions(p.Steps),
		Cost:  p.Cost,
	})
	b.schema.TotalCost += p.Cost
}

// AddMutationPlan records the active update plans for a mutating
// statement.
func (b *ChosenSchemaBuilder) AddMutationPlan(s statement.Statement, ups []*updateplanner.UpdatePlan) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, up := range ups {
		desc := MutationPlanDescriptor{
			Statement: s.String(),
			Index:     up.Index.Key(),
		}
		if up.SupportQuery != nil {
			desc.SupportQuery = up.SupportQuery.String()
		}
		for _, step := range up.Steps {
			desc.Steps = append(desc.Steps, step.Kind().String())
		}
		b.schema.MutationPlans = append(b.schema.MutationPlans, desc)
	}
}

// Build finalizes and returns the chosen schema.
func (b *ChosenSchemaBuilder) Build() *ChosenSchema {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.schema.DurationMS = float64(time.Since(b.start).Microseconds()) / 1000.0
	return b.schema
}
