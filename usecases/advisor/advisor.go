//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package advisor wires the core pipeline end to end: enumerate
// candidates, plan queries and mutations, solve SearchMILP, and render
// the chosen-schema output (spec.md §2's data flow, run by
// cmd/nose and adapters/cli as a single batch call).
package advisor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/observability"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/entities/workload"
	"github.com/nose-project/nose/usecases/config"
	"github.com/nose-project/nose/usecases/costmodel"
	"github.com/nose-project/nose/usecases/enumerator"
	"github.com/nose-project/nose/usecases/metrics"
	"github.com/nose-project/nose/usecases/milp"
	"github.com/nose-project/nose/usecases/planner"
	"github.com/nose-project/nose/usecases/updateplanner"
)

// Advisor runs the full enumerate→plan→solve pipeline over a fixed
// model and configuration.
type Advisor struct {
	Model   *model.Model
	Config  *config.AdvisorConfig
	Log     *logrus.Entry
	Metrics *metrics.Collector
}

// New builds an Advisor. log and metricsCollector may be nil, in
// which case logging and metrics collection are skipped.
func New(m *model.Model, cfg *config.AdvisorConfig, log *logrus.Entry, metricsCollector *metrics.Collector) *Advisor {
	return &Advisor{Model: m, Config: cfg, Log: log, Metrics: metricsCollector}
}

func (a *Advisor) logf(format string, args ...interface{}) {
	if a.Log != nil {
		a.Log.Infof(format, args...)
	}
}

func (a *Advisor) costModel() costmodel.CostModel {
	if a.Config.CostModel == "field_size" {
		return costmodel.FieldSize{Model: a.Model}
	}
	return costmodel.EntryCount{}
}

// Run executes one SearchMILP pass over w (spec.md §2's non-time-
// varying path).
func (a *Advisor) Run(ctx context.Context, w *workload.Workload) (*observability.ChosenSchema, error) {
	if a.Config.Search.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Config.Search.Deadline)
		defer cancel()
	}

	enum := enumerator.New(a.Model)
	up := updateplanner.New(a.Model)

	a.logf("enumerating candidate indexes")
	candidates, err := enum.IndexesForWorkload(w, up)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate candidates")
	}
	a.logf("enumerated %d candidate indexes", candidates.Len())
	if a.Metrics != nil {
		a.Metrics.CandidateIndexes.Set(float64(candidates.Len()))
	}

	cm := a.costModel()
	pl := planner.New(a.Model, cm)

	planStart := time.Now()
	plansByQuery, err := pl.PlanAll(ctx, w.Queries(), candidates, a.Config.Search.Workers)
	if a.Metrics != nil {
		a.Metrics.ObservePlanner(time.Since(planStart))
	}
	if err != nil {
		return nil, errors.Wrap(err, "plan queries")
	}

	updatePlans := make(map[statement.Statement][]*updateplanner.UpdatePlan, len(w.Mutations()))
	for _, mut := range w.Mutations() {
		ups, err := up.Plan(mut, candidates)
		if err != nil {
			return nil, errors.Wrap(err, "plan mutation")
		}
		updatePlans[mut] = ups
	}

	weight := make(map[statement.Statement]float64, len(w.Statements))
	for _, ws := range w.Statements {
		weight[ws.Statement] = ws.Weight
	}

	problem := milp.Problem{
		Indexes:       candidates.Sorted(),
		Queries:       w.Queries(),
		PlansByQuery:  plansByQuery,
		Mutations:     w.Mutations(),
		UpdatePlans:   updatePlans,
		Weight:        weight,
		StorageBudget: a.Config.StorageBudget,
		CostModel:     cm,
	}

	solveStart := time.Now()
	sol, err := milp.Solve(ctx, problem)
	if a.Metrics != nil {
		a.Metrics.ObserveSolver(time.Since(solveStart), err == nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "solve search milp")
	}
	a.logf("chose %d indexes, total cost %.2f", len(sol.ChosenIndexes), sol.TotalCost)

	builder := observability.NewChosenSchemaBuilder(a.Model)
	for _, ix := range sol.ChosenIndexes {
		builder.AddIndex(ix)
	}
	for _, q := range w.Queries() {
		if p, ok := sol.ChosenPlan[q]; ok {
			builder.AddQueryPlan(q, p)
		}
	}
	for _, mut := range w.Mutations() {
		builder.AddMutationPlan(mut, sol.ChosenUpdatePlan[mut])
	}

	schema := builder.Build()
	schema.TotalCost = sol.TotalCost
	if a.Metrics != nil {
		var size int64
		for _, ix := range sol.ChosenIndexes {
			size += ix.Size()
		}
		a.Metrics.ObserveRun(candidates.Len(), len(sol.ChosenIndexes), size)
	}
	return schema, nil
}

// RunTimeVarying executes one SearchMILP pass per mix of a time-
// varying workload (spec.md §6: "the MILP becomes T-indexed;
// constraints replicate per time step and storage constraint applies
// per step"), returning one ChosenSchema per mix label.
func (a *Advisor) RunTimeVarying(ctx context.Context, w *workload.Workload) (map[string]*observability.ChosenSchema, error) {
	out := make(map[string]*observability.ChosenSchema, len(w.Mixes()))
	for _, mix := range w.Mixes() {
		schema, err := a.Run(ctx, w.ForMix(mix))
		if err != nil {
			return nil, errors.Wrapf(err, "mix %s", mix)
		}
		out[mix] = schema
	}
	return out, nil
}
