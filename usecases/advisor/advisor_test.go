package advisor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/usecases/advisor"
	"github.com/nose-project/nose/usecases/config"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

func TestRunProducesASchemaCoveringEveryQuery(t *testing.T) {
	b := workloaddsl.New()
	user := b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32)
	b.AddEntity(user)

	b.Q("SELECT User.username FROM User WHERE User.id = ?", 1.0)
	b.Q("UPDATE User SET User.username = ? WHERE User.id = ?", 0.2)

	m, w, err := b.Build()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.StorageBudget = 1024 * 1024

	a := advisor.New(m, &cfg, nil, nil)
	schema, err := a.Run(context.Background(), w)
	require.NoError(t, err)

	require.NotEmpty(t, schema.RunID)
	require.NotEmpty(t, schema.Indexes)
	require.Len(t, schema.QueryPlans, 1)
	require.NotEmpty(t, schema.MutationPlans)
}

func TestRunReturnsNoSolutionWhenBudgetTooSmall(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))
	b.Q("SELECT User.username FROM User WHERE User.id = ?", 1.0)

	m, w, err := b.Build()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.StorageBudget = 1 // too small for any index

	a := advisor.New(m, &cfg, nil, nil)
	_, err = a.Run(context.Background(), w)
	require.Error(t, err)
}

func TestRunTimeVaryingProducesOneSchemaPerMix(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))

	b.TimeSteps(2).F("SELECT User.username FROM User WHERE User.id = ?", []float64{0.1, 0.9})

	m, w, err := b.Build()
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	a := advisor.New(m, &cfg, nil, nil)

	schemas, err := a.RunTimeVarying(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	require.Contains(t, schemas, "t0")
	require.Contains(t, schemas, "t1")
}
