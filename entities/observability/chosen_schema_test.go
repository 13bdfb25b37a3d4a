package observability_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/observability"
	"github.com/nose-project/nose/entities/plan"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/updateplanner"
)

func buildUserModel(t *testing.T) (*model.Model, model.EntityID, model.FieldID, model.FieldID) {
	t.Helper()
	b := model.NewBuilder()
	user := b.AddEntity("User", 1000)
	user.AddIdentifier("id", 8).AddScalar("username", model.FieldString, 32)
	userID := user.ID()
	user.Done()

	m, err := b.Build()
	require.NoError(t, err)
	e, _ := m.EntityByID(userID)
	usernameField, _ := e.Field("username")
	return m, userID, e.Identifier().ID, usernameField.ID
}

func TestBuildAccumulatesIndexesQueryPlansAndMutationPlans(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)

	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		nil, model.Path{userID})
	require.NoError(t, err)

	q, err := statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.NoError(t, err)
	p := &plan.Plan{Steps: []plan.Step{&plan.IndexLookup{Index: ix}}, Cost: 2.5}

	ins, err := statement.NewInsert(m, userID, []statement.Setting{
		{FieldRef: model.FieldRef{Entity: userID, Field: idF}, HasValue: true, Value: 1},
	})
	require.NoError(t, err)
	ups := []*updateplanner.UpdatePlan{{
		Statement: ins,
		Index:     ix,
		Steps:     []updateplanner.UpdateStep{&updateplanner.InsertStep{Index: ix}},
	}}

	b := observability.NewChosenSchemaBuilder(m)
	b.AddIndex(ix)
	b.AddQueryPlan(q, p)
	b.AddMutationPlan(ins, ups)

	schema := b.Build()
	require.NotEmpty(t, schema.RunID)
	require.Len(t, schema.Indexes, 1)
	require.Equal(t, ix.Key(), schema.Indexes[0].Key)
	require.Equal(t, []string{"User.id"}, schema.Indexes[0].Hash)
	require.Equal(t, []string{"User.username"}, schema.Indexes[0].Extra)

	require.Len(t, schema.QueryPlans, 1)
	require.Equal(t, 2.5, schema.TotalCost)

	require.Len(t, schema.MutationPlans, 1)
	require.Equal(t, ix.Key(), schema.MutationPlans[0].Index)
	require.Empty(t, schema.MutationPlans[0].SupportQuery)
	require.Equal(t, []string{"InsertStep"}, schema.MutationPlans[0].Steps)
}
