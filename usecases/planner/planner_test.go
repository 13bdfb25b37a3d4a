package planner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/costmodel"
	"github.com/nose-project/nose/usecases/planner"
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

func TestPlanFindsSingleIndexLookupPlan(t *testing.T) {
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

	pl := planner.New(m, costmodel.EntryCount{})
	plans, err := pl.Plan(q, index.NewSet(ix))
	require.NoError(t, err)
	require.NotEmpty(t, plans)

	for _, p := range plans {
		require.NotEmpty(t, p.IndexesUsed())
	}
}

func TestPlanReturnsNoPlanWithoutUsableIndex(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	_ = usernameF

	q, err := statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.NoError(t, err)

	pl := planner.New(m, costmodel.EntryCount{})
	_, err = pl.Plan(q, index.NewSet())
	require.Error(t, err)

	var noPlan nerr.NoPlan
	require.ErrorAs(t, err, &noPlan)
}

func TestPlanAllPlansEveryQuery(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)

	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		nil, model.Path{userID})
	require.NoError(t, err)

	q1, err := statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.NoError(t, err)

	pl := planner.New(m, costmodel.EntryCount{})
	results, err := pl.PlanAll(context.Background(), []*statement.Query{q1}, index.NewSet(ix), 2)
	require.NoError(t, err)
	require.Contains(t, results, q1)
	require.NotEmpty(t, results[q1])
}
