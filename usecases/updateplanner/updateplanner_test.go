package updateplanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/index"
	"github.com/nose-project/nose/entities/model"
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

func TestModifiesTrueWhenSettingTouchesIndexField(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		nil, model.Path{userID})
	require.NoError(t, err)

	upd, err := statement.NewUpdate(m, userID, nil,
		[]statement.Setting{{FieldRef: model.FieldRef{Entity: userID, Field: usernameF}, HasValue: true, Value: "x"}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}})
	require.NoError(t, err)

	up := updateplanner.New(m)
	require.True(t, up.Modifies(upd, ix))
}

func TestInsertModifiesEveryIndexOfItsTarget(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		nil, model.Path{userID})
	require.NoError(t, err)

	ins, err := statement.NewInsert(m, userID, []statement.Setting{
		{FieldRef: model.FieldRef{Entity: userID, Field: idF}, HasValue: true, Value: 1},
	})
	require.NoError(t, err)

	up := updateplanner.New(m)
	require.True(t, up.Modifies(ins, ix))
}

func TestPlanEmitsInsertAndDeleteForRelocatingUpdate(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		[]model.FieldRef{{Entity: userID, Field: idF}},
		nil, model.Path{userID})
	require.NoError(t, err)

	upd, err := statement.NewUpdate(m, userID, nil,
		[]statement.Setting{{FieldRef: model.FieldRef{Entity: userID, Field: usernameF}, HasValue: true, Value: "new"}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}})
	require.NoError(t, err)

	up := updateplanner.New(m)
	plans, err := up.Plan(upd, index.NewSet(ix))
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Steps, 2) // username is hashed, so the row relocates
}

func TestPlanEmitsOnlyInsertWhenKeyFieldsUntouched(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		nil,
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		model.Path{userID})
	require.NoError(t, err)

	upd, err := statement.NewUpdate(m, userID, nil,
		[]statement.Setting{{FieldRef: model.FieldRef{Entity: userID, Field: usernameF}, HasValue: true, Value: "new"}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}})
	require.NoError(t, err)

	up := updateplanner.New(m)
	plans, err := up.Plan(upd, index.NewSet(ix))
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Len(t, plans[0].Steps, 1)
}

func TestSupportQueryNilWhenHashAlreadySupplied(t *testing.T) {
	m, userID, idF, usernameF := buildUserModel(t)
	ix, err := index.New(m,
		[]model.FieldRef{{Entity: userID, Field: idF}},
		nil,
		[]model.FieldRef{{Entity: userID, Field: usernameF}},
		model.Path{userID})
	require.NoError(t, err)

	ins, err := statement.NewInsert(m, userID, []statement.Setting{
		{FieldRef: model.FieldRef{Entity: userID, Field: idF}, HasValue: true, Value: 1},
	})
	require.NoError(t, err)

	up := updateplanner.New(m)
	sq, err := up.SupportQuery(ins, ix)
	require.NoError(t, err)
	require.Nil(t, sq)
}
