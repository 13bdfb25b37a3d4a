package statement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/statement"
)

func buildModel(t *testing.T) (*model.Model, model.EntityID, model.EntityID) {
	t.Helper()
	b := model.NewBuilder()
	user := b.AddEntity("User", 1000)
	user.AddIdentifier("id", 8).AddScalar("username", model.FieldString, 32)
	userID := user.ID()
	user.Done()

	article := b.AddEntity("Article", 100000)
	article.AddIdentifier("id", 8).
		AddScalar("title", model.FieldString, 128).
		AddForeignKey("author", userID, 8, false)
	articleID := article.ID()
	article.Done()

	m, err := b.Build()
	require.NoError(t, err)
	return m, userID, articleID
}

func idField(t *testing.T, m *model.Model, eid model.EntityID) model.FieldID {
	t.Helper()
	e, ok := m.EntityByID(eid)
	require.True(t, ok)
	return e.Identifier().ID
}

func TestNewQueryRequiresEqualityPredicate(t *testing.T) {
	m, userID, _ := buildModel(t)
	idF := idField(t, m, userID)

	_, err := statement.NewQuery(m, model.Path{userID}, nil, nil, nil, nil)
	require.Error(t, err)

	_, err = statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.NoError(t, err)
}

func TestNewQueryRejectsMultipleRangePredicates(t *testing.T) {
	m, userID, articleID := buildModel(t)
	idF := idField(t, m, userID)
	article, _ := m.EntityByID(articleID)
	titleField, _ := article.Field("title")

	path := model.Path{userID, articleID}
	conds := []statement.Condition{
		{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq},
		{FieldRef: model.FieldRef{Entity: articleID, Field: titleField.ID}, Op: statement.OpGt},
		{FieldRef: model.FieldRef{Entity: articleID, Field: titleField.ID}, Op: statement.OpLt},
	}
	_, err := statement.NewQuery(m, path, nil, conds, nil, nil)
	require.Error(t, err)
}

func TestNewQueryRejectsForeignKeyPredicate(t *testing.T) {
	m, userID, articleID := buildModel(t)
	article, _ := m.EntityByID(articleID)
	authorField, _ := article.Field("author")

	path := model.Path{userID, articleID}
	conds := []statement.Condition{
		{FieldRef: model.FieldRef{Entity: articleID, Field: authorField.ID}, Op: statement.OpEq},
	}
	_, err := statement.NewQuery(m, path, nil, conds, nil, nil)
	require.Error(t, err)
}

func TestNewQueryRejectsFieldOffPath(t *testing.T) {
	m, userID, articleID := buildModel(t)
	idF := idField(t, m, userID)
	article, _ := m.EntityByID(articleID)
	titleField, _ := article.Field("title")

	_, err := statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: articleID, Field: titleField.ID}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.Error(t, err)
}

func TestConditionEqualIgnoresValue(t *testing.T) {
	ref := model.FieldRef{Entity: 0, Field: 0}
	a := statement.Condition{FieldRef: ref, Op: statement.OpEq, HasValue: true, Value: 1}
	b := statement.Condition{FieldRef: ref, Op: statement.OpEq, HasValue: true, Value: 2}
	require.True(t, a.Equal(b))
}

func TestIsMutating(t *testing.T) {
	m, userID, _ := buildModel(t)
	idF := idField(t, m, userID)
	q, err := statement.NewQuery(m, model.Path{userID},
		[]model.FieldRef{{Entity: userID, Field: idF}},
		[]statement.Condition{{FieldRef: model.FieldRef{Entity: userID, Field: idF}, Op: statement.OpEq}},
		nil, nil)
	require.NoError(t, err)
	require.False(t, statement.IsMutating(q))

	ins, err := statement.NewInsert(m, userID, nil)
	require.NoError(t, err)
	require.True(t, statement.IsMutating(ins))
}

func TestNewUpdatePathMustEndAtTarget(t *testing.T) {
	m, userID, articleID := buildModel(t)
	_, err := statement.NewUpdate(m, userID, model.Path{articleID, userID}, nil, nil)
	require.NoError(t, err)

	_, err = statement.NewUpdate(m, userID, model.Path{userID, articleID}, nil, nil)
	require.Error(t, err)
}

func TestNewInsertRejectsUnknownEntity(t *testing.T) {
	m, _, _ := buildModel(t)
	_, err := statement.NewInsert(m, model.EntityID(99), nil)
	require.Error(t, err)
}
