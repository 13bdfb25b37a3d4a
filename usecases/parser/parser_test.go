package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/statement"
	"github.com/nose-project/nose/usecases/parser"
)

func buildUserArticleModel(t *testing.T) *model.Model {
	t.Helper()
	b := model.NewBuilder()
	user := b.AddEntity("User", 1000)
	user.AddIdentifier("id", 8).AddScalar("username", model.FieldString, 32)
	userID := user.ID()
	user.Done()

	b.AddEntity("Article", 10000).
		AddIdentifier("id", 8).
		AddScalar("title", model.FieldString, 128).
		AddForeignKey("author", userID, 8, false).
		Done()

	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestParseAndResolveSelectWithWhereOrderByLimit(t *testing.T) {
	m := buildUserArticleModel(t)
	stmt, err := parser.ParseAndResolve(m,
		"SELECT Article.title FROM User.Article WHERE User.id = ? ORDER BY Article.title LIMIT 10")
	require.NoError(t, err)
	require.Equal(t, statement.KindQuery, stmt.Kind())

	q := stmt.(*statement.Query)
	require.Len(t, q.Select, 1)
	require.Len(t, q.Conditions, 1)
	require.False(t, q.Conditions[0].HasValue) // bound at execution time, not parse time
	require.NotNil(t, q.Limit)
	require.Equal(t, 10, *q.Limit)
}

func TestParseAndResolveSelectStar(t *testing.T) {
	m := buildUserArticleModel(t)
	stmt, err := parser.ParseAndResolve(m, "SELECT * FROM User WHERE User.id = ?")
	require.NoError(t, err)
	q := stmt.(*statement.Query)
	require.Len(t, q.Select, 2) // id, username
}

func TestParseAndResolveUpdate(t *testing.T) {
	m := buildUserArticleModel(t)
	stmt, err := parser.ParseAndResolve(m, "UPDATE Article SET Article.title = ? WHERE Article.id = ?")
	require.NoError(t, err)
	require.Equal(t, statement.KindUpdate, stmt.Kind())
}

func TestParseAndResolveInsert(t *testing.T) {
	m := buildUserArticleModel(t)
	stmt, err := parser.ParseAndResolve(m, "INSERT INTO User SET User.id = ?, User.username = ?")
	require.NoError(t, err)
	require.Equal(t, statement.KindInsert, stmt.Kind())
}

func TestParseAndResolveDelete(t *testing.T) {
	m := buildUserArticleModel(t)
	stmt, err := parser.ParseAndResolve(m, "DELETE Article WHERE Article.id = ?")
	require.NoError(t, err)
	require.Equal(t, statement.KindDelete, stmt.Kind())
}

func TestParseRejectsUnknownKeyword(t *testing.T) {
	m := buildUserArticleModel(t)
	_, err := parser.ParseAndResolve(m, "MERGE User SET User.id = ?")
	require.Error(t, err)
	var parseErr nerr.ParseFailed
	require.ErrorAs(t, err, &parseErr)
}

func TestResolveRejectsUnknownEntity(t *testing.T) {
	m := buildUserArticleModel(t)
	_, err := parser.ParseAndResolve(m, "SELECT * FROM Ghost WHERE Ghost.id = ?")
	require.Error(t, err)
	var notFound nerr.EntityNotFound
	require.ErrorAs(t, err, &notFound)
}
