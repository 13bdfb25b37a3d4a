package cassandra_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/adapters/cassandra"
	"github.com/nose-project/nose/entities/observability"
)

func TestTableNameTruncatesLongKeys(t *testing.T) {
	require.Equal(t, "idx_abc", cassandra.TableName("abc"))
	require.Equal(t, "idx_0123456789ab", cassandra.TableName("0123456789abcdef"))
}

func TestCreateTableStatementsIncludePartitionAndClusterKeys(t *testing.T) {
	schema := &observability.ChosenSchema{
		Indexes: []observability.IndexDescriptor{{
			Key:   "0123456789abcdef",
			Hash:  []string{"User.id"},
			Order: []string{"User.username"},
			Extra: []string{"User.username"}, // duplicate across groups must collapse to one column
		}},
	}

	stmts := cassandra.CreateTableStatements(schema)
	require.Len(t, stmts, 1)
	require.Contains(t, stmts[0], "CREATE TABLE idx_0123456789ab")
	require.Contains(t, stmts[0], "User_id text")
	require.Contains(t, stmts[0], "PRIMARY KEY (User_id, User_username)")
	require.Contains(t, stmts[0], "WITH CLUSTERING ORDER BY (User_username ASC)")
	require.Equal(t, 1, countOccurrences(stmts[0], "User_username text"))
}

func TestCreateTableStatementOmitsClusteringWithoutOrderFields(t *testing.T) {
	schema := &observability.ChosenSchema{
		Indexes: []observability.IndexDescriptor{{
			Key:  "abc",
			Hash: []string{"User.id"},
		}},
	}

	stmts := cassandra.CreateTableStatements(schema)
	require.NotContains(t, stmts[0], "CLUSTERING ORDER BY")
}

func TestDropTableStatementsMatchTableNames(t *testing.T) {
	schema := &observability.ChosenSchema{
		Indexes: []observability.IndexDescriptor{{Key: "abc"}},
	}
	stmts := cassandra.DropTableStatements(schema)
	require.Equal(t, []string{"DROP TABLE IF EXISTS idx_abc;"}, stmts)
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
