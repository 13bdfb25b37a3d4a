package workloaddsl_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/entities/model"
	"github.com/nose-project/nose/entities/workload"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

func byMix(wl *workload.Workload, mix string) []workload.WeightedStatement {
	var out []workload.WeightedStatement
	for _, ws := range wl.Statements {
		if ws.Mix == mix {
			out = append(out, ws)
		}
	}
	return out
}

func TestBuildResolvesEntitiesAndDefaultMixStatements(t *testing.T) {
	b := workloaddsl.New()

	user := b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32)
	userID := user.ID()
	b.AddEntity(user)

	b.AddEntity(b.Entity("Article", 100000).
		AddIdentifier("id", 8).
		AddScalar("title", model.FieldString, 128).
		AddForeignKey("author", userID, 8, false))

	b.Q("SELECT Article.title FROM User.Article WHERE User.id = ?", 1.0)
	b.Q("UPDATE User SET User.username = ? WHERE User.id = ?", 0.5)

	m, wl, err := b.Build()
	require.NoError(t, err)
	require.NotNil(t, m)

	_, ok := m.Entity("Article")
	require.True(t, ok)

	require.Len(t, byMix(wl, ""), 2)
}

func TestBuildGroupsStatementsUnderNamedMix(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))

	b.Q("SELECT User.username FROM User WHERE User.id = ?", 1.0)
	b.Group("peak", func(g *workloaddsl.Group) {
		g.Q("UPDATE User SET User.username = ? WHERE User.id = ?", 0.2)
	})

	_, wl, err := b.Build()
	require.NoError(t, err)

	require.Len(t, byMix(wl, ""), 1)
	require.Len(t, byMix(wl, "peak"), 1)
}

func TestTimeStepsAssignsOneMixLabelPerWeight(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))

	b.TimeSteps(3).F("SELECT User.username FROM User WHERE User.id = ?", []float64{0.1, 0.5, 0.9})

	_, wl, err := b.Build()
	require.NoError(t, err)

	require.Len(t, byMix(wl, "t0"), 1)
	require.Len(t, byMix(wl, "t1"), 1)
	require.Len(t, byMix(wl, "t2"), 1)
}

func TestTimeStepsFTruncatesExcessWeights(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))

	b.TimeSteps(2).F("SELECT User.username FROM User WHERE User.id = ?", []float64{0.1, 0.5, 0.9})

	_, wl, err := b.Build()
	require.NoError(t, err)

	require.Len(t, byMix(wl, "t0"), 1)
	require.Len(t, byMix(wl, "t1"), 1)
	require.Empty(t, byMix(wl, "t2"))
}

func TestBuildPropagatesResolveErrors(t *testing.T) {
	b := workloaddsl.New()
	b.AddEntity(b.Entity("User", 1000).
		AddIdentifier("id", 8).
		AddScalar("username", model.FieldString, 32))

	b.Q("SELECT Ghost.name FROM Ghost WHERE Ghost.id = ?", 1.0)

	_, _, err := b.Build()
	require.Error(t, err)
}
