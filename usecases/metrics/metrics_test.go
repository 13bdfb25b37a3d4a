package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nose-project/nose/usecases/metrics"
)

func TestNewCollectorRegistersEveryMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)
	require.NotNil(t, c)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 6)
}

func TestObserveRunSetsGaugesToLatestRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.ObserveRun(42, 3, 2048)
	require.Equal(t, float64(42), testutil.ToFloat64(c.CandidateIndexes))
	require.Equal(t, float64(3), testutil.ToFloat64(c.ChosenIndexes))
	require.Equal(t, float64(2048), testutil.ToFloat64(c.ChosenStorage))
}

func TestObserveSolverIncrementsOutcomeByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.ObserveSolver(10*time.Millisecond, true)
	c.ObserveSolver(10*time.Millisecond, false)
	c.ObserveSolver(10*time.Millisecond, false)

	require.Equal(t, float64(1), testutil.ToFloat64(c.SolverOutcome.WithLabelValues("solved")))
	require.Equal(t, float64(2), testutil.ToFloat64(c.SolverOutcome.WithLabelValues("no_solution")))
}
