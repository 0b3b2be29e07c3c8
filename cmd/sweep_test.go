package cmd

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim/workload"
)

func smallSweep() SweepConfig {
	sc := DefaultSweepConfig()
	sc.Base.Duration = 3000
	sc.Base.Warmup = 300
	sc.Servers = []int{1, 2}
	sc.Loads = []float64{0.5}
	sc.Seeds = []int64{1, 2, 3}
	return sc
}

func TestRunSweep_RowsPerGridPoint(t *testing.T) {
	// GIVEN 2 server counts x 1 load x 3 seeds
	sc := smallSweep()

	// WHEN the sweep runs
	rows, err := RunSweep(sc, 2)

	// THEN one row per grid point, each aggregating 3 replications near the target load
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i, n := range []int{1, 2} {
		assert.Equal(t, n, rows[i].Servers)
		assert.Equal(t, 0.5, rows[i].Load)
		assert.Equal(t, 3, rows[i].Replications)
		assert.InDelta(t, 0.5, rows[i].UtilMean, 0.05)
		assert.InDelta(t, 0.5, rows[i].AnalyticUtil, 0.001)
		assert.False(t, math.IsNaN(rows[i].AnalyticWait))
	}
}

func TestRunSweep_ParallelismDoesNotChangeResults(t *testing.T) {
	sc := smallSweep()

	serial, err := RunSweep(sc, 1)
	require.NoError(t, err)
	parallel, err := RunSweep(sc, 4)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestRunSweep_NonExponentialHasNoAnalyticReference(t *testing.T) {
	sc := smallSweep()
	sc.Base.Service = workload.Constant(1)
	sc.Servers = []int{1}

	rows, err := RunSweep(sc, 1)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, math.IsNaN(rows[0].AnalyticWait))
}

func TestSweepConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SweepConfig)
	}{
		{"no servers", func(c *SweepConfig) { c.Servers = nil }},
		{"no seeds", func(c *SweepConfig) { c.Seeds = nil }},
		{"zero load", func(c *SweepConfig) { c.Loads = []float64{0} }},
		{"service without mean", func(c *SweepConfig) { c.Base.Service = workload.DistSpec{Type: "pareto"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := DefaultSweepConfig()
			tt.mutate(&sc)
			assert.Error(t, sc.Validate())
		})
	}
	assert.NoError(t, DefaultSweepConfig().Validate())
}

func TestRunSweep_UnscalableArrival_Error(t *testing.T) {
	sc := smallSweep()
	sc.Base.Arrival = workload.DistSpec{Type: "uniform", Params: map[string]float64{"min": 0, "max": 2}}

	_, err := RunSweep(sc, 1)

	assert.Error(t, err)
}

func TestLoadSweepConfig(t *testing.T) {
	path := writeTempFile(t, `
base:
  queue_capacity: 5
  duration: 100
servers: [3]
loads: [0.9]
seeds: [7, 8]
`)
	sc, err := LoadSweepConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, sc.Base.QueueCapacity)
	assert.Equal(t, 100.0, sc.Base.Duration)
	assert.Equal(t, []int{3}, sc.Servers)
	assert.Equal(t, []float64{0.9}, sc.Loads)
	assert.Equal(t, []int64{7, 8}, sc.Seeds)
}

func TestLoadSweepConfig_UnknownField_Error(t *testing.T) {
	path := writeTempFile(t, "loadz: [0.5]\n")
	_, err := LoadSweepConfig(path)
	assert.Error(t, err)
}

func TestMeanStdErr(t *testing.T) {
	mean, se := meanStdErr([]float64{2})
	assert.Equal(t, 2.0, mean)
	assert.Equal(t, 0.0, se)

	mean, se = meanStdErr([]float64{1, 3})
	assert.Equal(t, 2.0, mean)
	assert.InDelta(t, 1.0, se, 1e-12) // std = sqrt(2), se = sqrt(2)/sqrt(2)
}

func TestAnalyticCmd_PrintsSteadyState(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"analytic", "--servers", "1", "--queue-capacity", "1", "--arrival-rate", "1", "--service-rate", "1"})

	require.NoError(t, rootCmd.Execute())

	// M/M/1/2 at a=1: p0=p1=p2=1/3
	assert.Contains(t, buf.String(), "Blocking Probability : 0.3333")
	assert.Contains(t, buf.String(), "Utilization          : 0.6667")
}

func TestExampleConfigs_Sweep(t *testing.T) {
	sc, err := LoadSweepConfig(filepath.Join("..", "examples", "sweep.yaml"))
	require.NoError(t, err, "failed to load sweep.yaml")

	require.NoError(t, sc.Validate())
	points, err := expandSweep(sc)
	require.NoError(t, err)
	assert.Len(t, points, 16)
	// defaults survive for fields the file omits
	assert.Equal(t, int64(42), sc.Base.Seed)
}
