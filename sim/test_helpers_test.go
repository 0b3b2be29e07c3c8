package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim/workload"
)

// deterministicConfig is the single-server scenario with fixed gaps of 2 and services of 1.
func deterministicConfig() SimConfig {
	return SimConfig{
		Arrival:       workload.Constant(2.0),
		Service:       workload.Constant(1.0),
		Servers:       1,
		Discipline:    DisciplineFIFO,
		QueueCapacity: 10,
		Duration:      10,
		Warmup:        0,
		Seed:          42,
	}
}

// seqSampler returns vals in order and then repeats the last value forever.
func seqSampler(vals ...float64) workload.Sampler {
	i := 0
	return workload.SamplerFunc(func() float64 {
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v
	})
}

// runToResults builds, runs and returns the results of cfg.
func runToResults(t *testing.T, cfg SimConfig) Results {
	t.Helper()
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run())
	r, err := s.Results()
	require.NoError(t, err)
	return r
}

func jobIDs(jobs []*Job) []int64 {
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}
