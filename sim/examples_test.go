package sim

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/queue-sim/sim/workload"
)

// TestExampleConfigs_MM1 verifies that mm1.yaml loads, validates and runs.
func TestExampleConfigs_MM1(t *testing.T) {
	// GIVEN the mm1.yaml example config
	cfg, err := LoadSimConfig(filepath.Join("..", "examples", "mm1.yaml"))
	require.NoError(t, err, "failed to load mm1.yaml")

	// THEN validation passes
	require.NoError(t, cfg.Validate())

	// THEN it describes a single FIFO server at 80% load
	assert.Equal(t, 1, cfg.Servers)
	assert.Equal(t, DisciplineFIFO, cfg.Discipline)
	assert.InDelta(t, 0.8, cfg.Service.Mean()/cfg.Arrival.Mean(), 1e-9)
}

// TestExampleConfigs_MMnSJF verifies that mmn-sjf.yaml loads and builds samplers.
func TestExampleConfigs_MMnSJF(t *testing.T) {
	cfg, err := LoadSimConfig(filepath.Join("..", "examples", "mmn-sjf.yaml"))
	require.NoError(t, err, "failed to load mmn-sjf.yaml")

	assert.Equal(t, 4, cfg.Servers)
	assert.Equal(t, DisciplineSJF, cfg.Discipline)
	assert.Equal(t, workload.DistSpec{Type: "gamma", Params: map[string]float64{"mean": 0.3, "cv": 2.0}}, cfg.Arrival)

	// THEN a shortened run completes with the queue never above capacity
	cfg.Duration = 2000
	cfg.Warmup = 100
	s, err := NewSimulator(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Run())
	assert.LessOrEqual(t, s.QueueLen(), cfg.QueueCapacity)
	r, err := s.Results()
	require.NoError(t, err)
	assert.Greater(t, r.RejectedJobs, int64(0), "load above 80% with 8 waiting places should reject")
}
