package sim

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatistics_Reset_ZeroesEverything(t *testing.T) {
	s := Statistics{JobCount: 3, RejectedJobs: 2, CompletedJobs: 1, TotalWaitingTime: 4.5, BusyTime: 9}
	s.Reset()
	assert.Equal(t, Statistics{}, s)
}

func TestNewResults_Derivations(t *testing.T) {
	// GIVEN 4 accepted, 1 rejected, 3 completed over 10 time units on 2 servers
	s := Statistics{JobCount: 4, RejectedJobs: 1, CompletedJobs: 3, TotalWaitingTime: 2, BusyTime: 5}

	r := newResults(s, 10, 2)

	assert.Equal(t, 0.5, r.AverageWaitTime)
	assert.Equal(t, 0.25, r.RejectionRate)
	assert.Equal(t, 0.3, r.Throughput)
	assert.Equal(t, 0.25, r.Utilization)
	assert.Equal(t, int64(3), r.CompletedJobs)
	assert.Equal(t, int64(4), r.JobCount)
	assert.Equal(t, int64(1), r.RejectedJobs)
}

func TestNewResults_NoJobs(t *testing.T) {
	r := newResults(Statistics{RejectedJobs: 3}, 10, 1)
	assert.True(t, math.IsInf(r.AverageWaitTime, 1))
	assert.Equal(t, 0.0, r.RejectionRate)
}

func TestResults_Print(t *testing.T) {
	var buf bytes.Buffer
	Results{JobCount: 5, CompletedJobs: 5}.Print(&buf)
	assert.Contains(t, buf.String(), "Simulation Results")
	assert.Contains(t, buf.String(), "Accepted Jobs        : 5")
}
