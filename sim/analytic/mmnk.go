// Package analytic computes closed-form steady-state metrics of Markovian queues.
// Used as a reference for simulated results; it has no dependency on sim/.
package analytic

import (
	"bytes"
	"fmt"
	"math"

	"github.com/llm-inferno/queue-analysis/pkg/queue"
)

// MMnKModel is an M/M/n queue with room for K waiting jobs (n+K in system).
// It is solved as a birth-death chain with state-dependent service rate
// min(k, n)·mu, the same chain queue-analysis uses for batched servers.
type MMnKModel struct {
	Servers  int // n
	Capacity int // K, waiting room excluding jobs in service

	lambda float64
	mu     float64
	model  *queue.MM1ModelStateDependent
}

// NewMMnKModel creates a model with n servers and K waiting places.
// The chain needs at least two states beyond empty, so n+K must be >= 2.
func NewMMnKModel(servers, capacity int) (*MMnKModel, error) {
	if servers <= 0 {
		return nil, fmt.Errorf("servers must be positive, got %d", servers)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("capacity must be non-negative, got %d", capacity)
	}
	if servers+capacity < 2 {
		return nil, fmt.Errorf("servers+capacity must be at least 2, got %d", servers+capacity)
	}
	return &MMnKModel{Servers: servers, Capacity: capacity}, nil
}

// Solve computes state probabilities for arrival rate lambda and per-server service rate mu.
func (m *MMnKModel) Solve(lambda, mu float64) error {
	if !(lambda > 0) || !(mu > 0) || math.IsInf(lambda, 0) || math.IsInf(mu, 0) {
		return fmt.Errorf("rates must be positive and finite, got lambda=%g mu=%g", lambda, mu)
	}

	// servRate[k] is the departure rate with k+1 jobs in system
	servRate := make([]float32, m.Servers)
	for k := range servRate {
		servRate[k] = float32(k+1) * float32(mu)
	}
	// a fresh model per solve: the library seeds its validity check from the previous solution
	model := queue.NewMM1ModelStateDependent(m.Servers+m.Capacity, servRate)
	model.Solve(float32(lambda), float32(mu))
	if !model.IsValid() {
		m.model = nil
		return fmt.Errorf("queue model rejected lambda=%g mu=%g: %s", lambda, mu, model)
	}
	m.lambda, m.mu = lambda, mu
	m.model = model
	return nil
}

// Prob returns the steady-state probability of k jobs in system.
func (m *MMnKModel) Prob(k int) float64 {
	if m.model == nil {
		return 0
	}
	p := m.model.GetProbabilities()
	if k < 0 || k >= len(p) {
		return 0
	}
	return p[k]
}

// BlockingProbability is the fraction of offered arrivals that find the system full.
func (m *MMnKModel) BlockingProbability() float64 {
	return m.Prob(m.Servers + m.Capacity)
}

// RejectionRatio is rejected per accepted arrival, pB/(1-pB). This matches how the
// simulator reports rejection rate.
func (m *MMnKModel) RejectionRatio() float64 {
	pb := m.BlockingProbability()
	if pb >= 1 {
		return math.Inf(1)
	}
	return pb / (1 - pb)
}

// Throughput is the effective (departure) rate.
func (m *MMnKModel) Throughput() float64 {
	if m.model == nil {
		return 0
	}
	return float64(m.model.GetThroughput())
}

// AvgQueueLength is the mean number of waiting jobs.
func (m *MMnKModel) AvgQueueLength() float64 {
	if m.model == nil {
		return 0
	}
	return float64(m.model.GetAvgQueueLength())
}

// AvgWaitTime is the mean time an accepted job spends queued.
func (m *MMnKModel) AvgWaitTime() float64 {
	if m.model == nil {
		return 0
	}
	return float64(m.model.GetAvgWaitTime())
}

// Utilization is the mean fraction of time each server is busy.
func (m *MMnKModel) Utilization() float64 {
	if m.model == nil {
		return 0
	}
	return float64(m.model.GetAvgNumInServers()) / float64(m.Servers)
}

func (m *MMnKModel) String() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "M/M/%d/%d: lambda=%v; mu=%v; ", m.Servers, m.Servers+m.Capacity, m.lambda, m.mu)
	fmt.Fprintf(&b, "pB=%v; X=%v; Lq=%v; Wq=%v; U=%v",
		m.BlockingProbability(), m.Throughput(), m.AvgQueueLength(), m.AvgWaitTime(), m.Utilization())
	return b.String()
}
