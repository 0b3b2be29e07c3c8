//go:build ignore

package sim

// H2 Erlang Agreement Experiment
//
// Hypothesis: for exponential arrivals and service the simulated rejection
// rate and mean wait converge to the M/M/n/K closed form, including in
// overload (load > 1) where the waiting room is the only bound.
//
// Method:
//   For n in {1, 2, 4, 8}, K in {2, 10}, load in {0.5, 0.9, 1.2}:
//   1. Solve the analytic model for lambda = load*n, mu = 1
//   2. Simulate 100k time units after a 2k warm-up
//   3. Record relative error of wait and absolute error of rejection rate

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/inference-sim/queue-sim/sim/analytic"
	"github.com/inference-sim/queue-sim/sim/workload"
)

func h2OutputDir() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return filepath.Join("hypotheses", "h-discipline", "h2-erlang-agreement", "output")
	}
	repoRoot := filepath.Dir(filepath.Dir(filename))
	return filepath.Join(repoRoot, "hypotheses", "h-discipline", "h2-erlang-agreement", "output")
}

func TestH2_ErlangAgreement(t *testing.T) {
	outDir := h2OutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(outDir, "h2_results.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	_ = w.Write([]string{"servers", "capacity", "load", "sim_wait", "model_wait", "wait_rel_err", "sim_reject", "model_reject", "reject_abs_err"})

	for _, n := range []int{1, 2, 4, 8} {
		for _, k := range []int{2, 10} {
			for _, load := range []float64{0.5, 0.9, 1.2} {
				lambda := load * float64(n)
				m, err := analytic.NewMMnKModel(n, k)
				if err != nil {
					t.Fatal(err)
				}
				if err := m.Solve(lambda, 1); err != nil {
					t.Fatal(err)
				}

				s, err := NewSimulator(SimConfig{
					Arrival:       workload.Exponential(1 / lambda),
					Service:       workload.Exponential(1),
					Servers:       n,
					Discipline:    DisciplineFIFO,
					QueueCapacity: k,
					Duration:      102000,
					Warmup:        2000,
					Seed:          int64(n*100 + k),
				})
				if err != nil {
					t.Fatal(err)
				}
				if err := s.Run(); err != nil {
					t.Fatal(err)
				}
				r, _ := s.Results()

				waitErr := math.Abs(r.AverageWaitTime-m.AvgWaitTime()) / math.Max(m.AvgWaitTime(), 1e-9)
				rejErr := math.Abs(r.RejectionRate - m.RejectionRatio())
				t.Logf("n=%d K=%d load=%.1f wait %.4f/%.4f reject %.4f/%.4f", n, k, load, r.AverageWaitTime, m.AvgWaitTime(), r.RejectionRate, m.RejectionRatio())
				_ = w.Write([]string{
					strconv.Itoa(n), strconv.Itoa(k), strconv.FormatFloat(load, 'f', 2, 64),
					strconv.FormatFloat(r.AverageWaitTime, 'f', 6, 64),
					strconv.FormatFloat(m.AvgWaitTime(), 'f', 6, 64),
					strconv.FormatFloat(waitErr, 'f', 4, 64),
					strconv.FormatFloat(r.RejectionRate, 'f', 6, 64),
					strconv.FormatFloat(m.RejectionRatio(), 'f', 6, 64),
					strconv.FormatFloat(rejErr, 'f', 4, 64),
				})
			}
		}
	}
}
