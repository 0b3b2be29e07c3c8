// Tracks the running counters and the final results record of a simulation run.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// Statistics is the warm-up-aware running accumulator.
// Mutated by arrivals (accept/reject), by service start (wait time) and by
// completions; reset exactly once at the end of warm-up.
type Statistics struct {
	JobCount         int64   // jobs accepted since the last reset
	RejectedJobs     int64   // arrivals refused because the queue was full
	CompletedJobs    int64   // services finished since the last reset
	TotalWaitingTime float64 // sum of waits, credited at service start
	BusyTime         float64 // server-time spent serving, summed over servers
}

// Reset zeroes every counter.
func (s *Statistics) Reset() {
	*s = Statistics{}
}

// Results is the read-only snapshot returned once the run ends.
type Results struct {
	AverageWaitTime float64 `json:"average_wait_time" yaml:"average_wait_time"`
	RejectionRate   float64 `json:"rejection_rate" yaml:"rejection_rate"`
	CompletedJobs   int64   `json:"completed_jobs" yaml:"completed_jobs"`
	JobCount        int64   `json:"job_count" yaml:"job_count"`
	RejectedJobs    int64   `json:"rejected_jobs" yaml:"rejected_jobs"`
	Throughput      float64 `json:"throughput" yaml:"throughput"`
	Utilization     float64 `json:"utilization" yaml:"utilization"`
}

// newResults derives the results record from final counters.
// measured is the span the counters cover; servers the pool size.
func newResults(s Statistics, measured float64, servers int) Results {
	r := Results{
		AverageWaitTime: math.Inf(1),
		CompletedJobs:   s.CompletedJobs,
		JobCount:        s.JobCount,
		RejectedJobs:    s.RejectedJobs,
	}
	if s.JobCount > 0 {
		r.AverageWaitTime = s.TotalWaitingTime / float64(s.JobCount)
		r.RejectionRate = float64(s.RejectedJobs) / float64(s.JobCount)
	}
	if measured > 0 {
		r.Throughput = float64(s.CompletedJobs) / measured
		r.Utilization = s.BusyTime / (measured * float64(servers))
	}
	return r
}

// MarshalJSON encodes an infinite average wait as null; JSON has no infinity.
func (r Results) MarshalJSON() ([]byte, error) {
	type alias Results
	out := struct {
		alias
		AverageWaitTime *float64 `json:"average_wait_time"`
	}{alias: alias(r)}
	if !math.IsInf(r.AverageWaitTime, 0) && !math.IsNaN(r.AverageWaitTime) {
		v := r.AverageWaitTime
		out.AverageWaitTime = &v
	}
	return json.Marshal(out)
}

// Print writes a human-readable summary.
func (r Results) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintf(w, "Accepted Jobs        : %d\n", r.JobCount)
	fmt.Fprintf(w, "Completed Jobs       : %d\n", r.CompletedJobs)
	fmt.Fprintf(w, "Rejected Jobs        : %d\n", r.RejectedJobs)
	fmt.Fprintf(w, "Average Wait Time    : %.4f\n", r.AverageWaitTime)
	fmt.Fprintf(w, "Rejection Rate       : %.4f\n", r.RejectionRate)
	fmt.Fprintf(w, "Throughput           : %.4f\n", r.Throughput)
	fmt.Fprintf(w, "Utilization          : %.4f\n", r.Utilization)
}
