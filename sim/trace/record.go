// Package trace provides event-trace recording for queueing simulations.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// RejectionRecord captures an arrival refused because the queue was full.
type RejectionRecord struct {
	Clock    float64
	QueueLen int
}

// ServiceRecord captures a job starting or finishing service on a server.
type ServiceRecord struct {
	Clock  float64
	Server int
	JobID  int64
	Wait   float64 // time spent queued before service; same value on start and end records
}
