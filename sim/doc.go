// Package sim provides the discrete-event engine for a multi-server queueing station.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - job.go: the immutable Job created by the arrival process
//   - event.go: Arrival, ServiceCompletion and WarmupEnd events
//   - simulator.go: the event loop, the dispatcher and the job lifecycle
//
// # Architecture
//
// Jobs flow Arrival → JobQueue → dispatcher → ServerPool → (completion) → dispatcher.
// The dispatcher runs after every accepted arrival and every completion, assigning
// waiting jobs to idle servers in ascending server index.
//
// Virtual time advances only between events. EventHeap orders events by
// (timestamp, type priority, registration sequence), so equal-time events resume in
// the order they were scheduled and runs are reproducible for a fixed seed.
//
// Sub-packages:
//   - sim/workload/: variate generators (DistSpec → zero-arg Sampler)
//   - sim/trace/: structured event trace recording
//   - sim/analytic/: closed-form M/M/n/K reference values
//
// # Key Interfaces
//
//   - JobQueue: bounded queue with FIFO or shortest-job-first discipline
//   - workload.Sampler: inter-arrival and service time source
//   - Event: a unit of work resumed by the event loop
package sim
