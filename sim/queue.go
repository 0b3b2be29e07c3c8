// Implements the bounded wait queue that holds jobs between arrival and dispatch.
// Jobs are offered on arrival and removed only by the dispatcher.

package sim

import (
	"container/heap"
	"fmt"
	"strings"
)

// JobQueue is a bounded container of waiting jobs. The discipline decides which
// job Next returns; the dispatcher depends only on this contract.
type JobQueue interface {
	// Offer inserts the job, returning false if the queue is at capacity.
	Offer(job *Job) bool
	// Peek returns the job Next would remove, or nil if empty.
	Peek() *Job
	// Next removes and returns the next job per discipline, or nil if empty.
	Next() *Job
	Len() int
	Empty() bool
	Cap() int
	// Items returns the waiting jobs in no guaranteed order.
	// Callers MUST NOT modify the returned slice.
	Items() []*Job
}

// NewJobQueue creates the queue implementation for a discipline.
// Panics on unrecognized disciplines; SimConfig.Validate rejects them first.
func NewJobQueue(d Discipline, capacity int) JobQueue {
	switch d {
	case DisciplineFIFO:
		return &FIFOQueue{capacity: capacity}
	case DisciplineSJF:
		return &SJFQueue{capacity: capacity}
	default:
		panic(fmt.Sprintf("unhandled queue discipline %q", d))
	}
}

// FIFOQueue releases jobs in insertion order.
type FIFOQueue struct {
	queue    []*Job
	capacity int
}

func (q *FIFOQueue) Offer(job *Job) bool {
	if job == nil {
		panic("Offer: job must not be nil")
	}
	if len(q.queue) >= q.capacity {
		return false
	}
	q.queue = append(q.queue, job)
	return true
}

func (q *FIFOQueue) Peek() *Job {
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

func (q *FIFOQueue) Next() *Job {
	if len(q.queue) == 0 {
		return nil
	}
	job := q.queue[0]
	q.queue[0] = nil
	q.queue = q.queue[1:]
	return job
}

func (q *FIFOQueue) Len() int      { return len(q.queue) }
func (q *FIFOQueue) Empty() bool   { return len(q.queue) == 0 }
func (q *FIFOQueue) Cap() int      { return q.capacity }
func (q *FIFOQueue) Items() []*Job { return q.queue }

func (q *FIFOQueue) String() string {
	return formatJobs(q.queue)
}

// SJFQueue releases the job with the smallest service time first.
// Ties go to the lower (earlier) job ID.
type SJFQueue struct {
	jobs     sjfHeap
	capacity int
}

func (q *SJFQueue) Offer(job *Job) bool {
	if job == nil {
		panic("Offer: job must not be nil")
	}
	if q.jobs.Len() >= q.capacity {
		return false
	}
	heap.Push(&q.jobs, job)
	return true
}

func (q *SJFQueue) Peek() *Job {
	if q.jobs.Len() == 0 {
		return nil
	}
	return q.jobs[0]
}

func (q *SJFQueue) Next() *Job {
	if q.jobs.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.jobs).(*Job)
}

func (q *SJFQueue) Len() int      { return q.jobs.Len() }
func (q *SJFQueue) Empty() bool   { return q.jobs.Len() == 0 }
func (q *SJFQueue) Cap() int      { return q.capacity }
func (q *SJFQueue) Items() []*Job { return q.jobs }

func (q *SJFQueue) String() string {
	return formatJobs(q.jobs)
}

// sjfHeap implements heap.Interface ordered by (ServiceTime, ID).
type sjfHeap []*Job

func (h sjfHeap) Len() int { return len(h) }
func (h sjfHeap) Less(i, j int) bool {
	if h[i].ServiceTime != h[j].ServiceTime {
		return h[i].ServiceTime < h[j].ServiceTime
	}
	return h[i].ID < h[j].ID
}
func (h sjfHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *sjfHeap) Push(x any) {
	*h = append(*h, x.(*Job))
}

func (h *sjfHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

func formatJobs(jobs []*Job) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, j := range jobs {
		sb.WriteString(fmt.Sprint(j.ID))
		if i < len(jobs)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
