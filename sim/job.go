// Defines the Job struct that models a single unit of work flowing through the station.

package sim

import "fmt"

// Job is created by the arrival process and is immutable afterwards.
// ServiceTime is sampled at creation: it is both the exact service duration
// and the ordering key under shortest-job-first.
type Job struct {
	ID          int64   // sequential from 0, assigned only to accepted arrivals
	ArrivalTime float64 // virtual time of creation
	ServiceTime float64 // fixed service duration
}

// WaitUntil returns how long the job has waited if it leaves the queue at now.
func (j *Job) WaitUntil(now float64) float64 {
	return now - j.ArrivalTime
}

func (j Job) String() string {
	return fmt.Sprintf("Job: (ID: %d, ArrivalTime: %.3f, ServiceTime: %.3f)", j.ID, j.ArrivalTime, j.ServiceTime)
}
