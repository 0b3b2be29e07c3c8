package sim

import "github.com/sirupsen/logrus"

// EventType identifies the kind of an event for ordering and logging.
type EventType string

const (
	EventTypeArrival           EventType = "Arrival"
	EventTypeServiceCompletion EventType = "ServiceCompletion"
	EventTypeWarmupEnd         EventType = "WarmupEnd"
)

// priority orders events that share a timestamp; lower runs first.
// Arrivals and completions share a class, so among them registration order decides.
// The warm-up reset runs after everything else scheduled at its instant.
func (t EventType) priority() int {
	switch t {
	case EventTypeWarmupEnd:
		return 1
	default:
		return 0
	}
}

// Event defines the interface for all simulation events.
// Each event has a virtual Timestamp and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() float64
	Type() EventType
	Seq() uint64
	setSeq(seq uint64)
	Execute(*Simulator) error
}

// BaseEvent provides common event fields
type BaseEvent struct {
	time      float64
	seq       uint64
	eventType EventType
}

func newBaseEvent(time float64, eventType EventType) BaseEvent {
	return BaseEvent{time: time, eventType: eventType}
}

func (e *BaseEvent) Timestamp() float64 { return e.time }
func (e *BaseEvent) Type() EventType    { return e.eventType }
func (e *BaseEvent) Seq() uint64        { return e.seq }
func (e *BaseEvent) setSeq(seq uint64)  { e.seq = seq }

// ArrivalEvent is one cycle of the arrival process: offer a job, then schedule
// the next arrival after a sampled gap.
type ArrivalEvent struct {
	BaseEvent
}

// NewArrivalEvent creates an arrival at time t.
func NewArrivalEvent(t float64) *ArrivalEvent {
	return &ArrivalEvent{BaseEvent: newBaseEvent(t, EventTypeArrival)}
}

// Execute admits or rejects an arrival and schedules the next one.
func (e *ArrivalEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< Arrival at %.3f", e.time)
	if err := sim.handleArrival(); err != nil {
		return err
	}
	gap, err := sim.sample(sim.arrival, "inter-arrival")
	if err != nil {
		return err
	}
	sim.Schedule(NewArrivalEvent(sim.Clock + gap))
	return nil
}

// ServiceCompletionEvent fires when the job on a server has been served for its
// full service time.
type ServiceCompletionEvent struct {
	BaseEvent
	Server int
	Job    *Job
}

// NewServiceCompletionEvent creates a completion of job on server at time t.
func NewServiceCompletionEvent(t float64, server int, job *Job) *ServiceCompletionEvent {
	return &ServiceCompletionEvent{
		BaseEvent: newBaseEvent(t, EventTypeServiceCompletion),
		Server:    server,
		Job:       job,
	}
}

// Execute frees the server and pulls the next waiting job.
func (e *ServiceCompletionEvent) Execute(sim *Simulator) error {
	logrus.Debugf("<< ServiceCompletion: job %d on server %d at %.3f", e.Job.ID, e.Server, e.time)
	sim.completeService(e.Server)
	return nil
}

// WarmupEndEvent resets the statistics accumulator once.
type WarmupEndEvent struct {
	BaseEvent
}

// NewWarmupEndEvent creates the warm-up boundary at time t.
func NewWarmupEndEvent(t float64) *WarmupEndEvent {
	return &WarmupEndEvent{BaseEvent: newBaseEvent(t, EventTypeWarmupEnd)}
}

// Execute discards all statistics gathered so far.
func (e *WarmupEndEvent) Execute(sim *Simulator) error {
	logrus.Infof("<< WarmupEnd at %.3f: discarding %d accepted, %d rejected, %d completed",
		e.time, sim.Stats.JobCount, sim.Stats.RejectedJobs, sim.Stats.CompletedJobs)
	sim.Stats.Reset()
	sim.statsSince = e.time
	return nil
}
