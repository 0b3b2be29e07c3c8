// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/queue-sim/sim/trace"
	"github.com/inference-sim/queue-sim/sim/workload"
)

var (
	// ErrInvalidSample is wrapped when a sampler returns a negative, NaN or infinite value.
	ErrInvalidSample = errors.New("invalid sample")
	// ErrNotFinished is returned by Results before Run has completed successfully.
	ErrNotFinished = errors.New("simulation has not finished")
	// ErrAlreadyRun is returned when Run is called twice on the same Simulator.
	ErrAlreadyRun = errors.New("simulation already run")
)

// Simulator is the core object that holds simulation time, system state, and the event loop.
// One Simulator models exactly one run; nothing is shared between instances.
type Simulator struct {
	Config     SimConfig
	Clock      float64
	EventQueue *EventHeap
	// Queue holds jobs that have arrived but not yet reached a server.
	Queue   JobQueue
	Servers *ServerPool
	Stats   Statistics

	// Trace collects structured event records when non-nil and enabled.
	Trace *trace.SimulationTrace
	// TraceOut receives the human-readable lines emitted when Config.Verbose is set.
	TraceOut io.Writer

	arrival    workload.Sampler
	service    workload.Sampler
	nextJobID  int64
	statsSince float64 // virtual time the statistics were last reset
	ran        bool
	results    *Results
}

// NewSimulator validates cfg and builds seeded samplers from its distribution specs.
func NewSimulator(cfg SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateDistributions(); err != nil {
		return nil, err
	}
	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	arrival, err := workload.NewSampler(cfg.Arrival, rng.ForSubsystem(SubsystemArrival))
	if err != nil {
		return nil, fmt.Errorf("%w: arrival: %v", ErrInvalidConfig, err)
	}
	service, err := workload.NewSampler(cfg.Service, rng.ForSubsystem(SubsystemService))
	if err != nil {
		return nil, fmt.Errorf("%w: service: %v", ErrInvalidConfig, err)
	}
	return newSimulator(cfg, arrival, service), nil
}

// NewSimulatorWithSamplers validates cfg and uses the given samplers instead of
// cfg.Arrival and cfg.Service. The caller is responsible for seeding them.
func NewSimulatorWithSamplers(cfg SimConfig, arrival, service workload.Sampler) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if arrival == nil || service == nil {
		return nil, fmt.Errorf("%w: arrival and service samplers must not be nil", ErrInvalidConfig)
	}
	return newSimulator(cfg, arrival, service), nil
}

func newSimulator(cfg SimConfig, arrival, service workload.Sampler) *Simulator {
	discipline, _ := ParseDiscipline(string(cfg.Discipline))
	s := &Simulator{
		Config:     cfg,
		Clock:      0,
		EventQueue: NewEventHeap(),
		Queue:      NewJobQueue(discipline, cfg.QueueCapacity),
		Servers:    NewServerPool(cfg.Servers),
		TraceOut:   os.Stdout,
		arrival:    arrival,
		service:    service,
	}
	s.Schedule(NewArrivalEvent(0))
	if cfg.Warmup > 0 {
		s.Schedule(NewWarmupEndEvent(cfg.Warmup))
	}
	return s
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	sim.EventQueue.Schedule(ev)
}

// Run executes events in time order until the next event would fire at or after
// Config.Duration. Jobs still in service at that instant are abandoned; jobs still
// queued are credited with waiting until the end.
func (sim *Simulator) Run() error {
	if sim.ran {
		return ErrAlreadyRun
	}
	sim.ran = true

	logrus.Infof("Starting simulation: servers=%d, discipline=%s, capacity=%d, duration=%g, warmup=%g, seed=%d",
		sim.Config.Servers, sim.Config.Discipline, sim.Config.QueueCapacity, sim.Config.Duration, sim.Config.Warmup, sim.Config.Seed)

	for sim.EventQueue.Len() > 0 {
		if sim.EventQueue.Peek().Timestamp() >= sim.Config.Duration {
			break
		}
		ev := sim.EventQueue.PopNext()
		if ev.Timestamp() < sim.Clock {
			panic(fmt.Sprintf("event %s at %g scheduled before clock %g", ev.Type(), ev.Timestamp(), sim.Clock))
		}
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[t=%.3f] Executing %T", sim.Clock, ev)
		if err := ev.Execute(sim); err != nil {
			logrus.Errorf("[t=%.3f] Simulation aborted: %v", sim.Clock, err)
			return fmt.Errorf("simulation aborted at t=%.3f: %w", sim.Clock, err)
		}
	}

	sim.Clock = sim.Config.Duration
	sim.finish()
	logrus.Infof("[t=%.3f] Simulation ended: %d queued, %d in service", sim.Clock, sim.Queue.Len(), sim.Servers.Busy())
	return nil
}

// Results returns the final statistics. Only available after a successful Run.
func (sim *Simulator) Results() (Results, error) {
	if sim.results == nil {
		return Results{}, ErrNotFinished
	}
	return *sim.results, nil
}

// QueueLen returns the number of waiting jobs.
func (sim *Simulator) QueueLen() int {
	return sim.Queue.Len()
}

// InService returns the number of busy servers.
func (sim *Simulator) InService() int {
	return sim.Servers.Busy()
}

// finish credits still-queued jobs with the rest of the run and freezes the results.
func (sim *Simulator) finish() {
	end := sim.Config.Duration
	for _, job := range sim.Queue.Items() {
		sim.Stats.TotalWaitingTime += job.WaitUntil(end)
	}
	for _, srv := range sim.Servers.Servers() {
		if srv.Busy {
			sim.Stats.BusyTime += end - math.Max(srv.StartTime, sim.statsSince)
		}
	}
	r := newResults(sim.Stats, sim.Config.MeasuredDuration(), sim.Config.Servers)
	sim.results = &r
}

// sample draws from s and rejects values that would corrupt the clock.
func (sim *Simulator) sample(s workload.Sampler, kind string) (float64, error) {
	v := s.Sample()
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %s sampler returned %v", ErrInvalidSample, kind, v)
	}
	return v, nil
}

// handleArrival admits one job if the queue has room, otherwise counts a rejection.
func (sim *Simulator) handleArrival() error {
	if sim.Queue.Len() >= sim.Queue.Cap() {
		sim.Stats.RejectedJobs++
		if sim.Trace.Enabled() {
			sim.Trace.RecordRejection(trace.RejectionRecord{Clock: sim.Clock, QueueLen: sim.Queue.Len()})
		}
		sim.tracef("Job rejected (queue length %d)", sim.Queue.Len())
		return nil
	}

	serviceTime, err := sim.sample(sim.service, "service")
	if err != nil {
		return err
	}
	job := &Job{ID: sim.nextJobID, ArrivalTime: sim.Clock, ServiceTime: serviceTime}
	if !sim.Queue.Offer(job) {
		panic(fmt.Sprintf("queue refused job %d below capacity", job.ID))
	}
	sim.nextJobID++
	sim.Stats.JobCount++
	logrus.Debugf("Accepted job %d (service %.3f), queue length %d", job.ID, job.ServiceTime, sim.Queue.Len())

	sim.dispatch()
	return nil
}

// dispatch matches idle servers to waiting jobs, lowest server index first,
// until every server is busy or the queue is empty.
func (sim *Simulator) dispatch() {
	for srv := sim.Servers.FirstIdle(0); srv != nil && !sim.Queue.Empty(); srv = sim.Servers.FirstIdle(srv.Index + 1) {
		sim.startService(srv.Index, sim.Queue.Next())
	}
}

// startService puts job on server i. The job's wait is credited now, not at completion.
func (sim *Simulator) startService(i int, job *Job) {
	sim.Servers.Assign(i, job, sim.Clock)
	wait := job.WaitUntil(sim.Clock)
	sim.Stats.TotalWaitingTime += wait
	if sim.Trace.Enabled() {
		sim.Trace.RecordStart(trace.ServiceRecord{Clock: sim.Clock, Server: i, JobID: job.ID, Wait: wait})
	}
	sim.tracef("Server %d starting job %d", i, job.ID)
	sim.Schedule(NewServiceCompletionEvent(sim.Clock+job.ServiceTime, i, job))
}

// completeService frees server i and hands it the next waiting job, if any.
func (sim *Simulator) completeService(i int) {
	start := sim.Servers.Server(i).StartTime
	job := sim.Servers.Release(i)
	sim.Stats.CompletedJobs++
	sim.Stats.BusyTime += sim.Clock - math.Max(start, sim.statsSince)
	if sim.Trace.Enabled() {
		sim.Trace.RecordCompletion(trace.ServiceRecord{Clock: sim.Clock, Server: i, JobID: job.ID, Wait: start - job.ArrivalTime})
	}
	sim.tracef("Server %d finishing job %d", i, job.ID)
	sim.dispatch()
}

// tracef writes one verbose trace line tagged with the current virtual time.
func (sim *Simulator) tracef(format string, args ...any) {
	if !sim.Config.Verbose || sim.TraceOut == nil {
		return
	}
	fmt.Fprintf(sim.TraceOut, "%.3f: "+format+"\n", append([]any{sim.Clock}, args...)...)
}
