package sim

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/queue-sim/sim/workload"
)

// ErrInvalidConfig is wrapped by every configuration error returned from Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Discipline selects which waiting job the dispatcher takes next.
type Discipline string

const (
	// DisciplineFIFO serves jobs in arrival order.
	DisciplineFIFO Discipline = "fifo"
	// DisciplineSJF serves the job with the shortest service time first (ties by ID).
	DisciplineSJF Discipline = "sjf"
)

// validDisciplines maps accepted discipline strings to their canonical value.
// Keys are lower case; lookups fold case. Empty defaults to FIFO for CLI flag default compatibility.
var validDisciplines = map[string]Discipline{
	"":         DisciplineFIFO,
	"fifo":     DisciplineFIFO,
	"sjf":      DisciplineSJF,
	"priority": DisciplineSJF,
}

// IsValidDiscipline returns true if name is a recognized queue discipline.
func IsValidDiscipline(name string) bool {
	_, ok := validDisciplines[strings.ToLower(name)]
	return ok
}

// ParseDiscipline maps a discipline name to its canonical Discipline.
func ParseDiscipline(name string) (Discipline, error) {
	d, ok := validDisciplines[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported queue discipline %q", ErrInvalidConfig, name)
	}
	return d, nil
}

// SimConfig is the complete, immutable description of one simulation run.
// It is passed by value; the simulator never mutates it.
type SimConfig struct {
	Arrival       workload.DistSpec `yaml:"arrival"`        // inter-arrival gap distribution
	Service       workload.DistSpec `yaml:"service"`        // service duration distribution
	Servers       int               `yaml:"servers"`        // number of servers (> 0)
	Discipline    Discipline        `yaml:"discipline"`     // "fifo" or "sjf"
	QueueCapacity int               `yaml:"queue_capacity"` // max simultaneously waiting jobs (> 0)
	Duration      float64           `yaml:"duration"`       // total virtual time to run (> 0)
	Warmup        float64           `yaml:"warmup"`         // statistics reset instant, 0 <= Warmup < Duration
	Seed          int64             `yaml:"seed"`
	Verbose       bool              `yaml:"verbose"` // emit trace lines for rejections and service start/end
}

// DefaultSimConfig returns an M/M/1 configuration at 80% load.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Arrival:       workload.Exponential(1.25),
		Service:       workload.Exponential(1.0),
		Servers:       1,
		Discipline:    DisciplineFIFO,
		QueueCapacity: 100,
		Duration:      1000,
		Warmup:        0,
		Seed:          42,
	}
}

// Validate checks all fields. Every error wraps ErrInvalidConfig.
func (c SimConfig) Validate() error {
	if !IsValidDiscipline(string(c.Discipline)) {
		return fmt.Errorf("%w: unsupported queue discipline %q", ErrInvalidConfig, c.Discipline)
	}
	if c.Servers <= 0 {
		return fmt.Errorf("%w: servers must be positive, got %d", ErrInvalidConfig, c.Servers)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("%w: queue_capacity must be positive, got %d", ErrInvalidConfig, c.QueueCapacity)
	}
	if c.Duration <= 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive and finite, got %g", ErrInvalidConfig, c.Duration)
	}
	if c.Warmup < 0 || math.IsNaN(c.Warmup) {
		return fmt.Errorf("%w: warmup must be non-negative, got %g", ErrInvalidConfig, c.Warmup)
	}
	if c.Warmup >= c.Duration {
		return fmt.Errorf("%w: warmup (%g) must be less than duration (%g)", ErrInvalidConfig, c.Warmup, c.Duration)
	}
	return nil
}

// validateDistributions checks the arrival and service specs. Only needed when the
// simulator builds its own samplers.
func (c SimConfig) validateDistributions() error {
	if err := c.Arrival.Validate(); err != nil {
		return fmt.Errorf("%w: arrival: %v", ErrInvalidConfig, err)
	}
	// a zero mean gap (constant 0, uniform [0,0], lognormal with mu=-inf) never advances the clock
	if m := c.Arrival.Mean(); !(m > 0) || math.IsInf(m, 0) {
		return fmt.Errorf("%w: arrival: mean inter-arrival gap must be positive and finite, got %g", ErrInvalidConfig, m)
	}
	if err := c.Service.Validate(); err != nil {
		return fmt.Errorf("%w: service: %v", ErrInvalidConfig, err)
	}
	return nil
}

// MeasuredDuration is the span of virtual time that reported statistics cover.
func (c SimConfig) MeasuredDuration() float64 {
	return c.Duration - c.Warmup
}

// LoadSimConfig reads a YAML run configuration. Fields absent from the file keep
// the values from DefaultSimConfig. Unknown fields are rejected so typos surface.
func LoadSimConfig(path string) (SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimConfig{}, fmt.Errorf("reading simulation config: %w", err)
	}
	cfg := DefaultSimConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return SimConfig{}, fmt.Errorf("parsing simulation config: %w", err)
	}
	return cfg, nil
}
