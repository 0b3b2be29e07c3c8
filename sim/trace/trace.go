package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every rejection, service start and service end.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects event records during a simulation run.
type SimulationTrace struct {
	Level       TraceLevel
	Rejections  []RejectionRecord
	Starts      []ServiceRecord
	Completions []ServiceRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:       level,
		Rejections:  make([]RejectionRecord, 0),
		Starts:      make([]ServiceRecord, 0),
		Completions: make([]ServiceRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on a nil trace.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Level == TraceLevelEvents
}

// RecordRejection appends a rejection record.
func (st *SimulationTrace) RecordRejection(record RejectionRecord) {
	st.Rejections = append(st.Rejections, record)
}

// RecordStart appends a service start record.
func (st *SimulationTrace) RecordStart(record ServiceRecord) {
	st.Starts = append(st.Starts, record)
}

// RecordCompletion appends a service end record.
func (st *SimulationTrace) RecordCompletion(record ServiceRecord) {
	st.Completions = append(st.Completions, record)
}
