package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Rejections         int
	Starts             int
	Completions        int
	InService          int // started but not completed when the trace ended
	MeanWait           float64
	MaxWait            float64
	ServerDistribution map[int]int // server index → jobs started
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ServerDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Rejections = len(st.Rejections)
	summary.Starts = len(st.Starts)
	summary.Completions = len(st.Completions)
	summary.InService = summary.Starts - summary.Completions

	if len(st.Starts) > 0 {
		totalWait := 0.0
		for _, r := range st.Starts {
			summary.ServerDistribution[r.Server]++
			totalWait += r.Wait
			if r.Wait > summary.MaxWait {
				summary.MaxWait = r.Wait
			}
		}
		summary.MeanWait = totalWait / float64(len(st.Starts))
	}

	return summary
}
