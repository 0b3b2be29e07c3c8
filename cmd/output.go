package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/trace"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

func isValidOutputFormat(format string) bool {
	switch format {
	case outputText, outputJSON, outputYAML:
		return true
	}
	return false
}

// writeResults renders r in the requested format.
func writeResults(w io.Writer, r sim.Results, format string) error {
	switch format {
	case outputText:
		r.Print(w)
		return nil
	case outputJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Trace Summary ===")
	fmt.Fprintf(w, "Rejections           : %d\n", s.Rejections)
	fmt.Fprintf(w, "Service Starts       : %d\n", s.Starts)
	fmt.Fprintf(w, "Service Completions  : %d\n", s.Completions)
	fmt.Fprintf(w, "In Service At End    : %d\n", s.InService)
	fmt.Fprintf(w, "Mean Wait (started)  : %.4f\n", s.MeanWait)
	fmt.Fprintf(w, "Max Wait (started)   : %.4f\n", s.MaxWait)
	for _, i := range slices.Sorted(maps.Keys(s.ServerDistribution)) {
		fmt.Fprintf(w, "  server %-12d : %d jobs\n", i, s.ServerDistribution[i])
	}
}
