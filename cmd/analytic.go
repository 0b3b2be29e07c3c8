package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inference-sim/queue-sim/sim/analytic"
)

var (
	analyticServers     int
	analyticCapacity    int
	analyticArrivalRate float64
	analyticServiceRate float64
)

// analyticCmd prints the closed-form M/M/n/K steady state for the given rates.
var analyticCmd = &cobra.Command{
	Use:   "analytic",
	Short: "Print closed-form M/M/n/K steady-state metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		model, err := analytic.NewMMnKModel(analyticServers, analyticCapacity)
		if err != nil {
			return err
		}
		if err := model.Solve(analyticArrivalRate, analyticServiceRate); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "=== Analytic M/M/n/K ===")
		fmt.Fprintf(w, "Servers              : %d\n", model.Servers)
		fmt.Fprintf(w, "Queue Capacity       : %d\n", model.Capacity)
		fmt.Fprintf(w, "Blocking Probability : %.4f\n", model.BlockingProbability())
		fmt.Fprintf(w, "Rejection Rate       : %.4f\n", model.RejectionRatio())
		fmt.Fprintf(w, "Average Queue Length : %.4f\n", model.AvgQueueLength())
		fmt.Fprintf(w, "Average Wait Time    : %.4f\n", model.AvgWaitTime())
		fmt.Fprintf(w, "Throughput           : %.4f\n", model.Throughput())
		fmt.Fprintf(w, "Utilization          : %.4f\n", model.Utilization())
		return nil
	},
}

func init() {
	analyticCmd.Flags().IntVar(&analyticServers, "servers", 1, "Number of parallel servers")
	analyticCmd.Flags().IntVar(&analyticCapacity, "queue-capacity", 100, "Maximum number of waiting jobs")
	analyticCmd.Flags().Float64Var(&analyticArrivalRate, "arrival-rate", 0.8, "Arrival rate (jobs per unit time)")
	analyticCmd.Flags().Float64Var(&analyticServiceRate, "service-rate", 1.0, "Per-server service rate")
}
