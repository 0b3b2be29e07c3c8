package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/trace"
	"github.com/inference-sim/queue-sim/sim/workload"
)

var (
	// CLI flags for a single run
	seed          int64   // Seed for the arrival and service streams
	duration      float64 // Total virtual time to simulate
	warmup        float64 // Statistics reset instant
	servers       int     // Number of parallel servers
	queueCapacity int     // Max number of waiting jobs
	discipline    string  // Queue discipline (fifo, sjf)
	verbose       bool    // Print per-event trace lines
	logLevel      string  // Log verbosity level
	configPath    string  // Optional YAML run configuration
	outputFormat  string  // Results format (text, json, yaml)
	traceLevel    string  // Structured trace level (none, events)

	// Distribution flags
	arrivalDist string  // Inter-arrival distribution type
	arrivalMean float64 // Mean inter-arrival gap
	arrivalCV   float64 // Coefficient of variation for gamma/weibull arrivals
	serviceDist string  // Service distribution type
	serviceMean float64 // Mean service duration
	serviceCV   float64 // Coefficient of variation for gamma/weibull service
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queue-sim",
	Short: "Discrete-event simulator for M/M/n queueing stations",
}

// runCmd executes one simulation using parameters from CLI flags and an optional config file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single queueing simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel(logLevel)

		if !trace.IsValidTraceLevel(traceLevel) {
			return fmt.Errorf("unknown trace level %q; valid: none, events", traceLevel)
		}
		if !isValidOutputFormat(outputFormat) {
			return fmt.Errorf("unknown output format %q; valid: text, json, yaml", outputFormat)
		}

		cfg, err := buildRunConfig(cmd)
		if err != nil {
			return err
		}

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			return err
		}
		s.TraceOut = cmd.OutOrStdout()
		if trace.TraceLevel(traceLevel) == trace.TraceLevelEvents {
			s.Trace = trace.NewSimulationTrace(trace.TraceLevelEvents)
		}

		startTime := time.Now()
		if err := s.Run(); err != nil {
			return err
		}
		logrus.Infof("Simulation complete in %s", time.Since(startTime))

		results, err := s.Results()
		if err != nil {
			return err
		}
		if err := writeResults(cmd.OutOrStdout(), results, outputFormat); err != nil {
			return err
		}
		if s.Trace.Enabled() {
			printTraceSummary(cmd.OutOrStdout(), trace.Summarize(s.Trace))
		}
		return nil
	},
}

// setLogLevel parses level and applies it to the global logrus logger.
func setLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)
}

// buildRunConfig starts from the defaults (or the --config file) and applies every
// flag the user explicitly set. Unset flags never override file values.
func buildRunConfig(cmd *cobra.Command) (sim.SimConfig, error) {
	cfg := sim.DefaultSimConfig()
	if configPath != "" {
		loaded, err := sim.LoadSimConfig(configPath)
		if err != nil {
			return sim.SimConfig{}, err
		}
		cfg = loaded
		logrus.Infof("Loaded run configuration from %s", configPath)
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("duration") {
		cfg.Duration = duration
	}
	if flags.Changed("warmup") {
		cfg.Warmup = warmup
	}
	if flags.Changed("servers") {
		cfg.Servers = servers
	}
	if flags.Changed("queue-capacity") {
		cfg.QueueCapacity = queueCapacity
	}
	if flags.Changed("discipline") {
		d, err := sim.ParseDiscipline(discipline)
		if err != nil {
			return sim.SimConfig{}, err
		}
		cfg.Discipline = d
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	var err error
	cfg.Arrival, err = applyDistFlags(cmd, cfg.Arrival, "arrival", arrivalDist, arrivalMean, arrivalCV)
	if err != nil {
		return sim.SimConfig{}, err
	}
	cfg.Service, err = applyDistFlags(cmd, cfg.Service, "service", serviceDist, serviceMean, serviceCV)
	if err != nil {
		return sim.SimConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return sim.SimConfig{}, err
	}
	return cfg, nil
}

// applyDistFlags overrides base with the --<prefix>-dist, --<prefix>-mean and
// --<prefix>-cv flags, whichever were set.
func applyDistFlags(cmd *cobra.Command, base workload.DistSpec, prefix, distType string, mean, cv float64) (workload.DistSpec, error) {
	flags := cmd.Flags()
	typeChanged := flags.Changed(prefix + "-dist")
	meanChanged := flags.Changed(prefix + "-mean")
	cvChanged := flags.Changed(prefix + "-cv")

	if !typeChanged && !meanChanged && !cvChanged {
		return base, nil
	}
	if typeChanged {
		if !meanChanged {
			mean = base.Mean()
		}
		base = workload.DistSpec{Type: distType, Params: map[string]float64{}}
		if distType == "constant" {
			base.Params["value"] = mean
		} else {
			base.Params["mean"] = mean
		}
	} else if meanChanged {
		scaled, err := base.WithMean(mean)
		if err != nil {
			return workload.DistSpec{}, fmt.Errorf("--%s-mean: %w", prefix, err)
		}
		base = scaled
	}
	if cvChanged {
		if base.Type != "gamma" && base.Type != "weibull" {
			return workload.DistSpec{}, fmt.Errorf("--%s-cv only applies to gamma or weibull, got %q", prefix, base.Type)
		}
		base.Params["cv"] = cv
	}
	return base, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultSimConfig()

	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Seed for the arrival and service random streams")
	runCmd.Flags().Float64Var(&duration, "duration", defaults.Duration, "Total virtual time to simulate")
	runCmd.Flags().Float64Var(&warmup, "warmup", defaults.Warmup, "Virtual time at which statistics are reset")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML run configuration; explicit flags override it")
	runCmd.Flags().StringVar(&outputFormat, "output", "text", "Results format (text, json, yaml)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Structured trace level (none, events)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one line per rejection, service start and service end")

	// Station configs
	runCmd.Flags().IntVar(&servers, "servers", defaults.Servers, "Number of parallel servers")
	runCmd.Flags().IntVar(&queueCapacity, "queue-capacity", defaults.QueueCapacity, "Maximum number of waiting jobs")
	runCmd.Flags().StringVar(&discipline, "discipline", string(defaults.Discipline), "Queue discipline (fifo, sjf)")

	// Distributions
	runCmd.Flags().StringVar(&arrivalDist, "arrival-dist", defaults.Arrival.Type, "Inter-arrival distribution (exponential, constant, gamma, weibull)")
	runCmd.Flags().Float64Var(&arrivalMean, "arrival-mean", defaults.Arrival.Mean(), "Mean inter-arrival gap")
	runCmd.Flags().Float64Var(&arrivalCV, "arrival-cv", 1.0, "Coefficient of variation for gamma/weibull arrivals")
	runCmd.Flags().StringVar(&serviceDist, "service-dist", defaults.Service.Type, "Service distribution (exponential, constant, gamma, weibull)")
	runCmd.Flags().Float64Var(&serviceMean, "service-mean", defaults.Service.Mean(), "Mean service duration")
	runCmd.Flags().Float64Var(&serviceCV, "service-cv", 1.0, "Coefficient of variation for gamma/weibull service")

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(analyticCmd)
}
