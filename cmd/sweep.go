package cmd

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	sim "github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/analytic"
)

// SweepConfig describes a grid of runs: every server count crossed with every
// offered load, each replicated once per seed. Base supplies everything else.
type SweepConfig struct {
	Base    sim.SimConfig `yaml:"base"`
	Servers []int         `yaml:"servers"`
	Loads   []float64     `yaml:"loads"` // offered load per server, lambda/(n*mu)
	Seeds   []int64       `yaml:"seeds"`
}

// DefaultSweepConfig reproduces the classic experiment: 1, 2 and 4 servers at
// 50%, 80% and 95% load, five replications each.
func DefaultSweepConfig() SweepConfig {
	base := sim.DefaultSimConfig()
	base.Duration = 10000
	base.Warmup = 1000
	return SweepConfig{
		Base:    base,
		Servers: []int{1, 2, 4},
		Loads:   []float64{0.5, 0.8, 0.95},
		Seeds:   []int64{1, 2, 3, 4, 5},
	}
}

// Validate checks the grid dimensions. The base config is validated per point
// after the grid values are applied.
func (c SweepConfig) Validate() error {
	if len(c.Servers) == 0 || len(c.Loads) == 0 || len(c.Seeds) == 0 {
		return fmt.Errorf("sweep needs at least one server count, load and seed")
	}
	for _, load := range c.Loads {
		if load <= 0 || math.IsNaN(load) || math.IsInf(load, 0) {
			return fmt.Errorf("loads must be positive and finite, got %g", load)
		}
	}
	if m := c.Base.Service.Mean(); !(m > 0) {
		return fmt.Errorf("service distribution %q needs a positive mean to derive arrival rates", c.Base.Service.Type)
	}
	return nil
}

// LoadSweepConfig reads a sweep file with strict field checking.
// Fields absent from the file keep the values from DefaultSweepConfig.
func LoadSweepConfig(path string) (SweepConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SweepConfig{}, fmt.Errorf("reading sweep config: %w", err)
	}
	cfg := DefaultSweepConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return SweepConfig{}, fmt.Errorf("parsing sweep config: %w", err)
	}
	return cfg, nil
}

// SweepRow aggregates the replications of one (servers, load) grid point.
// Analytic* fields are NaN unless both distributions are exponential.
type SweepRow struct {
	Servers      int     `yaml:"servers"`
	Load         float64 `yaml:"load"`
	Replications int     `yaml:"replications"`

	WaitMean        float64 `yaml:"wait_mean"`
	WaitStdErr      float64 `yaml:"wait_std_err"`
	RejectionMean   float64 `yaml:"rejection_mean"`
	RejectionStdErr float64 `yaml:"rejection_std_err"`
	UtilMean        float64 `yaml:"utilization_mean"`
	ThroughputMean  float64 `yaml:"throughput_mean"`

	AnalyticWait      float64 `yaml:"analytic_wait"`
	AnalyticRejection float64 `yaml:"analytic_rejection"`
	AnalyticUtil      float64 `yaml:"analytic_utilization"`
}

// sweepPoint is the fully-resolved config for one grid point, before seeding.
type sweepPoint struct {
	servers int
	load    float64
	cfg     sim.SimConfig
}

// expandSweep resolves every (servers, load) pair into a run config whose arrival
// distribution is rescaled to hit the offered load.
func expandSweep(sc SweepConfig) ([]sweepPoint, error) {
	serviceMean := sc.Base.Service.Mean()
	points := make([]sweepPoint, 0, len(sc.Servers)*len(sc.Loads))
	for _, n := range sc.Servers {
		for _, load := range sc.Loads {
			cfg := sc.Base
			cfg.Servers = n
			cfg.Verbose = false
			arrival, err := cfg.Arrival.WithMean(serviceMean / (load * float64(n)))
			if err != nil {
				return nil, fmt.Errorf("servers=%d load=%g: %w", n, load, err)
			}
			cfg.Arrival = arrival
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("servers=%d load=%g: %w", n, load, err)
			}
			points = append(points, sweepPoint{servers: n, load: load, cfg: cfg})
		}
	}
	return points, nil
}

// RunSweep executes every grid point for every seed using up to parallel workers.
// Each run owns its simulator, so results do not depend on scheduling.
func RunSweep(sc SweepConfig, parallel int) ([]SweepRow, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	points, err := expandSweep(sc)
	if err != nil {
		return nil, err
	}
	if parallel < 1 {
		parallel = 1
	}

	type job struct{ point, rep int }
	results := make([][]sim.Results, len(points))
	for i := range results {
		results[i] = make([]sim.Results, len(sc.Seeds))
	}

	jobs := make(chan job)
	errs := make(chan error, len(points)*len(sc.Seeds))
	var wg sync.WaitGroup
	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				cfg := points[j.point].cfg
				cfg.Seed = sc.Seeds[j.rep]
				r, err := runOnce(cfg)
				if err != nil {
					errs <- fmt.Errorf("servers=%d load=%g seed=%d: %w", points[j.point].servers, points[j.point].load, cfg.Seed, err)
					continue
				}
				results[j.point][j.rep] = r
			}
		}()
	}
	for p := range points {
		for rep := range sc.Seeds {
			jobs <- job{point: p, rep: rep}
		}
	}
	close(jobs)
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}

	rows := make([]SweepRow, len(points))
	for i, p := range points {
		rows[i] = aggregate(p, results[i])
		logrus.Debugf("sweep point servers=%d load=%.2f: wait=%.4f rejection=%.4f", p.servers, p.load, rows[i].WaitMean, rows[i].RejectionMean)
	}
	return rows, nil
}

func runOnce(cfg sim.SimConfig) (sim.Results, error) {
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return sim.Results{}, err
	}
	if err := s.Run(); err != nil {
		return sim.Results{}, err
	}
	return s.Results()
}

// aggregate reduces replications to means and standard errors.
func aggregate(p sweepPoint, reps []sim.Results) SweepRow {
	n := len(reps)
	waits := make([]float64, 0, n)
	rejections := make([]float64, n)
	utils := make([]float64, n)
	throughputs := make([]float64, n)
	for i, r := range reps {
		if !math.IsInf(r.AverageWaitTime, 0) {
			waits = append(waits, r.AverageWaitTime)
		}
		rejections[i] = r.RejectionRate
		utils[i] = r.Utilization
		throughputs[i] = r.Throughput
	}

	row := SweepRow{
		Servers:        p.servers,
		Load:           p.load,
		Replications:   n,
		WaitMean:       math.Inf(1),
		UtilMean:       stat.Mean(utils, nil),
		ThroughputMean: stat.Mean(throughputs, nil),
	}
	if len(waits) > 0 {
		row.WaitMean, row.WaitStdErr = meanStdErr(waits)
	}
	row.RejectionMean, row.RejectionStdErr = meanStdErr(rejections)

	row.AnalyticWait, row.AnalyticRejection, row.AnalyticUtil = math.NaN(), math.NaN(), math.NaN()
	if p.cfg.Arrival.Type == "exponential" && p.cfg.Service.Type == "exponential" {
		model, err := analytic.NewMMnKModel(p.servers, p.cfg.QueueCapacity)
		if err == nil && model.Solve(1/p.cfg.Arrival.Mean(), 1/p.cfg.Service.Mean()) == nil {
			row.AnalyticWait = model.AvgWaitTime()
			row.AnalyticRejection = model.RejectionRatio()
			row.AnalyticUtil = model.Utilization()
		}
	}
	return row
}

// meanStdErr returns the sample mean and its standard error. A single sample has
// zero standard error.
func meanStdErr(x []float64) (mean, stdErr float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	return mean, stat.StdErr(std, float64(len(x)))
}

func printSweepTable(w io.Writer, rows []SweepRow) {
	fmt.Fprintf(w, "%7s %6s %4s %22s %22s %8s %10s %10s %10s\n",
		"servers", "load", "reps", "wait (±se)", "rejection (±se)", "util", "wait*", "reject*", "util*")
	for _, r := range rows {
		fmt.Fprintf(w, "%7d %6.2f %4d %12.4f ±%8.4f %12.4f ±%8.4f %8.4f %10.4f %10.4f %10.4f\n",
			r.Servers, r.Load, r.Replications,
			r.WaitMean, r.WaitStdErr, r.RejectionMean, r.RejectionStdErr, r.UtilMean,
			r.AnalyticWait, r.AnalyticRejection, r.AnalyticUtil)
	}
	fmt.Fprintln(w, "* analytic M/M/n/K reference; NaN when a distribution is not exponential")
}

var (
	sweepConfigPath string
	sweepParallel   int
	sweepOutput     string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Replicate simulations across server counts, offered loads and seeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel(logLevel)

		if sweepOutput != outputText && sweepOutput != outputYAML {
			return fmt.Errorf("unknown output format %q; valid: text, yaml", sweepOutput)
		}

		sc := DefaultSweepConfig()
		if sweepConfigPath != "" {
			loaded, err := LoadSweepConfig(sweepConfigPath)
			if err != nil {
				return err
			}
			sc = loaded
		}
		logrus.Infof("Sweeping %d server counts x %d loads x %d seeds", len(sc.Servers), len(sc.Loads), len(sc.Seeds))

		rows, err := RunSweep(sc, sweepParallel)
		if err != nil {
			return err
		}
		if sweepOutput == outputYAML {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rows); err != nil {
				return fmt.Errorf("encoding sweep results: %w", err)
			}
			return enc.Close()
		}
		printSweepTable(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "Path to a YAML sweep file (base, servers, loads, seeds)")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", runtime.NumCPU(), "Number of runs executed concurrently")
	sweepCmd.Flags().StringVar(&sweepOutput, "output", outputText, "Results format (text, yaml)")
	sweepCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
