package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Sampler produces non-negative real samples: inter-arrival gaps or service durations.
// Implementations own their RNG so that Sample takes no arguments.
type Sampler interface {
	Sample() float64
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func() float64

func (f SamplerFunc) Sample() float64 { return f() }

// DistSpec names a distribution and its parameters.
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

// UnmarshalYAML replaces d wholesale. Decoding into a populated DistSpec would
// otherwise merge params from the previous distribution into the new one.
func (d *DistSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			if k := value.Content[i].Value; k != "type" && k != "params" {
				return fmt.Errorf("line %d: field %s not found in distribution", value.Content[i].Line, k)
			}
		}
	}
	type plain DistSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = DistSpec(p)
	return nil
}

// Exponential returns a DistSpec for an exponential distribution with the given mean.
func Exponential(mean float64) DistSpec {
	return DistSpec{Type: "exponential", Params: map[string]float64{"mean": mean}}
}

// Constant returns a DistSpec that always yields value.
func Constant(value float64) DistSpec {
	return DistSpec{Type: "constant", Params: map[string]float64{"value": value}}
}

// Mean returns the analytic mean of the distribution, or NaN if it has none in closed form.
func (d DistSpec) Mean() float64 {
	switch d.Type {
	case "constant":
		return d.Params["value"]
	case "exponential", "gamma", "weibull":
		return d.Params["mean"]
	case "uniform":
		return (d.Params["min"] + d.Params["max"]) / 2
	case "lognormal":
		return math.Exp(d.Params["mu"] + d.Params["sigma"]*d.Params["sigma"]/2)
	default:
		return math.NaN()
	}
}

// WithMean returns a copy of d rescaled so that its mean equals mean.
// Only distributions parameterized by a mean (or a constant value) can be rescaled.
func (d DistSpec) WithMean(mean float64) (DistSpec, error) {
	params := make(map[string]float64, len(d.Params))
	for k, v := range d.Params {
		params[k] = v
	}
	switch d.Type {
	case "constant":
		params["value"] = mean
	case "exponential", "gamma", "weibull":
		params["mean"] = mean
	default:
		return DistSpec{}, fmt.Errorf("distribution %q cannot be rescaled by mean", d.Type)
	}
	return DistSpec{Type: d.Type, Params: params}, nil
}

// ConstantSampler always returns the same value.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample() float64 { return s.value }

// ExponentialSampler draws exponentially-distributed values (CV=1).
type ExponentialSampler struct {
	mean float64
	rng  *rand.Rand
}

func (s *ExponentialSampler) Sample() float64 {
	return s.rng.ExpFloat64() * s.mean
}

// UniformSampler draws uniformly from [min, max).
type UniformSampler struct {
	min, max float64
	rng      *rand.Rand
}

func (s *UniformSampler) Sample() float64 {
	return s.min + s.rng.Float64()*(s.max-s.min)
}

// GammaSampler draws Gamma-distributed values. CV > 1 gives bursty arrivals.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // mean·CV²
	rng   *rand.Rand
}

func (s *GammaSampler) Sample() float64 {
	return gammaRand(s.rng, s.shape, s.scale)
}

// gammaRand samples from Gamma(shape, scale) using Marsaglia-Tsang's method.
// For shape < 1: Gamma(shape) = Gamma(shape+1) * U^(1/shape).
func gammaRand(rng *rand.Rand, shape, scale float64) float64 {
	if shape < 1.0 {
		u := rng.Float64()
		return gammaRand(rng, shape+1.0, scale) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)

	for {
		var x, v float64
		for {
			x = rng.NormFloat64()
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()

		// squeeze
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// WeibullSampler draws Weibull-distributed values by inverse CDF.
type WeibullSampler struct {
	shape float64 // k
	scale float64 // λ
	rng   *rand.Rand
}

func (s *WeibullSampler) Sample() float64 {
	u := s.rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // -ln(0) = +Inf
	}
	return s.scale * math.Pow(-math.Log(u), 1.0/s.shape)
}

// weibullShapeFromCV finds the Weibull shape k such that
// CV² = Γ(1+2/k)/Γ(1+1/k)² - 1, using bisection over k ∈ [0.1, 100].
func weibullShapeFromCV(targetCV float64) float64 {
	lo, hi := 0.1, 100.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2.0
		cv := weibullCV(mid)
		if math.Abs(cv-targetCV) < 0.001 {
			return mid
		}
		// CV is monotonically decreasing in k
		if cv > targetCV {
			lo = mid
		} else {
			hi = mid
		}
	}
	logrus.Warnf("weibullShapeFromCV: bisection did not converge for CV=%.3f after 100 iterations; using k=%.3f", targetCV, (lo+hi)/2.0)
	return (lo + hi) / 2.0
}

func weibullCV(k float64) float64 {
	g1 := math.Gamma(1.0 + 1.0/k)
	g2 := math.Gamma(1.0 + 2.0/k)
	return math.Sqrt(g2/(g1*g1) - 1.0)
}

// LogNormalSampler draws exp(mu + sigma·Z).
type LogNormalSampler struct {
	mu, sigma float64
	rng       *rand.Rand
}

func (s *LogNormalSampler) Sample() float64 {
	return math.Exp(s.mu + s.sigma*s.rng.NormFloat64())
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// cvOrDefault reads the optional "cv" parameter, defaulting to 1.
func cvOrDefault(params map[string]float64) float64 {
	cv, ok := params["cv"]
	if !ok || cv <= 0 {
		return 1.0
	}
	return cv
}

// Validate checks the distribution type and its parameters without building a sampler.
func (d DistSpec) Validate() error {
	_, err := NewSampler(d, rand.New(rand.NewSource(0)))
	return err
}

// NewSampler creates a Sampler from a DistSpec, drawing randomness from rng.
func NewSampler(spec DistSpec, rng *rand.Rand) (Sampler, error) {
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		if spec.Params["value"] < 0 {
			return nil, fmt.Errorf("constant value must be non-negative, got %g", spec.Params["value"])
		}
		return &ConstantSampler{value: spec.Params["value"]}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		if spec.Params["mean"] <= 0 {
			return nil, fmt.Errorf("exponential mean must be positive, got %g", spec.Params["mean"])
		}
		return &ExponentialSampler{mean: spec.Params["mean"], rng: rng}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := spec.Params["min"], spec.Params["max"]
		if lo < 0 || hi < lo {
			return nil, fmt.Errorf("uniform requires 0 <= min <= max, got [%g, %g]", lo, hi)
		}
		return &UniformSampler{min: lo, max: hi, rng: rng}, nil

	case "gamma":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		mean := spec.Params["mean"]
		if mean <= 0 {
			return nil, fmt.Errorf("gamma mean must be positive, got %g", mean)
		}
		cv := cvOrDefault(spec.Params)
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to exponential", shape, cv)
			return &ExponentialSampler{mean: mean, rng: rng}, nil
		}
		return &GammaSampler{shape: shape, scale: mean * cv * cv, rng: rng}, nil

	case "weibull":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		mean := spec.Params["mean"]
		if mean <= 0 {
			return nil, fmt.Errorf("weibull mean must be positive, got %g", mean)
		}
		k := weibullShapeFromCV(cvOrDefault(spec.Params))
		// scale = mean / Γ(1 + 1/k)
		return &WeibullSampler{shape: k, scale: mean / math.Gamma(1.0+1.0/k), rng: rng}, nil

	case "lognormal":
		if err := requireParam(spec.Params, "mu", "sigma"); err != nil {
			return nil, err
		}
		if spec.Params["sigma"] < 0 {
			return nil, fmt.Errorf("lognormal sigma must be non-negative, got %g", spec.Params["sigma"])
		}
		return &LogNormalSampler{mu: spec.Params["mu"], sigma: spec.Params["sigma"], rng: rng}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
