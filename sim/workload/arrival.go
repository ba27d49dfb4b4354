package workload

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// minGap keeps every sampled gap positive.
const minGap = time.Microsecond

// ArrivalSampler generates inter-arrival gaps.
type ArrivalSampler interface {
	// SampleGap returns the next inter-arrival gap in simulated time.
	// Always returns a value >= 1µs.
	SampleGap(rng *rand.Rand) time.Duration
}

// PoissonSampler generates exponentially-distributed gaps (CV=1).
type PoissonSampler struct {
	mean time.Duration
}

func (s *PoissonSampler) SampleGap(rng *rand.Rand) time.Duration {
	return clampGap(rng.ExpFloat64() * float64(s.mean))
}

// ConstantSampler emits one request every mean gap.
type ConstantSampler struct {
	mean time.Duration
}

func (s *ConstantSampler) SampleGap(_ *rand.Rand) time.Duration {
	return clampGap(float64(s.mean))
}

// GammaSampler generates Gamma-distributed gaps.
// CV > 1 produces bursty arrivals; CV < 1 smoother than Poisson.
type GammaSampler struct {
	shape float64 // 1/CV²
	scale float64 // mean·CV² in nanoseconds
}

func (s *GammaSampler) SampleGap(rng *rand.Rand) time.Duration {
	return clampGap(gammaRand(rng, s.shape, s.scale))
}

func clampGap(ns float64) time.Duration {
	gap := time.Duration(ns)
	if gap < minGap {
		return minGap
	}
	return gap
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

		// Squeeze test
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// NewArrivalSampler creates a sampler for process with mean gap 1/rate.
// rate is in requests per second and must be > 0. Unknown processes fall
// back to Poisson; SimConfig.Validate rejects them before reaching here.
func NewArrivalSampler(process string, rate, cv float64) ArrivalSampler {
	if rate <= 0 {
		panic("NewArrivalSampler: rate must be > 0")
	}
	mean := time.Duration(float64(time.Second) / rate)
	switch process {
	case "", "poisson":
		return &PoissonSampler{mean: mean}
	case "constant":
		return &ConstantSampler{mean: mean}
	case "gamma":
		if cv <= 0 {
			cv = 1.0
		}
		shape := 1.0 / (cv * cv)
		if shape < 0.01 {
			logrus.Warnf("Gamma shape %.4f (CV=%.1f) is very small; falling back to Poisson", shape, cv)
			return &PoissonSampler{mean: mean}
		}
		return &GammaSampler{shape: shape, scale: float64(mean) * cv * cv}
	default:
		logrus.Warnf("unknown arrival process %q; using poisson", process)
		return &PoissonSampler{mean: mean}
	}
}
