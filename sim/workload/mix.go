package workload

import (
	"math/rand"

	"github.com/inference-sim/dispatch-sim/sim"
)

// Mix draws the type and size of each generated request from weighted choices.
type Mix struct {
	typeCDF [3]float64
	sizeCDF [3]float64
}

// NewMix builds a Mix from the config weights.
// An all-zero weight vector is treated as uniform.
func NewMix(cfg sim.MixConfig) *Mix {
	return &Mix{
		typeCDF: cumulative(cfg.TypeWeights),
		sizeCDF: cumulative(cfg.SizeWeights),
	}
}

func cumulative(w [3]float64) [3]float64 {
	total := w[0] + w[1] + w[2]
	if total <= 0 {
		w = [3]float64{1, 1, 1}
		total = 3
	}
	var cdf [3]float64
	acc := 0.0
	for i, v := range w {
		acc += v / total
		cdf[i] = acc
	}
	cdf[2] = 1.0
	return cdf
}

func pick(rng *rand.Rand, cdf [3]float64) int {
	u := rng.Float64()
	for i, c := range cdf {
		if u < c {
			return i
		}
	}
	return len(cdf) - 1
}

// Draw returns the type and size of the next request.
func (m *Mix) Draw(rng *rand.Rand) (sim.RequestType, sim.RequestSize) {
	return sim.RequestTypes[pick(rng, m.typeCDF)], sim.RequestSizes[pick(rng, m.sizeCDF)]
}
