package workload

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/inference-sim/dispatch-sim/sim/internal/testutil"
)

func sampleGaps(s ArrivalSampler, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	gaps := make([]float64, n)
	for i := range gaps {
		gaps[i] = float64(s.SampleGap(rng))
	}
	return gaps
}

func meanAndCV(xs []float64) (float64, float64) {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss/float64(len(xs))) / mean
}

func TestArrivalSamplers_MeanGapIsInverseRate(t *testing.T) {
	// GIVEN samplers at 4 req/s (mean gap 250ms)
	tests := []struct {
		process string
		cv      float64
		wantCV  float64
	}{
		{"poisson", 0, 1},
		{"constant", 0, 0},
		{"gamma", 2, 2},
		{"gamma", 0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.process, func(t *testing.T) {
			// WHEN 50k gaps are sampled
			gaps := sampleGaps(NewArrivalSampler(tt.process, 4, tt.cv), 50000, 42)
			mean, cv := meanAndCV(gaps)

			// THEN the mean is 250ms and the CV matches the process
			testutil.AssertFloat64Equal(t, "mean gap", float64(250*time.Millisecond), mean, 0.05)
			if math.Abs(cv-tt.wantCV) > 0.1*math.Max(tt.wantCV, 1) {
				t.Errorf("CV = %.3f, want %.3f", cv, tt.wantCV)
			}
		})
	}
}

func TestArrivalSampler_GapsArePositive(t *testing.T) {
	s := NewArrivalSampler("gamma", 10, 5)
	for _, g := range sampleGaps(s, 10000, 1) {
		if time.Duration(g) < time.Microsecond {
			t.Fatalf("gap %v below minimum", time.Duration(g))
		}
	}
}

func TestNewArrivalSampler_Fallbacks(t *testing.T) {
	if _, ok := NewArrivalSampler("gamma", 1, 20).(*PoissonSampler); !ok {
		t.Error("very large CV should fall back to Poisson")
	}
	if _, ok := NewArrivalSampler("", 1, 0).(*PoissonSampler); !ok {
		t.Error("empty process should default to Poisson")
	}
	defer func() {
		if recover() == nil {
			t.Error("rate 0 should panic")
		}
	}()
	NewArrivalSampler("poisson", 0, 0)
}

func TestArrivalSampler_Deterministic(t *testing.T) {
	a := sampleGaps(NewArrivalSampler("poisson", 3, 0), 100, 7)
	b := sampleGaps(NewArrivalSampler("poisson", 3, 0), 100, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("gap %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
