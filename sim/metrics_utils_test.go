package sim

import (
	"testing"
	"time"
)

func TestCalculatePercentile(t *testing.T) {
	data := []float64{10, 20, 30, 40}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{-5, 10},
		{50, 25},
		{100, 40},
		{150, 40},
	}
	for _, tt := range tests {
		got := CalculatePercentile(data, tt.p)
		if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("CalculatePercentile(p=%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCalculatePercentile_Durations(t *testing.T) {
	got := CalculatePercentile([]time.Duration{time.Second}, 99)
	if got != float64(time.Second) {
		t.Errorf("single element: got %v, want %v", got, float64(time.Second))
	}
}

func TestCalculatePercentile_EmptyInput_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty input")
		}
	}()
	CalculatePercentile([]int{}, 50)
}
