package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSize_Nominal(t *testing.T) {
	tests := []struct {
		size RequestSize
		want time.Duration
	}{
		{Small, 100 * time.Millisecond},
		{Mid, 300 * time.Millisecond},
		{Large, 1000 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.size.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.size.Nominal())
		})
	}
	assert.Panics(t, func() { RequestSize(9).Nominal() })
}

func TestRequest_ServiceTime_OnlyJitterableTypesScale(t *testing.T) {
	tests := []struct {
		name   string
		typ    RequestType
		factor float64
		want   time.Duration
	}{
		{"cpu ignores factor", CpuBound, 1.5, 300 * time.Millisecond},
		{"io scales", IoBound, 1.5, 450 * time.Millisecond},
		{"mixed scales", Mixed, 0.5, 150 * time.Millisecond},
		{"baseline", IoBound, 1, 300 * time.Millisecond},
		{"non-positive factor falls back", Mixed, 0, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewRequest(1, time.Time{}, tt.typ, Mid)
			assert.Equal(t, tt.want, req.ServiceTime(tt.factor))
		})
	}
}

func TestRequest_Name(t *testing.T) {
	req := NewRequest(3, time.Time{}, IoBound, Large)
	assert.Equal(t, "Large IoBound", req.Name())
	assert.Contains(t, req.String(), "ID: 3")
}

func TestParseRequestTypeAndSize(t *testing.T) {
	typ, err := ParseRequestType("io-bound")
	require.NoError(t, err)
	assert.Equal(t, IoBound, typ)
	_, err = ParseRequestType("gpu")
	assert.Error(t, err)

	size, err := ParseRequestSize("medium")
	require.NoError(t, err)
	assert.Equal(t, Mid, size)
	_, err = ParseRequestSize("huge")
	assert.Error(t, err)
}

func TestRequestSequence_MonotonicFromOne(t *testing.T) {
	var seq RequestSequence
	assert.Equal(t, uint64(0), seq.Issued())
	assert.Equal(t, uint64(1), seq.Next())
	assert.Equal(t, uint64(2), seq.Next())
	assert.Equal(t, uint64(2), seq.Issued())
}
