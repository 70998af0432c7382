package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

func TestEncodeSample(t *testing.T) {
	s := pwmcap.Sample{
		TimestampMs:      12345,
		Steering:         -0.25,
		Throttle:         0.7143,
		SteeringRawUs:    1400,
		ThrottleRawUs:    555,
		SteeringPeriodUs: 20000,
		ThrottlePeriodUs: 1111,
	}

	assert.Equal(t, "DATA,12345,-0.2500,0.7143,1400,555,20000,1111", EncodeSample(s))
}

func TestEncodeSample_ZeroSample(t *testing.T) {
	// First ticks before any edge arrived still produce a full line.
	assert.Equal(t, "DATA,0,0.0000,0.0000,0,0,0,0", EncodeSample(pwmcap.Sample{}))
}

func TestParseFrame(t *testing.T) {
	line := "DATA,12345,-0.2500,0.7143,1400,555,20000,1111"

	got, err := ParseFrame(line)
	require.NoError(t, err)
	assert.Equal(t, uint32(12345), got.TimestampMs)
	assert.InDelta(t, -0.25, got.Steering, 1e-6)
	assert.InDelta(t, 0.7143, got.Throttle, 1e-6)
	assert.Equal(t, uint32(1400), got.SteeringRawUs)
	assert.Equal(t, uint32(555), got.ThrottleRawUs)
	assert.Equal(t, uint32(20000), got.SteeringPeriodUs)
	assert.Equal(t, uint32(1111), got.ThrottlePeriodUs)
}

func TestParseFrame_RoundTrip(t *testing.T) {
	want := pwmcap.Sample{
		TimestampMs:      99,
		Steering:         0.5,
		Throttle:         1.0,
		SteeringRawUs:    1900,
		ThrottleRawUs:    778,
		SteeringPeriodUs: 20000,
		ThrottlePeriodUs: 1111,
	}

	got, err := ParseFrame(EncodeSample(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseFrame_Invalid(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not data", "CTRL_ACK,0.5000,0.3000"},
		{"too few fields", "DATA,1,0.0,0.0,1,2,3"},
		{"too many fields", "DATA,1,0.0,0.0,1,2,3,4,5"},
		{"bad timestamp", "DATA,x,0.0,0.0,1,2,3,4"},
		{"bad steering", "DATA,1,x,0.0,1,2,3,4"},
		{"bad raw value", "DATA,1,0.0,0.0,x,2,3,4"},
		{"negative raw value", "DATA,1,0.0,0.0,-5,2,3,4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFrame(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestIsData(t *testing.T) {
	assert.True(t, IsData("DATA,0,0.0000,0.0000,0,0,0,0"))
	assert.False(t, IsData(ReadyLine))
	assert.False(t, IsData("CTRL_ACK,0.5000,0.3000"))
}

func TestAppendFixed4_Rounding(t *testing.T) {
	tests := []struct {
		v    float32
		want string
	}{
		{0, "0.0000"},
		{1, "1.0000"},
		{-1, "-1.0000"},
		{0.5, "0.5000"},
		{0.12345, "0.1235"},
		{-0.0001, "-0.0001"},
		{0.00004, "0.0000"},
	}

	for _, tt := range tests {
		got := string(appendFixed4(nil, tt.v))
		assert.Equal(t, tt.want, got, "value %v", tt.v)
	}
}
