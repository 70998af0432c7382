package pwmcap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feedPulses simulates n full PWM cycles on a capture.
func feedPulses(c *Capture, start, highUs, periodUs uint32, n int) {
	now := start
	for i := 0; i < n; i++ {
		c.Edge(true, now)
		c.Edge(false, now+highUs)
		now += periodUs
	}
	// Closing rise completes the last period measurement.
	c.Edge(true, now)
}

func TestSampler_SyntheticSignals(t *testing.T) {
	steering := NewCapture()
	throttle := NewCapture()
	s := NewSampler(steering, throttle)

	// 50 Hz / 7% duty steering (calibrated neutral) and 900 Hz / 50%
	// duty throttle.
	feedPulses(steering, 0, 1400, 20000, 3)
	feedPulses(throttle, 0, 555, 1111, 10)

	sample := s.Sample(123)

	assert.Equal(t, uint32(123), sample.TimestampMs)
	assert.InDelta(t, 0.0, sample.Steering, 0.01)
	assert.InDelta(t, 0.714, sample.Throttle, 0.01)
	assert.Equal(t, uint32(1400), sample.SteeringRawUs)
	assert.Equal(t, uint32(555), sample.ThrottleRawUs)
	assert.Equal(t, uint32(20000), sample.SteeringPeriodUs)
	assert.Equal(t, uint32(1111), sample.ThrottlePeriodUs)
}

func TestSampler_NoSignalIsNeutral(t *testing.T) {
	s := NewSampler(NewCapture(), NewCapture())

	sample := s.Sample(0)

	assert.Equal(t, float32(0), sample.Steering)
	assert.Equal(t, float32(0), sample.Throttle)
	assert.Zero(t, sample.SteeringRawUs)
	assert.Zero(t, sample.ThrottleRawUs)
}

func TestSampler_StaleValuesKeepReporting(t *testing.T) {
	steering := NewCapture()
	throttle := NewCapture()
	s := NewSampler(steering, throttle)

	feedPulses(steering, 0, 1650, 20000, 3)

	first := s.Sample(33)
	require.InDelta(t, 0.5, first.Steering, 0.01)

	// No further edges: the next tick reports the same values rather
	// than starving the stream.
	second := s.Sample(66)
	assert.Equal(t, first.Steering, second.Steering)
	assert.Equal(t, first.SteeringRawUs, second.SteeringRawUs)
}

func TestSampler_ChannelsIndependent(t *testing.T) {
	steering := NewCapture()
	throttle := NewCapture()
	s := NewSampler(steering, throttle)

	// Only throttle carries a signal.
	feedPulses(throttle, 500, 389, 1111, 5)

	sample := s.Sample(10)
	assert.Equal(t, float32(0), sample.Steering)
	assert.InDelta(t, 0.5, sample.Throttle, 0.01)
}
