package pwmcap

// Sample is one normalized reading of both input channels, taken at a
// fixed cadence. Immutable once produced.
type Sample struct {
	TimestampMs uint32

	Steering float32 // [-1, 1]
	Throttle float32 // [0, 1]

	SteeringRawUs    uint32
	ThrottleRawUs    uint32
	SteeringPeriodUs uint32
	ThrottlePeriodUs uint32
}

// Sampler snapshots the steering and throttle captures once per tick and
// normalizes the raw timings. Each snapshot runs inside its capture's
// Critical hook, so the snapshot windows are short and independent.
type Sampler struct {
	Steering *Capture
	Throttle *Capture

	SteeringCal SteeringCalibration
	ThrottleCal ThrottleCalibration
}

// NewSampler returns a Sampler over the two captures with default
// calibrations.
func NewSampler(steering, throttle *Capture) *Sampler {
	return &Sampler{
		Steering:    steering,
		Throttle:    throttle,
		SteeringCal: DefaultSteering(),
		ThrottleCal: DefaultThrottle(),
	}
}

// Sample takes one snapshot of both channels. Stale timings are reported
// as-is: the host relies on a gapless stream, not on freshness flags.
func (s *Sampler) Sample(nowMs uint32) Sample {
	st := s.Steering.Snapshot()
	th := s.Throttle.Snapshot()

	return Sample{
		TimestampMs:      nowMs,
		Steering:         s.SteeringCal.Normalize(st.HighTime, st.Period),
		Throttle:         s.ThrottleCal.Normalize(th.HighTime, th.Period),
		SteeringRawUs:    st.HighTime,
		ThrottleRawUs:    th.HighTime,
		SteeringPeriodUs: st.Period,
		ThrottlePeriodUs: th.Period,
	}
}
