package pwmcap

import "github.com/chewxy/math32"

// Duty cycle based normalization works for both channels even though they
// carry very different signals: the throttle ESC line is a ~900 Hz
// variable-duty waveform with no fixed pulse-width convention, while
// steering is a standard 50 Hz servo signal. For the servo signal pulse
// width alone would also work, but using duty for both keeps the math
// uniform.

// ThrottleCalibration normalizes the throttle channel into [0, 1].
type ThrottleCalibration struct {
	MinHighUs   uint32  // validity floor for the high pulse
	MinPeriodUs uint32  // validity floor for the period
	MaxDuty     float32 // duty (%) mapped to full throttle
}

// SteeringCalibration normalizes the steering channel into [-1, 1].
type SteeringCalibration struct {
	MinHighUs     uint32
	MinPeriodUs   uint32
	NeutralDuty   float32 // duty (%) at center steering
	HalfRangeDuty float32 // duty (%) from center to either extreme
}

// DefaultThrottle returns the throttle calibration measured on the
// QuantumTracer ESC (~900 Hz, 0-70% duty usable range).
func DefaultThrottle() ThrottleCalibration {
	return ThrottleCalibration{
		MinHighUs:   20,
		MinPeriodUs: 200,
		MaxDuty:     70.0,
	}
}

// DefaultSteering returns the steering calibration for the 50 Hz servo
// signal. Floors are an order of magnitude above the throttle's, matching
// the much longer period.
func DefaultSteering() SteeringCalibration {
	return SteeringCalibration{
		MinHighUs:     200,
		MinPeriodUs:   2000,
		NeutralDuty:   7.0,
		HalfRangeDuty: 2.5,
	}
}

// DutyCycle returns the duty cycle of a pulse in percent, or 0 when the
// period is zero.
func DutyCycle(highTime, period uint32) float32 {
	if period == 0 {
		return 0
	}
	return float32(highTime) / float32(period) * 100.0
}

// Normalize maps a raw (highTime, period) pair into [0, 1]. A signal below
// the validity floors is treated as absent and yields neutral 0.
func (c ThrottleCalibration) Normalize(highTime, period uint32) float32 {
	if highTime < c.MinHighUs || period < c.MinPeriodUs {
		return 0
	}
	duty := DutyCycle(highTime, period)
	return clamp(duty/c.MaxDuty, 0, 1)
}

// Normalize maps a raw (highTime, period) pair into [-1, 1]. A signal
// below the validity floors yields neutral 0.
func (c SteeringCalibration) Normalize(highTime, period uint32) float32 {
	if highTime < c.MinHighUs || period < c.MinPeriodUs {
		return 0
	}
	duty := DutyCycle(highTime, period)
	return clamp((duty-c.NeutralDuty)/c.HalfRangeDuty, -1, 1)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
