package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

// EncodeSample renders one telemetry line (without terminator). Normalized
// values carry four decimal places; raw timings are plain integers.
func EncodeSample(s pwmcap.Sample) string {
	b := make([]byte, 0, 72)
	b = append(b, dataPrefix...)
	b = strconv.AppendUint(b, uint64(s.TimestampMs), 10)
	b = append(b, ',')
	b = appendFixed4(b, s.Steering)
	b = append(b, ',')
	b = appendFixed4(b, s.Throttle)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(s.SteeringRawUs), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(s.ThrottleRawUs), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(s.SteeringPeriodUs), 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, uint64(s.ThrottlePeriodUs), 10)
	return string(b)
}

// IsData reports whether a line is a telemetry line.
func IsData(line string) bool {
	return strings.HasPrefix(line, dataPrefix)
}

// ParseFrame decodes a DATA line back into a sample. Used on the host
// side of the link.
func ParseFrame(line string) (pwmcap.Sample, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dataPrefix) {
		return pwmcap.Sample{}, fmt.Errorf("not a DATA line: %q", line)
	}

	parts := strings.Split(line[len(dataPrefix):], ",")
	if len(parts) != 7 {
		return pwmcap.Sample{}, fmt.Errorf("invalid DATA line: expected 7 fields, got %d", len(parts))
	}

	ms, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return pwmcap.Sample{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	steering, err := strconv.ParseFloat(parts[1], 32)
	if err != nil {
		return pwmcap.Sample{}, fmt.Errorf("invalid steering: %w", err)
	}
	throttle, err := strconv.ParseFloat(parts[2], 32)
	if err != nil {
		return pwmcap.Sample{}, fmt.Errorf("invalid throttle: %w", err)
	}

	var raw [4]uint32
	for i, p := range parts[3:] {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return pwmcap.Sample{}, fmt.Errorf("invalid raw field %d: %w", i, err)
		}
		raw[i] = uint32(v)
	}

	return pwmcap.Sample{
		TimestampMs:      uint32(ms),
		Steering:         float32(steering),
		Throttle:         float32(throttle),
		SteeringRawUs:    raw[0],
		ThrottleRawUs:    raw[1],
		SteeringPeriodUs: raw[2],
		ThrottlePeriodUs: raw[3],
	}, nil
}

// appendFixed4 appends v with exactly four decimal places. Integer math
// keeps this usable from the firmware tick path without pulling fmt's
// float formatting into it.
func appendFixed4(b []byte, v float32) []byte {
	neg := v < 0
	if neg {
		v = -v
	}
	// Round half up at the fourth decimal.
	scaled := int64(v*10000 + 0.5)
	if neg && scaled != 0 {
		b = append(b, '-')
	}
	b = strconv.AppendInt(b, scaled/10000, 10)
	b = append(b, '.')
	frac := scaled % 10000
	switch {
	case frac < 10:
		b = append(b, '0', '0', '0')
	case frac < 100:
		b = append(b, '0', '0')
	case frac < 1000:
		b = append(b, '0')
	}
	return strconv.AppendInt(b, frac, 10)
}
