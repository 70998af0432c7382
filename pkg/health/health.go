// Package health watches the telemetry stream and reports link and
// signal condition: frame rate, per-channel signal loss, stale readings.
//
// Detection leans on a property of the edge capture: raw timings always
// jitter by a few microseconds while a channel is alive, and freeze to
// the last captured value when its signal stops. A run of identical raw
// readings is therefore a dropout, not a steady hand.
package health

import (
	"sync"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
)

// SignalState classifies one input channel.
type SignalState int

const (
	// SignalLost means no pulse has ever been captured on the channel.
	SignalLost SignalState = iota
	// SignalStale means readings stopped changing; the transmitter or
	// wiring likely dropped out and telemetry is repeating old values.
	SignalStale
	// SignalLive means the channel is producing fresh measurements.
	SignalLive
)

func (s SignalState) String() string {
	switch s {
	case SignalLive:
		return "live"
	case SignalStale:
		return "stale"
	default:
		return "lost"
	}
}

// ChannelHealth is the per-channel portion of a snapshot.
type ChannelHealth struct {
	State      SignalState
	LastChange time.Time // when the raw readings last moved
}

// Snapshot is a point-in-time summary of link health.
type Snapshot struct {
	Frames    int       // frames in the window
	Rate      float64   // frames per second over the window
	LastFrame time.Time // receive time of the newest frame
	Steering  ChannelHealth
	Throttle  ChannelHealth
}

// Monitor consumes telemetry frames and maintains health state.
type Monitor struct {
	mu sync.RWMutex

	window     time.Duration
	staleAfter time.Duration

	arrivals []time.Time
	last     car.Frame
	haveLast bool

	steering chanTrack
	throttle chanTrack

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

type chanTrack struct {
	rawUs      uint32
	periodUs   uint32
	seen       bool
	lastChange time.Time
}

// New creates a Monitor. window sizes the rate measurement; staleAfter is
// how long readings may stay frozen before the channel is flagged stale.
func New(window, staleAfter time.Duration) *Monitor {
	if window <= 0 {
		window = 2 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = 250 * time.Millisecond
	}
	return &Monitor{window: window, staleAfter: staleAfter}
}

// ProcessFrames consumes frames from the input channel until it closes.
func (m *Monitor) ProcessFrames(input <-chan car.Frame) {
	for f := range input {
		m.Observe(f)
	}
}

// Observe folds one frame into the health state and fires callbacks.
func (m *Monitor) Observe(f car.Frame) {
	m.mu.Lock()

	m.arrivals = append(m.arrivals, f.Received)
	cutoff := f.Received.Add(-m.window)
	drop := 0
	for drop < len(m.arrivals) && m.arrivals[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		m.arrivals = append(m.arrivals[:0], m.arrivals[drop:]...)
	}

	m.steering.update(f.SteeringRawUs, f.SteeringPeriodUs, f.Received)
	m.throttle.update(f.ThrottleRawUs, f.ThrottlePeriodUs, f.Received)

	m.last = f
	m.haveLast = true

	snap := m.snapshotLocked(f.Received)
	m.mu.Unlock()

	m.cbMu.RLock()
	for _, cb := range m.callbacks {
		cb(snap)
	}
	m.cbMu.RUnlock()
}

func (t *chanTrack) update(rawUs, periodUs uint32, now time.Time) {
	if !t.seen || rawUs != t.rawUs || periodUs != t.periodUs {
		t.lastChange = now
	}
	t.rawUs = rawUs
	t.periodUs = periodUs
	t.seen = true
}

// Snapshot returns the current health summary.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(time.Now())
}

func (m *Monitor) snapshotLocked(now time.Time) Snapshot {
	snap := Snapshot{
		Frames:   len(m.arrivals),
		Steering: m.steering.health(now, m.staleAfter),
		Throttle: m.throttle.health(now, m.staleAfter),
	}
	if m.haveLast {
		snap.LastFrame = m.last.Received
	}
	if len(m.arrivals) >= 2 {
		span := m.arrivals[len(m.arrivals)-1].Sub(m.arrivals[0])
		if span > 0 {
			snap.Rate = float64(len(m.arrivals)-1) / span.Seconds()
		}
	}
	return snap
}

func (t *chanTrack) health(now time.Time, staleAfter time.Duration) ChannelHealth {
	h := ChannelHealth{LastChange: t.lastChange}
	switch {
	case !t.seen || (t.rawUs == 0 && t.periodUs == 0):
		h.State = SignalLost
	case now.Sub(t.lastChange) > staleAfter:
		h.State = SignalStale
	default:
		h.State = SignalLive
	}
	return h
}

// OnUpdate registers a callback invoked after every observed frame.
func (m *Monitor) OnUpdate(fn func(Snapshot)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}
