package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

func frame(ts time.Time, steerRaw, throttleRaw uint32) car.Frame {
	return car.Frame{
		Received: ts,
		Sample: pwmcap.Sample{
			SteeringRawUs:    steerRaw,
			ThrottleRawUs:    throttleRaw,
			SteeringPeriodUs: 20000,
			ThrottlePeriodUs: 1111,
		},
	}
}

func TestMonitor_NoFrames(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)

	snap := m.Snapshot()
	assert.Zero(t, snap.Frames)
	assert.Zero(t, snap.Rate)
	assert.Equal(t, SignalLost, snap.Steering.State)
	assert.Equal(t, SignalLost, snap.Throttle.State)
}

func TestMonitor_LiveChannels(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)
	base := time.Now()

	// Jittering raw values, 33ms apart: both channels alive at ~30 Hz.
	for i := 0; i < 10; i++ {
		m.Observe(frame(base.Add(time.Duration(i)*33*time.Millisecond),
			1500+uint32(i%3), 550+uint32(i%2)))
	}

	snap := m.Snapshot()
	assert.Equal(t, 10, snap.Frames)
	assert.InDelta(t, 30.3, snap.Rate, 1.0)
	assert.Equal(t, SignalLive, snap.Steering.State)
	assert.Equal(t, SignalLive, snap.Throttle.State)
}

func TestMonitor_StaleChannelDetected(t *testing.T) {
	m := New(10*time.Second, 100*time.Millisecond)
	base := time.Now()

	// Steering jitters, throttle freezes at the same reading.
	for i := 0; i < 20; i++ {
		m.Observe(frame(base.Add(time.Duration(i)*33*time.Millisecond),
			1500+uint32(i%3), 550))
	}

	last := base.Add(19 * 33 * time.Millisecond)
	snap := m.snapshotLocked(last)
	assert.Equal(t, SignalLive, snap.Steering.State)
	assert.Equal(t, SignalStale, snap.Throttle.State,
		"frozen raw readings beyond staleAfter must be flagged")
}

func TestMonitor_LostChannel(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)

	// Throttle never produced a pulse: raw and period both zero.
	f := frame(time.Now(), 1500, 0)
	f.ThrottlePeriodUs = 0
	m.Observe(f)

	snap := m.Snapshot()
	assert.Equal(t, SignalLost, snap.Throttle.State)
}

func TestMonitor_WindowEviction(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)
	base := time.Now()

	for i := 0; i < 60; i++ {
		m.Observe(frame(base.Add(time.Duration(i)*50*time.Millisecond),
			1500+uint32(i%3), 550+uint32(i%2)))
	}

	snap := m.Snapshot()
	// 3s of frames with a 1s window: about 20 frames retained.
	assert.LessOrEqual(t, snap.Frames, 22)
	assert.GreaterOrEqual(t, snap.Frames, 19)
}

func TestMonitor_Callbacks(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)

	var got []Snapshot
	m.OnUpdate(func(s Snapshot) { got = append(got, s) })

	m.Observe(frame(time.Now(), 1500, 550))
	m.Observe(frame(time.Now(), 1502, 551))

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Frames)
	assert.Equal(t, 2, got[1].Frames)
}

func TestMonitor_ProcessFramesDrainsChannel(t *testing.T) {
	m := New(time.Second, 100*time.Millisecond)

	in := make(chan car.Frame, 4)
	base := time.Now()
	for i := 0; i < 4; i++ {
		in <- frame(base.Add(time.Duration(i)*time.Millisecond), 1500+uint32(i), 550)
	}
	close(in)

	m.ProcessFrames(in)

	assert.Equal(t, 4, m.Snapshot().Frames)
}
