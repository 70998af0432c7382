package car

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Sampling.TickInterval = 2 * time.Millisecond
	cfg.Failsafe.Timeout = 50 * time.Millisecond
	return cfg
}

func nextFrame(t *testing.T, m *Mock) Frame {
	t.Helper()
	select {
	case f, ok := <-m.Frames():
		require.True(t, ok, "frames channel closed")
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func nextReply(t *testing.T, m *Mock) string {
	t.Helper()
	select {
	case r, ok := <-m.Replies():
		require.True(t, ok, "replies channel closed")
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
		return ""
	}
}

func TestMock_ConnectAndFrames(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	require.NoError(t, m.WaitReady(time.Second))

	// Sticks at rest: steering neutral, throttle absent.
	f := nextFrame(t, m)
	assert.InDelta(t, 0.0, f.Steering, 0.02)
	assert.Equal(t, float32(0), f.Throttle)
	assert.Equal(t, uint32(20000), f.SteeringPeriodUs)
}

func TestMock_ConnectTwice(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	assert.Error(t, m.Connect())
}

func TestMock_SticksReachTelemetry(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	m.SetSticks(0.5, 0.5)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		f := nextFrame(t, m)
		if f.Steering > 0.45 && f.Steering < 0.55 &&
			f.Throttle > 0.45 && f.Throttle < 0.55 {
			return
		}
	}
	t.Fatal("stick positions never reached telemetry")
}

func TestMock_ControlCommandPath(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	require.NoError(t, m.SetControl(0.5, 0.3))
	assert.Equal(t, "CTRL_ACK,0.5000,0.3000", nextReply(t, m))
	assert.Equal(t, proto.ModeAuto, m.Mode())

	require.NoError(t, m.RequestStatus())
	assert.Equal(t, "STATUS,AUTO,0.5000,0.3000", nextReply(t, m))

	require.NoError(t, m.SetMode(proto.ModeManual))
	assert.Equal(t, "MODE_ACK,MANUAL", nextReply(t, m))
	assert.Equal(t, proto.ModeManual, m.Mode())

	// Manual reset the target to neutral.
	require.NoError(t, m.RequestStatus())
	assert.Equal(t, "STATUS,MANUAL,0.0000,0.0000", nextReply(t, m))
}

func TestMock_FailsafeRevertsToManual(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	require.NoError(t, m.SetControl(0.5, 0.5))
	require.Equal(t, proto.ModeAuto, m.Mode())

	// Stop commanding; the watchdog must revert within the timeout
	// plus a tick or two.
	assert.Eventually(t, func() bool {
		return m.Mode() == proto.ModeManual
	}, time.Second, 5*time.Millisecond)
}

func TestMock_CommandsKeepFailsafeAlive(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())
	defer m.Close()

	require.NoError(t, m.SetControl(0.2, 0.2))
	for i := 0; i < 10; i++ {
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, m.SetControl(0.2, 0.2))
	}
	assert.Equal(t, proto.ModeAuto, m.Mode())
}

func TestMock_GracefulShutdown(t *testing.T) {
	m := NewMock(testConfig())
	require.NoError(t, m.Connect())

	// Drain concurrently so Close never blocks on a full channel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range m.Frames() {
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, m.Close())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frames channel did not close")
	}

	assert.False(t, m.IsConnected())
	assert.NoError(t, m.Close(), "closing twice is a no-op")
	assert.Error(t, m.SetControl(0, 0), "commands after close must fail")
}
