package pwmcap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture_FirstFallingEdgeIgnored(t *testing.T) {
	c := NewCapture()

	// A falling edge before any rising edge has no valid predecessor.
	c.Edge(false, 1000)

	snap := c.Snapshot()
	assert.Zero(t, snap.HighTime)
	assert.Zero(t, snap.Period)
	assert.False(t, snap.DataReady)
}

func TestCapture_FirstRisingEdgeProducesNoPeriod(t *testing.T) {
	c := NewCapture()

	c.Edge(true, 5000)

	snap := c.Snapshot()
	assert.Zero(t, snap.Period, "single rising edge must not produce a period")
	assert.Zero(t, snap.HighTime)
	assert.False(t, snap.DataReady)
	assert.Equal(t, uint32(5000), snap.LastRise)
}

func TestCapture_FullCycle(t *testing.T) {
	c := NewCapture()

	// 50 Hz servo pulse: rise at 1000, fall 1500us later, next rise
	// 20000us after the first.
	c.Edge(true, 1000)
	c.Edge(false, 2500)
	c.Edge(true, 21000)

	snap := c.Snapshot()
	assert.Equal(t, uint32(1500), snap.HighTime)
	assert.Equal(t, uint32(20000), snap.Period)
	assert.True(t, snap.DataReady)
	assert.LessOrEqual(t, snap.HighTime, snap.Period)
}

func TestCapture_ClockWraparound(t *testing.T) {
	tests := []struct {
		name       string
		rise, fall uint32
		wantHigh   uint32
	}{
		{"no wrap", 1000, 1555, 555},
		{"wrap during pulse", math.MaxUint32 - 100, 454, 555},
		{"wrap exactly at fall", math.MaxUint32, 554, 555},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCapture()
			c.Edge(true, tt.rise)
			c.Edge(false, tt.fall)

			snap := c.Snapshot()
			assert.Equal(t, tt.wantHigh, snap.HighTime)
		})
	}
}

func TestCapture_SnapshotClearsDataReadyKeepsValues(t *testing.T) {
	c := NewCapture()
	c.Edge(true, 0)
	c.Edge(false, 555)
	c.Edge(true, 1111)

	first := c.Snapshot()
	require.True(t, first.DataReady)

	// No new edges: values are stale but still reported.
	second := c.Snapshot()
	assert.False(t, second.DataReady)
	assert.Equal(t, first.HighTime, second.HighTime)
	assert.Equal(t, first.Period, second.Period)
}

func TestCapture_CriticalHookCoversWholeCopy(t *testing.T) {
	c := NewCapture()
	entered := 0
	c.Critical = func(fn func()) {
		entered++
		fn()
	}

	c.Edge(true, 0)
	c.Edge(false, 555)
	c.Snapshot()

	assert.Equal(t, 1, entered, "snapshot must take exactly one critical section")
}

func TestCapture_Reset(t *testing.T) {
	c := NewCapture()
	c.Edge(true, 0)
	c.Edge(false, 555)
	c.Edge(true, 1111)

	c.Reset()

	snap := c.Snapshot()
	assert.Equal(t, ChannelTiming{}, snap)

	// After reset the first-edge guard must hold again.
	c.Edge(false, 2000)
	snap = c.Snapshot()
	assert.Zero(t, snap.HighTime)
}
