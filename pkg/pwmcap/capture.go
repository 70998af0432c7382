package pwmcap

// ChannelTiming holds the raw edge-capture state of one PWM input channel.
// All durations are microseconds on a wrapping 32-bit clock.
type ChannelTiming struct {
	LastRise  uint32 // timestamp of the most recent rising edge
	HighTime  uint32 // duration of the most recent high pulse
	Period    uint32 // duration between the two most recent rising edges
	DataReady bool   // set on a completed cycle, cleared on consumption
}

// Capture measures one PWM input channel from its edge transitions.
//
// Edge is called from interrupt context on every transition of the pin;
// Snapshot is called from the main loop. The two contexts never share a
// half-updated ChannelTiming: Snapshot copies the whole struct inside the
// Critical hook, which the platform wires to an interrupt mask.
type Capture struct {
	// Critical runs fn with this channel's edge interrupt masked. The
	// default runs fn directly, which is only correct when Edge and
	// Snapshot run in the same context (tests, mock devices). The masked
	// region is a plain field copy and must stay that way.
	Critical func(fn func())

	timing   ChannelTiming
	riseSeen bool
}

// NewCapture returns a Capture with a pass-through Critical hook.
func NewCapture() *Capture {
	return &Capture{Critical: func(fn func()) { fn() }}
}

// Edge records one transition of the input pin. level is the pin state
// after the transition (true = rising edge), now is the current value of
// the wrapping microsecond clock.
//
// Must complete in bounded time: no allocation, no floating point, no I/O.
func (c *Capture) Edge(level bool, now uint32) {
	if level {
		// Rising edge. The first rise after startup has no predecessor,
		// so no period can be computed from it.
		if c.riseSeen {
			c.timing.Period = now - c.timing.LastRise
		}
		c.timing.LastRise = now
		c.riseSeen = true
		return
	}
	// Falling edge before any rising edge carries no information.
	if !c.riseSeen {
		return
	}
	c.timing.HighTime = now - c.timing.LastRise
	c.timing.DataReady = true
}

// Snapshot atomically copies the channel state and clears DataReady.
// HighTime and Period are retained across snapshots so stale values keep
// being reported when the input signal stops.
func (c *Capture) Snapshot() ChannelTiming {
	var t ChannelTiming
	c.Critical(func() {
		t = c.timing
		c.timing.DataReady = false
	})
	return t
}

// Reset clears all captured state, as after firmware start.
func (c *Capture) Reset() {
	c.Critical(func() {
		c.timing = ChannelTiming{}
		c.riseSeen = false
	})
}
