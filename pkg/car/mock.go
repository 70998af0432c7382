package car

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/control"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

// Mock simulates the PWM bridge for testing and development. It is not a
// canned-response fake: it runs the real capture, normalization and mode
// control core against synthetic receiver waveforms, so host tooling
// exercises the same code paths as the firmware.
type Mock struct {
	cfg *config.Config

	frames  chan Frame
	replies chan string
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc

	connected bool
	startTime time.Time

	// Simulated receiver sticks.
	stickSteering float32
	stickThrottle float32

	// The core under simulation. Guarded by mu: the tick loop and the
	// command methods both touch it, and the mock has no interrupt
	// context to mask.
	steering   *pwmcap.Capture
	throttle   *pwmcap.Capture
	sampler    *pwmcap.Sampler
	controller *control.Controller
	clockUs    uint32
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	steering := pwmcap.NewCapture()
	throttle := pwmcap.NewCapture()
	sampler := pwmcap.NewSampler(steering, throttle)
	sampler.SteeringCal = cfg.SteeringCalibration()
	sampler.ThrottleCal = cfg.ThrottleCalibration()

	controller := control.New()
	controller.FailsafeMs = uint32(cfg.Failsafe.Timeout.Milliseconds())

	return &Mock{
		cfg:           cfg,
		frames:        make(chan Frame, DefaultBufferSize),
		replies:       make(chan string, replyBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		stickSteering: cfg.Mock.Steering,
		stickThrottle: cfg.Mock.Throttle,
		steering:      steering,
		throttle:      throttle,
		sampler:       sampler,
		controller:    controller,
	}
}

// Connect starts the simulated device loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.run()

	return nil
}

// WaitReady returns immediately; the mock is ready once connected.
func (m *Mock) WaitReady(timeout time.Duration) error {
	if !m.IsConnected() {
		return fmt.Errorf("not connected")
	}
	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false
	close(m.frames)
	close(m.replies)

	return nil
}

// Frames returns the channel of telemetry frames.
func (m *Mock) Frames() <-chan Frame {
	return m.frames
}

// Replies returns the channel of command replies.
func (m *Mock) Replies() <-chan string {
	return m.replies
}

// SetControl feeds a CTRL command through the simulated command path.
func (m *Mock) SetControl(steering, throttle float32) error {
	return m.command(proto.ControlLine(steering, throttle))
}

// SetMode feeds a MODE command through the simulated command path.
func (m *Mock) SetMode(mode proto.Mode) error {
	return m.command(proto.ModeLine(mode))
}

// RequestStatus feeds a STATUS request through the simulated command path.
func (m *Mock) RequestStatus() error {
	return m.command(proto.StatusLine)
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetSticks moves the simulated receiver sticks.
func (m *Mock) SetSticks(steering, throttle float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stickSteering = steering
	m.stickThrottle = throttle
}

// Mode returns the simulated controller's current mode.
func (m *Mock) Mode() proto.Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controller.Mode()
}

// command runs one line through parse, dispatch and acknowledgment, the
// same way the firmware loop does between ticks.
func (m *Mock) command(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	reply, ok := m.controller.Apply(proto.ParseCommand(line), m.nowMs())
	if !ok {
		return nil // malformed: dropped silently, like the device
	}

	select {
	case m.replies <- reply:
	default:
	}
	return nil
}

func (m *Mock) run() {
	ticker := time.NewTicker(m.cfg.Sampling.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick synthesizes one batch of receiver pulses, samples both channels
// and emits a telemetry frame. The frame send stays under the lock so it
// can never race a Close closing the channel.
func (m *Mock) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return
	}

	if m.cfg.Mock.Sweep {
		phase := 2 * math.Pi * float64(time.Since(m.startTime)) / float64(m.cfg.Mock.SweepPeriod)
		m.stickSteering = float32(math.Sin(phase))
		m.stickThrottle = float32(0.5 + 0.5*math.Sin(phase))
	}

	m.feedSteering(m.stickSteering)
	m.feedThrottle(m.stickThrottle)

	nowMs := m.nowMs()
	m.controller.CheckFailsafe(nowMs)
	sample := m.sampler.Sample(nowMs)

	select {
	case m.frames <- Frame{Received: time.Now(), Sample: sample}:
	default:
		// Channel full, skip
	}
}

// feedSteering synthesizes one 50 Hz servo cycle at the duty that the
// transmitter would produce for the given stick position.
func (m *Mock) feedSteering(stick float32) {
	cal := m.sampler.SteeringCal
	duty := cal.NeutralDuty + stick*cal.HalfRangeDuty
	const periodUs = 20000
	m.feedCycle(m.steering, uint32(duty/100*periodUs), periodUs)
}

// feedThrottle synthesizes one ~900 Hz ESC cycle.
func (m *Mock) feedThrottle(stick float32) {
	cal := m.sampler.ThrottleCal
	duty := stick * cal.MaxDuty
	const periodUs = 1111
	m.feedCycle(m.throttle, uint32(duty/100*periodUs), periodUs)
}

func (m *Mock) feedCycle(c *pwmcap.Capture, highUs, periodUs uint32) {
	if highUs == 0 {
		// Stick at the floor produces no pulse at all.
		m.clockUs += periodUs
		return
	}
	c.Edge(true, m.clockUs)
	c.Edge(false, m.clockUs+highUs)
	m.clockUs += periodUs
	c.Edge(true, m.clockUs)
}

func (m *Mock) nowMs() uint32 {
	return uint32(time.Since(m.startTime).Milliseconds())
}
