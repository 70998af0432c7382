// Package car provides the host side of the serial link to the PWM
// bridge: a real serial device and a mock that runs the actual capture
// and control core against synthetic receiver waveforms.
package car

import (
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/proto"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

// Frame is one telemetry sample as received on the host.
type Frame struct {
	Received time.Time
	pwmcap.Sample
}

// Device defines the interface for the PWM bridge (real or mocked).
type Device interface {
	Connect() error
	Close() error
	WaitReady(timeout time.Duration) error
	Frames() <-chan Frame
	Replies() <-chan string
	SetControl(steering, throttle float32) error
	SetMode(mode proto.Mode) error
	RequestStatus() error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
