// Package control tracks the actuation mode and commanded target of the
// PWM bridge, including the failsafe that reverts to manual passthrough
// when the command link goes silent.
package control

import (
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

// DefaultFailsafeMs is how long the command channel may stay silent in
// autonomous mode before the controller reverts to manual and neutral.
const DefaultFailsafeMs = 500

// Controller owns the control target. Commands and actuation ticks both
// run in the main loop, so no locking is needed here; only edge capture
// races the loop, and that is handled in pwmcap.
type Controller struct {
	// FailsafeMs is the command timeout in milliseconds. Zero disables
	// the watchdog (bench use only).
	FailsafeMs uint32

	mode          proto.Mode
	steering      float32
	throttle      float32
	lastCommandMs uint32
}

// New returns a Controller in manual mode with a neutral target.
func New() *Controller {
	return &Controller{FailsafeMs: DefaultFailsafeMs}
}

// Mode returns the current actuation mode.
func (c *Controller) Mode() proto.Mode { return c.mode }

// Active reports whether autonomous output generation is enabled.
func (c *Controller) Active() bool { return c.mode == proto.ModeAuto }

// Target returns the current commanded steering and throttle.
func (c *Controller) Target() (steering, throttle float32) {
	return c.steering, c.throttle
}

// Apply dispatches one parsed command and returns the reply line to send.
// Malformed commands produce no reply and no state change. Receiving a
// target implicitly enters autonomous mode. Entering manual mode resets
// the target to neutral immediately, ahead of the next actuation tick.
func (c *Controller) Apply(cmd proto.Command, nowMs uint32) (reply string, ok bool) {
	switch cmd.Kind {
	case proto.SetTarget:
		c.steering = cmd.Steering
		c.throttle = cmd.Throttle
		c.mode = proto.ModeAuto
		c.lastCommandMs = nowMs
		return proto.AckTarget(c.steering, c.throttle), true

	case proto.SetMode:
		c.mode = cmd.Mode
		c.lastCommandMs = nowMs
		if cmd.Mode == proto.ModeManual {
			c.steering = 0
			c.throttle = 0
		}
		return proto.AckMode(cmd.Mode), true

	case proto.StatusRequest:
		return proto.StatusReply(c.mode, c.steering, c.throttle), true

	default:
		return "", false
	}
}

// CheckFailsafe reverts to manual/neutral when the link has been silent
// beyond the timeout while autonomous. Called once per tick; returns true
// when the failsafe fired. A stale target must never keep actuating after
// the host stops talking.
func (c *Controller) CheckFailsafe(nowMs uint32) bool {
	if c.mode != proto.ModeAuto || c.FailsafeMs == 0 {
		return false
	}
	if nowMs-c.lastCommandMs <= c.FailsafeMs { // wrapping subtraction
		return false
	}
	c.mode = proto.ModeManual
	c.steering = 0
	c.throttle = 0
	return true
}
