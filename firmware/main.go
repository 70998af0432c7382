//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"runtime/interrupt"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/control"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

var (
	uart     = machine.UART0
	servoPWM = machine.PWM0

	steeringCap = pwmcap.NewCapture()
	throttleCap = pwmcap.NewCapture()
	sampler     = pwmcap.NewSampler(steeringCap, throttleCap)
	controller  = control.New()
	servoRange  = control.DefaultServoRange()
	commands    = proto.NewLineReader(MAX_COMMAND_LEN)

	steeringCh uint8
	throttleCh uint8

	// Timing
	bootTime  time.Time
	lastTick  time.Time
	wasActive bool
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// Configure capture inputs. The receiver drives these lines, so no
	// pull resistors.
	PIN_STEERING_IN.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_THROTTLE_IN.Configure(machine.PinConfig{Mode: machine.PinInput})

	steeringCap.Critical = critical
	throttleCap.Critical = critical

	// Configure servo outputs on the PWM peripheral. Pulses keep their
	// width in hardware between ticks, the loop never bit-bangs them.
	if err := servoPWM.Configure(machine.PWMConfig{Period: SERVO_PERIOD_NS}); err != nil {
		println("failed to configure servo PWM")
	}
	var err error
	steeringCh, err = servoPWM.Channel(PIN_STEERING_OUT)
	if err != nil {
		println("failed to configure steering channel")
	}
	throttleCh, err = servoPWM.Channel(PIN_THROTTLE_OUT)
	if err != nil {
		println("failed to configure throttle channel")
	}
	applyOutputs()

	bootTime = time.Now()
	PIN_STEERING_IN.SetInterrupt(machine.PinToggle, steeringEdge)
	PIN_THROTTLE_IN.SetInterrupt(machine.PinToggle, throttleEdge)

	// Handshake line: the host discards everything before this.
	println(proto.ReadyLine)

	lastTick = time.Now()
	for {
		now := time.Now()

		// Check for serial input (non-blocking)
		processSerial()

		if now.Sub(lastTick) >= TICK_INTERVAL_MS*time.Millisecond {
			lastTick = now
			tick()
		}

		// Small delay to prevent tight loop (but still allow precise timing)
		time.Sleep(100 * time.Microsecond)
	}
}

//go:noinline
func steeringEdge(pin machine.Pin) {
	steeringCap.Edge(pin.Get(), micros())
}

//go:noinline
func throttleEdge(pin machine.Pin) {
	throttleCap.Edge(pin.Get(), micros())
}

// critical masks interrupts around capture snapshots so a half-updated
// timing pair is never observed.
func critical(fn func()) {
	state := interrupt.Disable()
	fn()
	interrupt.Restore(state)
}

func micros() uint32 {
	return uint32(time.Since(bootTime).Microseconds())
}

func millis() uint32 {
	return uint32(time.Since(bootTime).Milliseconds())
}

func tick() {
	nowMs := millis()

	if controller.CheckFailsafe(nowMs) {
		applyOutputs()
	}

	println(proto.EncodeSample(sampler.Sample(nowMs)))

	// Refresh pulse widths while autonomous, plus one extra pass after
	// leaving autonomous so the outputs land back on neutral.
	active := controller.Active()
	if active || wasActive {
		applyOutputs()
	}
	wasActive = active
}

func processSerial() {
	// Read available bytes from serial
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		line, ok := commands.Feed(data)
		if !ok {
			continue
		}

		reply, ok := controller.Apply(proto.ParseCommand(line), millis())
		if !ok {
			// Malformed line, drop it
			continue
		}
		println(reply)
		applyOutputs()
	}
}

func applyOutputs() {
	steeringUs, throttleUs := controller.OutputPulses(servoRange)
	setServoPulse(steeringCh, steeringUs)
	setServoPulse(throttleCh, throttleUs)
}

func setServoPulse(ch uint8, pulseUs uint32) {
	top := uint64(servoPWM.Top())
	servoPWM.Set(ch, uint32(top*uint64(pulseUs)/SERVO_PERIOD_US))
}
