//go:build tinygo

package main

import "machine"

const (
	// Receiver inputs, tapped off the ESC/servo leads. Must support
	// edge interrupts.
	PIN_STEERING_IN = machine.D2
	PIN_THROTTLE_IN = machine.D3

	// Servo and ESC outputs, both channels of the same PWM peripheral
	PIN_STEERING_OUT = machine.D9
	PIN_THROTTLE_OUT = machine.D10

	// Telemetry cadence (~30 Hz)
	TICK_INTERVAL_MS = 33

	// Standard 50 Hz servo frame
	SERVO_PERIOD_NS = 20000e3
	SERVO_PERIOD_US = 20000

	// Longest accepted command line ("CTRL,-0.1234,-0.1234" plus slack)
	MAX_COMMAND_LEN = 48

	// Serial configuration
	// Baud rate calculation: worst-case telemetry line
	// "DATA,4294967295,-1.0000,1.0000,65535,65535,65535,65535\n" = ~56 bytes
	// 30 lines/sec * 56 bytes/line = 1,680 bytes/sec
	// UART 8N1: 10 bits/byte = 16,800 baud minimum
	// 115200 provides ~6.8x headroom (11,520 bytes/sec max / 1,680 bytes/sec required)
	UART_BAUD_RATE = 115200
)
