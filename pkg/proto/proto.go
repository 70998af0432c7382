// Package proto implements the line-oriented ASCII protocol spoken between
// the PWM bridge and the host over the 115200 baud serial link.
//
// Device to host:
//
//	ARDUINO_READY
//	DATA,<ms>,<steer>,<throttle>,<steerRawUs>,<throttleRawUs>,<steerPeriodUs>,<throttlePeriodUs>
//
// Host to device:
//
//	CTRL,<steering>,<throttle>   ->  CTRL_ACK,<steering>,<throttle>
//	MODE,AUTO | MODE,MANUAL      ->  MODE_ACK,AUTO | MODE_ACK,MANUAL
//	STATUS                       ->  STATUS,<AUTO|MANUAL>,<steering>,<throttle>
//
// Anything else is malformed and dropped without a reply.
package proto

// ReadyLine is emitted exactly once after device initialization, before
// any DATA line. The host uses it as a readiness barrier.
const ReadyLine = "ARDUINO_READY"

// DefaultBaudRate is the fixed serial link speed.
const DefaultBaudRate = 115200

// Line prefixes and ack heads.
const (
	dataPrefix   = "DATA,"
	ctrlPrefix   = "CTRL,"
	modePrefix   = "MODE,"
	statusWord   = "STATUS"
	ctrlAckHead  = "CTRL_ACK,"
	modeAckHead  = "MODE_ACK,"
	statusHead   = "STATUS,"
	modeAutoWord = "AUTO"
	modeManWord  = "MANUAL"
)

// Mode is the actuation mode carried on the wire.
type Mode uint8

const (
	// ModeManual passes the receiver's signals through untouched.
	ModeManual Mode = iota
	// ModeAuto actuates the servo outputs from the last commanded target.
	ModeAuto
)

func (m Mode) String() string {
	if m == ModeAuto {
		return modeAutoWord
	}
	return modeManWord
}

// CommandKind tags a parsed inbound command.
type CommandKind uint8

const (
	// Malformed marks a line that matched no command. It is dropped
	// silently so a garbled serial line never destabilizes control.
	Malformed CommandKind = iota
	// SetTarget carries a steering/throttle target (CTRL).
	SetTarget
	// SetMode switches between manual and autonomous actuation (MODE).
	SetMode
	// StatusRequest asks for the current mode and target (STATUS).
	StatusRequest
)

// Command is one decoded inbound line. Transient: constructed, dispatched
// and discarded within a single parse cycle.
type Command struct {
	Kind     CommandKind
	Steering float32 // SetTarget, clamped to [-1, 1]
	Throttle float32 // SetTarget, clamped to [0, 1]
	Mode     Mode    // SetMode
}
