package proto

import (
	"math"
	"strconv"
	"strings"
)

// ParseCommand classifies one inbound line. It never returns an error:
// anything that does not decode cleanly is a Malformed command.
func ParseCommand(line string) Command {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, ctrlPrefix):
		return parseCtrl(line[len(ctrlPrefix):])
	case strings.HasPrefix(line, modePrefix):
		return parseMode(line[len(modePrefix):])
	case line == statusWord:
		return Command{Kind: StatusRequest}
	default:
		return Command{Kind: Malformed}
	}
}

func parseCtrl(args string) Command {
	sepIdx := strings.IndexByte(args, ',')
	if sepIdx < 0 {
		return Command{Kind: Malformed}
	}

	steering, err := strconv.ParseFloat(args[:sepIdx], 32)
	if err != nil || !finite(steering) {
		return Command{Kind: Malformed}
	}
	throttle, err := strconv.ParseFloat(args[sepIdx+1:], 32)
	if err != nil || !finite(throttle) {
		return Command{Kind: Malformed}
	}

	return Command{
		Kind:     SetTarget,
		Steering: clamp(float32(steering), -1, 1),
		Throttle: clamp(float32(throttle), 0, 1),
	}
}

func parseMode(arg string) Command {
	switch arg {
	case modeAutoWord:
		return Command{Kind: SetMode, Mode: ModeAuto}
	case modeManWord:
		return Command{Kind: SetMode, Mode: ModeManual}
	default:
		return Command{Kind: Malformed}
	}
}

// AckTarget renders the acknowledgment for an accepted CTRL command.
func AckTarget(steering, throttle float32) string {
	b := make([]byte, 0, 32)
	b = append(b, ctrlAckHead...)
	b = appendFixed4(b, steering)
	b = append(b, ',')
	b = appendFixed4(b, throttle)
	return string(b)
}

// AckMode renders the acknowledgment for an accepted MODE command.
func AckMode(m Mode) string {
	return modeAckHead + m.String()
}

// StatusReply renders the reply to a STATUS request.
func StatusReply(m Mode, steering, throttle float32) string {
	b := make([]byte, 0, 40)
	b = append(b, statusHead...)
	b = append(b, m.String()...)
	b = append(b, ',')
	b = appendFixed4(b, steering)
	b = append(b, ',')
	b = appendFixed4(b, throttle)
	return string(b)
}

// ControlLine renders an outbound CTRL command (host side).
func ControlLine(steering, throttle float32) string {
	b := make([]byte, 0, 28)
	b = append(b, ctrlPrefix...)
	b = appendFixed4(b, steering)
	b = append(b, ',')
	b = appendFixed4(b, throttle)
	return string(b)
}

// ModeLine renders an outbound MODE command (host side).
func ModeLine(m Mode) string {
	return modePrefix + m.String()
}

// StatusLine is the outbound STATUS request (host side).
const StatusLine = statusWord

// ReplyKind tags a parsed device reply.
type ReplyKind uint8

const (
	// UnknownReply marks a line that matched no reply shape.
	UnknownReply ReplyKind = iota
	// TargetAck confirms an accepted control target (CTRL_ACK).
	TargetAck
	// ModeAck confirms a mode switch (MODE_ACK).
	ModeAck
	// StatusReport carries the device's mode and target (STATUS).
	StatusReport
)

// Reply is one decoded device reply line.
type Reply struct {
	Kind     ReplyKind
	Mode     Mode    // ModeAck, StatusReport
	Steering float32 // TargetAck, StatusReport
	Throttle float32 // TargetAck, StatusReport
}

// ParseReply decodes an ack or status line on the host side. Telemetry
// DATA lines are not replies; route those through ParseFrame.
func ParseReply(line string) (Reply, bool) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, ctrlAckHead):
		s, t, ok := parsePair(line[len(ctrlAckHead):])
		if !ok {
			return Reply{}, false
		}
		return Reply{Kind: TargetAck, Steering: s, Throttle: t}, true

	case strings.HasPrefix(line, modeAckHead):
		m, ok := parseModeWord(line[len(modeAckHead):])
		if !ok {
			return Reply{}, false
		}
		return Reply{Kind: ModeAck, Mode: m}, true

	case strings.HasPrefix(line, statusHead):
		rest := line[len(statusHead):]
		sepIdx := strings.IndexByte(rest, ',')
		if sepIdx < 0 {
			return Reply{}, false
		}
		m, ok := parseModeWord(rest[:sepIdx])
		if !ok {
			return Reply{}, false
		}
		s, t, ok := parsePair(rest[sepIdx+1:])
		if !ok {
			return Reply{}, false
		}
		return Reply{Kind: StatusReport, Mode: m, Steering: s, Throttle: t}, true
	}

	return Reply{}, false
}

func parsePair(args string) (a, b float32, ok bool) {
	sepIdx := strings.IndexByte(args, ',')
	if sepIdx < 0 {
		return 0, 0, false
	}
	av, err := strconv.ParseFloat(args[:sepIdx], 32)
	if err != nil {
		return 0, 0, false
	}
	bv, err := strconv.ParseFloat(args[sepIdx+1:], 32)
	if err != nil {
		return 0, 0, false
	}
	return float32(av), float32(bv), true
}

func parseModeWord(word string) (Mode, bool) {
	switch word {
	case modeAutoWord:
		return ModeAuto, true
	case modeManWord:
		return ModeManual, true
	default:
		return ModeManual, false
	}
}

// finite rejects NaN and the infinities that strconv.ParseFloat accepts
// as spelled-out words. A NaN target would sail through clamp and render
// as garbage on the wire.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LineReader accumulates serial bytes into newline-terminated lines. A
// line longer than the buffer is discarded up to the next terminator so a
// stuck or garbled peer cannot grow memory or smear into the next command.
type LineReader struct {
	buf      []byte
	overflow bool
}

// NewLineReader returns a LineReader with the given maximum line length.
func NewLineReader(maxLen int) *LineReader {
	if maxLen <= 0 {
		maxLen = 64
	}
	return &LineReader{buf: make([]byte, 0, maxLen)}
}

// Feed consumes one byte. When the byte completes a non-empty line, the
// line is returned with ok=true. CR and LF both terminate, so CRLF peers
// produce no phantom empty lines.
func (r *LineReader) Feed(b byte) (line string, ok bool) {
	if b == '\n' || b == '\r' {
		dropped := r.overflow
		r.overflow = false
		if dropped || len(r.buf) == 0 {
			r.buf = r.buf[:0]
			return "", false
		}
		line = string(r.buf)
		r.buf = r.buf[:0]
		return line, true
	}

	if r.overflow {
		return "", false
	}
	if len(r.buf) == cap(r.buf) {
		r.overflow = true
		r.buf = r.buf[:0]
		return "", false
	}
	r.buf = append(r.buf, b)
	return "", false
}
