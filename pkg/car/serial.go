package car

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

const (
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
	// replyBufferSize bounds the ack/status reply channel.
	replyBufferSize = 16
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the PWM bridge over a serial port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	frames    chan Frame
	replies   chan string
	ready     chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and
// buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = proto.DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		frames:    make(chan Frame, bufSize),
		replies:   make(chan string, replyBufferSize),
		ready:     make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}

	return result, nil
}

// Connect opens the serial port and starts the reader goroutine.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines()

	return nil
}

// WaitReady blocks until the device emits its ARDUINO_READY line. The
// device resets when the port opens (DTR toggles), so a fresh connection
// always produces the banner before any DATA line.
func (d *Serial) WaitReady(timeout time.Duration) error {
	select {
	case <-d.ready:
		return nil
	case <-d.ctx.Done():
		return fmt.Errorf("device closed while waiting for ready")
	case <-time.After(timeout):
		return fmt.Errorf("no %s within %s", proto.ReadyLine, timeout)
	}
}

// Close closes the connection and stops the reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	close(d.frames)
	close(d.replies)

	return nil
}

// Frames returns the channel of telemetry frames.
func (d *Serial) Frames() <-chan Frame {
	return d.frames
}

// Replies returns the channel of non-telemetry lines (acks and STATUS
// replies) in arrival order.
func (d *Serial) Replies() <-chan string {
	return d.replies
}

// SetControl sends a steering/throttle target. The device acknowledges
// with CTRL_ACK and implicitly enters autonomous mode.
func (d *Serial) SetControl(steering, throttle float32) error {
	return d.writeLine(proto.ControlLine(steering, throttle))
}

// SetMode switches the device between manual and autonomous mode.
func (d *Serial) SetMode(mode proto.Mode) error {
	return d.writeLine(proto.ModeLine(mode))
}

// RequestStatus asks for the current mode and target. The reply arrives
// on the Replies channel.
func (d *Serial) RequestStatus() error {
	return d.writeLine(proto.StatusLine)
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) writeLine(line string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return fmt.Errorf("not connected")
	}

	if _, err := d.conn.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("failed to send %q: %w", line, err)
	}

	return nil
}

// readLines reads lines from the serial port and routes them to the
// frames or replies channel.
func (d *Serial) readLines() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					log.Printf("Error reading from serial port: %v", err)
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			d.routeLine(line)
		}
	}
}

func (d *Serial) routeLine(line string) {
	if line == proto.ReadyLine {
		select {
		case <-d.ready:
			// Device rebooted mid-session; nothing to signal.
		default:
			close(d.ready)
		}
		return
	}

	if proto.IsData(line) {
		sample, err := proto.ParseFrame(line)
		if err != nil {
			log.Printf("Failed to parse frame %q: %v", line, err)
			return
		}
		d.deliverFrame(Frame{Received: time.Now(), Sample: sample})
		return
	}

	d.deliverReply(line)
}

// deliverFrame sends under the connection lock so Close cannot shut the
// frames channel between the connected check and the send.
func (d *Serial) deliverFrame(f Frame) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return
	}
	select {
	case d.frames <- f:
	default:
		// Channel full, drop the frame rather than stall the reader.
		log.Printf("Frames channel full, dropping frame")
	}
}

func (d *Serial) deliverReply(line string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return
	}
	select {
	case d.replies <- line:
	default:
		log.Printf("Replies channel full, dropping %q", line)
	}
}
