//go:build linux

// Package gpiocap feeds pwmcap captures from Linux GPIO character
// device lines. It is the input backend for single-board computers,
// where the receiver taps land on a GPIO header instead of a
// microcontroller pin.
package gpiocap

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/maxboels/quantum-tracer-il/pkg/pwmcap"
)

// LineCapture owns one requested GPIO line and the capture it feeds.
// Edge events arrive on a gpiocdev goroutine rather than an interrupt
// handler, so the capture's critical section is a plain mutex shared
// with the event handler.
type LineCapture struct {
	Capture *pwmcap.Capture

	mu   sync.Mutex
	line *gpiocdev.Line
}

// Request opens the line on the named chip with both-edge events and
// starts feeding the capture. The kernel event timestamp is used as the
// microsecond clock, so userspace scheduling jitter does not distort
// the measured pulse widths.
//
// Note that edge events require Linux 5.5 or later.
func Request(chip string, offset int) (*LineCapture, error) {
	lc := &LineCapture{Capture: pwmcap.NewCapture()}
	lc.Capture.Critical = func(fn func()) {
		lc.mu.Lock()
		fn()
		lc.mu.Unlock()
	}

	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(lc.handleEvent))
	if err != nil {
		return nil, fmt.Errorf("gpiocap: request %s:%d: %w", chip, offset, err)
	}
	lc.line = line

	return lc, nil
}

func (lc *LineCapture) handleEvent(evt gpiocdev.LineEvent) {
	rising := evt.Type == gpiocdev.LineEventRisingEdge
	nowUs := uint32(evt.Timestamp / time.Microsecond)

	lc.mu.Lock()
	lc.Capture.Edge(rising, nowUs)
	lc.mu.Unlock()
}

// Close releases the GPIO line. The capture keeps its last timings.
func (lc *LineCapture) Close() error {
	return lc.line.Close()
}
