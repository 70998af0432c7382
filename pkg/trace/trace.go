// Package trace keeps a sliding time window of telemetry frames for
// display and analysis.
package trace

import (
	"sync"
	"time"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
)

// History is a time-windowed FIFO of telemetry frames.
//
// Internally a plain slice ordered oldest first; eviction is based on the
// host receive timestamp, not on sample count, so a change of telemetry
// rate does not change the visible time span.
type History struct {
	mu     sync.RWMutex
	window time.Duration
	frames []car.Frame
}

// NewHistory creates a History covering the given time window.
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &History{window: window}
}

// Add appends a frame and evicts frames older than the window.
func (h *History) Add(f car.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frames = append(h.frames, f)

	cutoff := f.Received.Add(-h.window)
	drop := 0
	for drop < len(h.frames) && h.frames[drop].Received.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		h.frames = append(h.frames[:0], h.frames[drop:]...)
	}
}

// Frames returns a copy of the current window, oldest first.
func (h *History) Frames() []car.Frame {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]car.Frame, len(h.frames))
	copy(out, h.frames)
	return out
}

// Latest returns the most recent frame, if any.
func (h *History) Latest() (car.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.frames) == 0 {
		return car.Frame{}, false
	}
	return h.frames[len(h.frames)-1], true
}

// Len returns the number of frames currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.frames)
}

// Downsample decimates frames to at most maxPoints for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new.
func Downsample(dst []car.Frame, frames []car.Frame, maxPoints int) []car.Frame {
	if len(frames) <= maxPoints {
		if cap(dst) >= len(frames) {
			dst = dst[:len(frames)]
			copy(dst, frames)
			return dst
		}
		result := make([]car.Frame, len(frames))
		copy(result, frames)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]car.Frame, 0, maxPoints)
	}

	step := float64(len(frames)) / float64(maxPoints)
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx < len(frames) {
			dst = append(dst, frames[idx])
		}
	}

	return dst
}
