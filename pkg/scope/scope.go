package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/health"
	"github.com/maxboels/quantum-tracer-il/pkg/trace"
)

// ScopeWidget is a custom Fyne widget that plots the steering and
// throttle traces over the rolling telemetry window.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	frames []car.Frame
	status health.Snapshot

	// Display buffer (reused for downsampling)
	displayFrames []car.Frame

	// Time axis
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	maxPoints := cfg.Display.MaxPoints
	if maxPoints <= 0 {
		maxPoints = 1000
	}
	s := &ScopeWidget{
		cfg:              cfg,
		frames:           make([]car.Frame, 0),
		displayFrames:    make([]car.Frame, 0, maxPoints),
		maxDisplayPoints: maxPoints,
	}
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with the current trace window and health
// snapshot. This should be called from the telemetry callback using
// fyne.Do().
func (s *ScopeWidget) UpdateData(frames []car.Frame, status health.Snapshot) {
	s.mu.Lock()

	// Downsample for display (reuse buffer)
	s.displayFrames = trace.Downsample(s.displayFrames, frames, s.maxDisplayPoints)

	s.frames = frames
	s.status = status

	s.updateTimeAxis()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateTimeAxis derives the X range from the displayed frames. The Y
// axis is fixed: normalized control values never leave [-1, 1].
func (s *ScopeWidget) updateTimeAxis() {
	window := time.Duration(s.cfg.Display.WindowSeconds) * time.Second

	if len(s.displayFrames) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(window)
		return
	}

	s.xMin = s.displayFrames[0].Received
	s.xMax = s.displayFrames[len(s.displayFrames)-1].Received
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < window {
		s.xMax = s.xMin.Add(window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
