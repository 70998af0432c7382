package scope

import (
	"image/color"
	"math"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/health"
)

// Fixed plot range. Steering spans the full range, throttle uses the
// upper half.
const (
	yMin = -1.1
	yMax = 1.1
)

var (
	steeringColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	throttleColor = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	gridColor     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	staleColor    = color.RGBA{R: 255, G: 80, B: 80, A: 255}
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Grid lines
	gridLines []*canvas.Line
	gridTexts []*canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	// Check if size changed
	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, trigger widget refresh to redraw with new dimensions
		// Use BaseWidget.Refresh() to properly trigger Fyne's refresh cycle
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	frames := r.scope.displayFrames
	status := r.scope.status
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]

	// Calculate margins
	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	// Draw grid
	r.drawGrid(plotX, plotY, plotWidth, plotHeight, xMin, xMax)

	// Draw steering (orange) and throttle (light blue) traces
	if len(frames) > 1 {
		r.drawTrace(plotX, plotY, plotWidth, plotHeight, frames, xMin, xMax,
			steeringColor, func(f car.Frame) float64 { return float64(f.Steering) })
		r.drawTrace(plotX, plotY, plotWidth, plotHeight, frames, xMin, xMax,
			throttleColor, func(f car.Frame) float64 { return float64(f.Throttle) })
	}

	// Draw link status indicators
	r.drawStatus(plotX, plotY, status)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, xMin, xMax time.Time) {
	// Horizontal grid lines (normalized control value)
	numHLines := 8
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// Y-axis label
		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(formatValue(value), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// X-axis label
		timeOffset := float64(i) * xMax.Sub(xMin).Seconds() / float64(numVLines)
		text := canvas.NewText(formatTime(time.Duration(timeOffset*float64(time.Second))), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawTrace draws one control value curve.
func (r *scopeRenderer) drawTrace(plotX, plotY, plotWidth, plotHeight float32, frames []car.Frame, xMin, xMax time.Time, col color.RGBA, value func(car.Frame) float64) {
	if len(frames) < 2 {
		return
	}

	span := xMax.Sub(xMin).Seconds()
	if span <= 0 {
		return
	}

	points := make([]fyne.Position, 0, len(frames))
	for _, f := range frames {
		x := plotX + float32(f.Received.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32((value(f)-yMin)/(yMax-yMin))*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(col)
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawStatus draws the frame rate and per-channel signal state in the
// plot corner. Channels that are not live are flagged in red.
func (r *scopeRenderer) drawStatus(plotX, plotY float32, status health.Snapshot) {
	rate := canvas.NewText(formatFloat(status.Rate, 1)+" Hz", labelColor)
	rate.TextSize = 11
	rate.Move(fyne.NewPos(plotX+10, plotY+10))
	r.objects = append(r.objects, rate)

	steering := canvas.NewText("steering: "+status.Steering.State.String(), channelColor(status.Steering.State))
	steering.TextSize = 11
	steering.Move(fyne.NewPos(plotX+90, plotY+10))
	r.objects = append(r.objects, steering)

	throttle := canvas.NewText("throttle: "+status.Throttle.State.String(), channelColor(status.Throttle.State))
	throttle.TextSize = 11
	throttle.Move(fyne.NewPos(plotX+220, plotY+10))
	r.objects = append(r.objects, throttle)
}

func channelColor(state health.SignalState) color.RGBA {
	if state == health.SignalLive {
		return labelColor
	}
	return staleColor
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatValue(v float64) string {
	return formatFloat(v, 2)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return formatFloat(d.Seconds(), 2) + "s"
	}
	return formatFloat(d.Seconds(), 1) + "s"
}

func formatFloat(v float64, decimals int) string {
	str := ""
	if v < 0 {
		str = "-"
		v = -v
	}
	intPart := int64(v)
	str += formatInt(intPart)
	if decimals > 0 {
		frac := v - float64(intPart)
		fracStr := formatInt(int64(math.Round(frac * math.Pow(10, float64(decimals)))))
		// Pad with zeros
		for len(fracStr) < decimals {
			fracStr = "0" + fracStr
		}
		str += "." + fracStr
	}
	return str
}

func formatInt(v int64) string {
	if v == 0 {
		return "0"
	}
	str := ""
	for v > 0 {
		str = string(rune('0'+v%10)) + str
		v /= 10
	}
	return str
}
