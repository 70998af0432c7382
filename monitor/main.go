package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/maxboels/quantum-tracer-il/pkg/car"
	"github.com/maxboels/quantum-tracer-il/pkg/config"
	"github.com/maxboels/quantum-tracer-il/pkg/health"
	"github.com/maxboels/quantum-tracer-il/pkg/proto"
	"github.com/maxboels/quantum-tracer-il/pkg/scope"
	"github.com/maxboels/quantum-tracer-il/pkg/trace"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.maxboels.quantumtracer")

	// Create main window
	window := application.NewWindow("QuantumTracer Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(state)

	// Create scope widget for the steering/throttle traces
	scopeWidget := scope.New(cfg)
	state.scopeWidget = scopeWidget

	// Create control panel (mode toggle, steering/throttle sliders)
	controls := createControlPanel(state)

	// Border layout: toolbar on top, controls on the bottom, scope as content
	content := container.NewBorder(
		toolbar,
		controls,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(content)
	window.ShowAndRun()
}

// telemetryChain tracks the components of the telemetry pipeline for
// graceful shutdown.
type telemetryChain struct {
	device    car.Device
	frameDone chan struct{} // Closed when the frame goroutine exits
	replyDone chan struct{} // Closed when the reply goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	device      car.Device
	history     *trace.History
	healthMon   *health.Monitor
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	modeBtn     *widget.Button
	modeLabel   *widget.Label
	steering    *widget.Slider
	throttle    *widget.Slider
	useMock     bool
	chain       *telemetryChain

	// Last acknowledged device mode. Accessed from the UI thread only;
	// off-thread reply handling funnels writes through fyne.Do.
	deviceMode proto.Mode

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings
// buttons on the left and the mode indicator on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	// Connect button with icon
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	// Settings button with icon
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	modeLabel := widget.NewLabel("disconnected")
	state.modeLabel = modeLabel

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		modeLabel, // right
		nil,       // center (spacer)
	)
}

// closeTelemetryChain gracefully closes the telemetry pipeline.
// Waits for all goroutines to finish and channels to drain.
func closeTelemetryChain(chain *telemetryChain) {
	if chain == nil {
		return
	}

	// Close device - this closes the frame and reply channels
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.frameDone != nil {
		<-chain.frameDone
	}
	if chain.replyDone != nil {
		<-chain.replyDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close telemetry chain
		closeTelemetryChain(state.chain)
		state.chain = nil
		state.device = nil
		state.modeBtn.Disable()
		state.modeLabel.SetText("disconnected")
		if state.useMock {
			fmt.Println("Disconnected from mocked device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	// Connect
	var device car.Device
	if state.useMock {
		device = car.NewMock(state.cfg)
		fmt.Println("Using mocked device")
	} else {
		device = car.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, car.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	if err := device.WaitReady(3 * time.Second); err != nil {
		device.Close()
		dialog.ShowError(fmt.Errorf("device did not report ready: %w", err), state.window)
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Connected to mocked device")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	state.modeBtn.Enable()
	state.deviceMode = proto.ModeManual
	state.modeLabel.SetText("mode: MANUAL")

	// Fresh history and health state for the new connection
	window := time.Duration(state.cfg.Display.WindowSeconds) * time.Second
	state.history = trace.NewHistory(window)
	state.healthMon = health.New(window, 2*time.Second)

	// Throttle scope repaints to ~60 FPS; telemetry arrives at ~30 Hz but
	// the mock can be configured much faster.
	const updateInterval = 16 * time.Millisecond
	state.healthMon.OnUpdate(func(snap health.Snapshot) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()

		if tooSoon {
			return
		}

		frames := state.history.Frames()

		// Update scope widget on main thread
		fyne.Do(func() {
			state.scopeWidget.UpdateData(frames, snap)
		})
	})

	// Track goroutines for graceful shutdown
	frameDone := make(chan struct{})
	replyDone := make(chan struct{})

	// Feed history from telemetry; health observation triggers the
	// OnUpdate callback above.
	go func() {
		defer close(frameDone)
		for frame := range device.Frames() {
			state.history.Add(frame)
			state.healthMon.Observe(frame)
		}
	}()

	// Track acknowledged device mode from replies
	go func() {
		defer close(replyDone)
		for line := range device.Replies() {
			handleReply(state, line)
		}
	}()

	// Ask for the device's current state so the mode indicator starts
	// out truthful even after a monitor restart.
	if err := device.RequestStatus(); err != nil {
		log.Printf("status request failed: %v", err)
	}

	// Store chain for graceful shutdown
	state.chain = &telemetryChain{
		device:    device,
		frameDone: frameDone,
		replyDone: replyDone,
	}
}
