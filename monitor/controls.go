package main

import (
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/maxboels/quantum-tracer-il/pkg/proto"
)

// Slider moves are rate limited to keep well under the failsafe timeout
// without flooding the serial link.
const controlSendInterval = 50 * time.Millisecond

// createControlPanel builds the bottom panel: a mode toggle and the
// steering/throttle sliders used while autonomous.
func createControlPanel(state *appState) fyne.CanvasObject {
	modeBtn := widget.NewButton("Autonomous", func() {
		handleModeToggle(state)
	})
	modeBtn.Disable()
	state.modeBtn = modeBtn

	var lastSend time.Time

	sendTarget := func() {
		if state.device == nil || !state.device.IsConnected() {
			return
		}
		if state.deviceMode != proto.ModeAuto {
			return
		}
		if time.Since(lastSend) < controlSendInterval {
			return
		}
		lastSend = time.Now()

		steering := float32(state.steering.Value)
		throttle := float32(state.throttle.Value)
		if err := state.device.SetControl(steering, throttle); err != nil {
			log.Printf("control send failed: %v", err)
		}
	}

	steering := widget.NewSlider(-1, 1)
	steering.Step = 0.01
	steering.OnChanged = func(float64) { sendTarget() }
	state.steering = steering

	throttle := widget.NewSlider(0, 1)
	throttle.Step = 0.01
	throttle.OnChanged = func(float64) { sendTarget() }
	state.throttle = throttle

	centerBtn := widget.NewButton("Center", func() {
		steering.SetValue(0)
		throttle.SetValue(0)
		if state.device != nil && state.device.IsConnected() && state.deviceMode == proto.ModeAuto {
			if err := state.device.SetControl(0, 0); err != nil {
				log.Printf("control send failed: %v", err)
			}
		}
	})

	grid := container.NewGridWithColumns(2,
		widget.NewLabel("Steering"), steering,
		widget.NewLabel("Throttle"), throttle,
	)

	return container.NewBorder(nil, nil, container.NewHBox(modeBtn, centerBtn), nil, grid)
}

// handleModeToggle requests the opposite actuation mode. The indicator
// only changes once the device acknowledges.
func handleModeToggle(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	next := proto.ModeAuto
	if state.deviceMode == proto.ModeAuto {
		next = proto.ModeManual
	}
	if err := state.device.SetMode(next); err != nil {
		log.Printf("mode switch failed: %v", err)
	}
}

// handleReply processes one ack/status line from the device and keeps the
// UI's view of the device mode in sync.
func handleReply(state *appState, line string) {
	reply, ok := proto.ParseReply(line)
	if !ok {
		log.Printf("unrecognized reply: %q", line)
		return
	}

	switch reply.Kind {
	case proto.ModeAck, proto.StatusReport:
		// deviceMode is only touched on the UI thread; this handler runs
		// on the replies goroutine, so the write rides along with the
		// widget update.
		fyne.Do(func() {
			state.deviceMode = reply.Mode
			state.modeLabel.SetText("mode: " + reply.Mode.String())
			if reply.Mode == proto.ModeAuto {
				state.modeBtn.SetText("Manual")
			} else {
				state.modeBtn.SetText("Autonomous")
			}
		})
	case proto.TargetAck:
		// Acked targets are routine; only worth logging
		log.Printf("target ack: %.2f/%.2f", reply.Steering, reply.Throttle)
	}
}
